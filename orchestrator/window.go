package orchestrator

import (
	"sync"
	"time"
)

// windowCapacity 健康窗口容量：最近 100 次请求。
const windowCapacity = 100

// sample 一次请求的健康采样。
type sample struct {
	latency time.Duration
	quality float64
	success bool
}

// rollingWindow 是编排器实例持有的有界环形缓冲，
// 不使用包级全局状态。
type rollingWindow struct {
	mu      sync.Mutex
	samples [windowCapacity]sample
	next    int
	filled  int
	total   uint64
}

// Append 追加一次采样，窗口满时覆盖最旧条目。
func (w *rollingWindow) Append(latency time.Duration, quality float64, success bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples[w.next] = sample{latency: latency, quality: quality, success: success}
	w.next = (w.next + 1) % windowCapacity
	if w.filled < windowCapacity {
		w.filled++
	}
	w.total++
}

// WindowStats 是健康窗口的聚合统计。
type WindowStats struct {
	// WindowSize 当前窗口内样本数（≤100）
	WindowSize int `json:"window_size"`
	// TotalRequests 实例生命周期内的请求总数
	TotalRequests uint64 `json:"total_requests"`
	// AvgLatency 窗口内平均端到端延迟
	AvgLatency time.Duration `json:"avg_latency"`
	// AvgQuality 窗口内平均音质（只统计有音质评估的请求）
	AvgQuality float64 `json:"avg_quality"`
	// SuccessRate 窗口内成功率
	SuccessRate float64 `json:"success_rate"`
}

// Snapshot 返回窗口统计。
func (w *rollingWindow) Snapshot() WindowStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := WindowStats{WindowSize: w.filled, TotalRequests: w.total}
	if w.filled == 0 {
		return stats
	}

	var latencySum time.Duration
	var qualitySum float64
	qualityCount := 0
	successes := 0
	for i := 0; i < w.filled; i++ {
		s := w.samples[i]
		latencySum += s.latency
		if s.quality > 0 {
			qualitySum += s.quality
			qualityCount++
		}
		if s.success {
			successes++
		}
	}

	stats.AvgLatency = latencySum / time.Duration(w.filled)
	if qualityCount > 0 {
		stats.AvgQuality = qualitySum / float64(qualityCount)
	}
	stats.SuccessRate = float64(successes) / float64(w.filled)
	return stats
}
