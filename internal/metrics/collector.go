// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 语音管线指标收集器
type Collector struct {
	// 管线指标
	pipelineRequestsTotal   *prometheus.CounterVec
	pipelineRequestDuration *prometheus.HistogramVec
	subtaskDuration         *prometheus.HistogramVec
	subtaskTimeoutsTotal    *prometheus.CounterVec

	// 供应商指标
	providerRequestsTotal   *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec
	providerRetriesTotal    *prometheus.CounterVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 声纹指标
	biometricMatchesTotal *prometheus.CounterVec

	// 音质指标
	qualityScore *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 管线指标
	c.pipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_total",
			Help:      "Total number of voice processing requests",
		},
		[]string{"operation", "status"},
	)

	c.pipelineRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_request_duration_seconds",
			Help:      "End-to-end voice processing duration in seconds",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.144, 0.18, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	c.subtaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "subtask_duration_seconds",
			Help:      "Per-subtask duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.144, 0.25, 0.5},
		},
		[]string{"subtask"},
	)

	c.subtaskTimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subtask_timeouts_total",
			Help:      "Number of subtasks cancelled at the request deadline",
		},
		[]string{"subtask"},
	)

	// 供应商指标
	c.providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of external provider calls",
		},
		[]string{"provider", "operation", "status"},
	)

	c.providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "External provider call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	c.providerRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Number of retried provider calls",
		},
		[]string{"provider", "operation"},
	)

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"artifact"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"artifact"},
	)

	// 声纹指标
	c.biometricMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "biometric_matches_total",
			Help:      "Speaker identification outcomes",
		},
		[]string{"outcome"}, // matched, rejected, new_speaker
	)

	// 音质指标
	c.qualityScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_overall_score",
			Help:      "Overall audio quality score distribution",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"level"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 管线指标记录
// =============================================================================

// RecordPipelineRequest 记录一次管线请求
func (c *Collector) RecordPipelineRequest(operation, status string, duration time.Duration) {
	c.pipelineRequestsTotal.WithLabelValues(operation, status).Inc()
	c.pipelineRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSubtask 记录子任务耗时
func (c *Collector) RecordSubtask(subtask string, duration time.Duration) {
	c.subtaskDuration.WithLabelValues(subtask).Observe(duration.Seconds())
}

// RecordSubtaskTimeout 记录截止时间内未完成被取消的子任务
func (c *Collector) RecordSubtaskTimeout(subtask string) {
	c.subtaskTimeoutsTotal.WithLabelValues(subtask).Inc()
}

// =============================================================================
// 🌐 供应商指标记录
// =============================================================================

// RecordProviderRequest 记录外部供应商调用
func (c *Collector) RecordProviderRequest(provider, operation, status string, duration time.Duration) {
	c.providerRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	c.providerRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordProviderRetry 记录供应商调用重试
func (c *Collector) RecordProviderRetry(provider, operation string) {
	c.providerRetriesTotal.WithLabelValues(provider, operation).Inc()
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(artifact string) {
	c.cacheHits.WithLabelValues(artifact).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(artifact string) {
	c.cacheMisses.WithLabelValues(artifact).Inc()
}

// =============================================================================
// 🎙️ 声纹 / 音质指标记录
// =============================================================================

// RecordBiometricMatch 记录声纹识别结果
func (c *Collector) RecordBiometricMatch(outcome string) {
	c.biometricMatchesTotal.WithLabelValues(outcome).Inc()
}

// RecordQualityScore 记录音质总分分布
func (c *Collector) RecordQualityScore(level string, overall float64) {
	c.qualityScore.WithLabelValues(level).Observe(overall)
}
