package quality

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceflow/types"
)

// 分项合成权重，固定不可配置。
const (
	weightClarity   = 0.30
	weightNoise     = 0.25
	weightVolume    = 0.20
	weightFrequency = 0.15
	weightDuration  = 0.10
)

// 时长评分的线性爬升 / 衰减边界。
const (
	durationRampUp  = 500 * time.Millisecond
	durationDecayAt = 180 * time.Second
)

// 评估上下文，低于场景阈值时追加一条场景建议。
const (
	ContextPhoneCall = "phone_call"
	ContextStudio    = "studio"
)

// Scorer 计算多因子音质报告。
type Scorer struct {
	analyzer PropertyAnalyzer
	logger   *zap.Logger
}

// NewScorer 使用默认 PCM 分析器创建评分器。
func NewScorer(logger *zap.Logger) *Scorer {
	return NewScorerWithAnalyzer(NewPCMAnalyzer(), logger)
}

// NewScorerWithAnalyzer 注入自定义属性分析器。
func NewScorerWithAnalyzer(analyzer PropertyAnalyzer, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		analyzer: analyzer,
		logger:   logger.With(zap.String("component", "quality")),
	}
}

// Assess 评估音频质量。expectedDuration 为 0 表示无预期时长；
// assessContext 为空或未知时不追加场景建议。
// 相同输入与分项总是产出相同 overall（确定性）。
func (s *Scorer) Assess(audio types.AudioBuffer, expectedDuration time.Duration, assessContext string) *types.QualityReport {
	props := s.analyzer.Analyze(audio)

	clarity := clarityScore(props)
	noise := noiseScore(props)
	volume := volumeScore(props)
	frequency := frequencyScore(props)
	duration := durationScore(props.Duration, expectedDuration)

	overall := weightClarity*clarity +
		weightNoise*noise +
		weightVolume*volume +
		weightFrequency*frequency +
		weightDuration*duration
	overall = round3(clamp01(overall))

	report := &types.QualityReport{
		Clarity:          round3(clarity),
		Noise:            round3(noise),
		Volume:           round3(volume),
		FrequencyBalance: round3(frequency),
		DurationScore:    round3(duration),
		Overall:          overall,
		Level:            levelFor(overall),
		Recommendations:  recommendations(clarity, noise, volume, frequency, duration, overall, assessContext),
		Properties: map[string]any{
			"duration_ms":     props.Duration.Milliseconds(),
			"sample_rate":     props.SampleRate,
			"channels":        props.Channels,
			"peak_amplitude":  round3(props.PeakAmplitude),
			"rms_amplitude":   round3(props.RMSAmplitude),
			"zero_cross_rate": round3(props.ZeroCrossRate),
		},
	}

	s.logger.Debug("音质评估完成",
		zap.Float64("overall", report.Overall),
		zap.String("level", string(report.Level)))
	return report
}

// levelFor 固定阈值的等级映射：excellent ≥0.9 / good ≥0.7 / fair ≥0.5。
func levelFor(overall float64) types.QualityLevel {
	switch {
	case overall >= 0.9:
		return types.QualityExcellent
	case overall >= 0.7:
		return types.QualityGood
	case overall >= 0.5:
		return types.QualityFair
	default:
		return types.QualityPoor
	}
}

// ===== 📊 分项评分 =====

// clarityScore 由削波比例和峰均比（crest factor）估算清晰度。
func clarityScore(p Properties) float64 {
	if p.RMSAmplitude == 0 {
		return 0
	}
	clipPenalty := clamp01(1 - p.ClippedRatio*20)

	// 语音典型峰均比约 3~5；过低意味着压缩失真，过高意味着突发杂音
	crest := p.PeakAmplitude / p.RMSAmplitude
	crestScore := 1.0
	if crest < 2 {
		crestScore = crest / 2
	} else if crest > 8 {
		crestScore = clamp01(1 - (crest-8)/8)
	}
	return clamp01(clipPenalty * crestScore)
}

// noiseScore 已取反：噪声底越低得分越高。
func noiseScore(p Properties) float64 {
	if p.RMSAmplitude == 0 {
		return 0
	}
	// 噪声底达到 0.05 满量程记零分
	return clamp01(1 - p.NoiseFloor/0.05)
}

// volumeScore 以 RMS 0.05~0.35 为理想音量区间。
func volumeScore(p Properties) float64 {
	rms := p.RMSAmplitude
	switch {
	case rms == 0:
		return 0
	case rms < 0.05:
		return clamp01(rms / 0.05)
	case rms > 0.35:
		return clamp01(1 - (rms-0.35)/0.35)
	default:
		return 1
	}
}

// frequencyScore 以过零率近似频谱平衡：语音典型区间约 0.02~0.30。
func frequencyScore(p Properties) float64 {
	zcr := p.ZeroCrossRate
	switch {
	case zcr <= 0:
		return 0
	case zcr < 0.02:
		return clamp01(zcr / 0.02)
	case zcr > 0.30:
		return clamp01(1 - (zcr-0.30)/0.30)
	default:
		return 1
	}
}

// durationScore 线性爬升至 500ms，180s 后线性衰减；
// 给定预期时长时按相对偏差再衰减。
func durationScore(actual, expected time.Duration) float64 {
	if actual <= 0 {
		return 0
	}

	score := 1.0
	if actual < durationRampUp {
		score = float64(actual) / float64(durationRampUp)
	} else if actual > durationDecayAt {
		score = clamp01(1 - float64(actual-durationDecayAt)/float64(durationDecayAt))
	}

	if expected > 0 {
		deviation := math.Abs(float64(actual-expected)) / float64(expected)
		score *= clamp01(1 - deviation)
	}
	return clamp01(score)
}

// ===== 💡 建议 =====

// 分项建议相互独立触发，不互斥。
func recommendations(clarity, noise, volume, frequency, duration, overall float64, assessContext string) []string {
	var recs []string
	if clarity < 0.5 {
		recs = append(recs, "检测到清晰度不足，建议重新录制或启用增强管线")
	}
	if noise < 0.5 {
		recs = append(recs, "背景噪声偏高，建议启用降噪或更换录音环境")
	}
	if volume < 0.5 {
		recs = append(recs, "音量异常（过低或削波），建议调整录音增益")
	}
	if frequency < 0.5 {
		recs = append(recs, "频谱失衡，建议检查采集设备的频响")
	}
	if duration < 0.5 {
		recs = append(recs, "音频时长不在有效区间（过短或过长），建议分段处理")
	}

	// 场景阈值：低于阈值时追加一条场景建议
	switch assessContext {
	case ContextPhoneCall:
		if overall < 0.6 {
			recs = append(recs, "电话通话场景下音质偏低，建议启用 balanced 及以上增强预设")
		}
	case ContextStudio:
		if overall < 0.85 {
			recs = append(recs, "录音棚场景要求更高音质，建议检查采集链路或使用 high 预设")
		}
	}
	return recs
}

// ===== 🔢 工具 =====

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
