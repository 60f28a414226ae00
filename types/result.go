package types

import "time"

// QualityLevel 音质等级（固定、不重叠的阈值映射）。
type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent" // overall >= 0.9
	QualityGood      QualityLevel = "good"      // overall >= 0.7
	QualityFair      QualityLevel = "fair"      // overall >= 0.5
	QualityPoor      QualityLevel = "poor"
)

// QualityReport 多因子音质评估报告。
// 各分项与 Overall 均在 [0,1] 区间。
type QualityReport struct {
	Clarity          float64        `json:"clarity"`
	Noise            float64        `json:"noise"` // 已取反：越高表示噪声越低
	Volume           float64        `json:"volume"`
	FrequencyBalance float64        `json:"frequency_balance"`
	DurationScore    float64        `json:"duration_score"`
	Overall          float64        `json:"overall"`
	Level            QualityLevel   `json:"level"`
	Recommendations  []string       `json:"recommendations,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
}

// Timing 记录一次请求各阶段耗时。
type Timing struct {
	Total         time.Duration `json:"total"`
	Transcription time.Duration `json:"transcription,omitempty"`
	Synthesis     time.Duration `json:"synthesis,omitempty"`
	Quality       time.Duration `json:"quality,omitempty"`
	Biometrics    time.Duration `json:"biometrics,omitempty"`
	Enhancement   time.Duration `json:"enhancement,omitempty"`
}

// ProcessingResult 一次语音处理请求的不可变输出。
// 返回后不再修改；可选子任务超时 / 失败时对应字段缺省，
// 并记录在 Degraded 中。
type ProcessingResult struct {
	ID           string         `json:"id"`
	Success      bool           `json:"success"`
	Transcript   string         `json:"transcript,omitempty"`
	AudioData    []byte         `json:"-"`
	Timing       Timing         `json:"timing"`
	Quality      *QualityReport `json:"quality,omitempty"`
	SpeakerID    string         `json:"speaker_id,omitempty"`
	Confidence   float64        `json:"confidence,omitempty"`
	IsNewSpeaker bool           `json:"is_new_speaker,omitempty"`
	Degraded     []string       `json:"degraded,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SynthesisParams TTS 语音参数。参与 TTS 缓存键的字段仅限
// 内容相关项：VoiceID / Model / Stability / SimilarityBoost / Style。
type SynthesisParams struct {
	VoiceID         string  `json:"voice_id"`
	Model           string  `json:"model"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed,omitempty"`
	OutputFormat    string  `json:"output_format,omitempty"`
}
