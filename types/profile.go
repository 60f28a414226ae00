package types

import "time"

// VoiceProfile 说话人声纹档案（Voiceprint）。
// 首次注册 / 识别时创建，每次被接受的匹配按 0.8 旧 / 0.2 新
// 加权更新特征向量；以租户域键持久化，带有限 TTL，
// 过期后再次识别按新说话人处理。
type VoiceProfile struct {
	SpeakerID           string             `json:"speaker_id"`
	TenantID            string             `json:"tenant_id,omitempty"`
	Features            map[string]float64 `json:"features"`
	ConfidenceThreshold float64            `json:"confidence_threshold"`
	SampleCount         int                `json:"sample_count"`
	QualityScore        float64            `json:"quality_score"`
	// Enrolled 标记档案来自显式多样本注册（而非识别时自动建档）。
	// 注册时的两两一致性检验已经为稳定性背书，置信度不再按
	// 样本数折减。
	Enrolled bool `json:"enrolled,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// MatchResult 一次声纹识别 / 验证的结果。
// Similarity 与 Confidence 均在 [0,1] 区间。
type MatchResult struct {
	SpeakerID    string  `json:"speaker_id"`
	Similarity   float64 `json:"similarity"`
	Confidence   float64 `json:"confidence"`
	IsMatch      bool    `json:"is_match"`
	IsNewSpeaker bool    `json:"is_new_speaker"`
}
