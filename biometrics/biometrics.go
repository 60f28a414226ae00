package biometrics

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/types"
)

// 被接受的匹配按旧 0.8 / 新 0.2 加权更新存储向量。
const (
	profileUpdateOldWeight = 0.8
	profileUpdateNewWeight = 0.2
)

// 新档案的初始质量分与每次被接受匹配的增量。
const (
	initialQualityScore  = 0.8
	qualityScoreStep     = 0.02
	sampleCountSaturated = 10
)

// Service 提供说话人识别 / 验证 / 注册。
type Service struct {
	cfg       config.BiometricsConfig
	extractor FeatureExtractor
	store     ProfileStore
	logger    *zap.Logger
}

// NewService 创建声纹服务。extractor 为 nil 时使用默认哈希提取器。
func NewService(cfg config.BiometricsConfig, extractor FeatureExtractor, store ProfileStore, logger *zap.Logger) *Service {
	if extractor == nil {
		extractor = NewHashExtractor(cfg.FeatureDimensions)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		extractor: extractor,
		store:     store,
		logger:    logger.With(zap.String("component", "biometrics")),
	}
}

// Identify 识别说话人。speakerID 没有档案时用本次采样建档
// （confidence=1.0，IsNewSpeaker=true）；已有档案时做相似度匹配，
// 被接受且 updateProfile=true 时更新存储向量。
func (s *Service) Identify(ctx context.Context, audio types.AudioBuffer, speakerID, tenantID string, updateProfile bool) (*types.MatchResult, error) {
	features, err := s.extractor.Extract(audio)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.Load(ctx, tenantID, speakerID)
	if err != nil {
		if !types.IsErrorCode(err, types.ErrProfileNotFound) {
			return nil, err
		}
		// Unknown → Enrolled：首个采样建档
		return s.enrollFromSample(ctx, features, speakerID, tenantID)
	}

	similarity, err := cosineSimilarity(features, profile.Features)
	if err != nil {
		return nil, err
	}
	confidence := similarity * profile.QualityScore * saturation(profile)
	isMatch := similarity >= s.cfg.SimilarityThreshold && confidence >= profile.ConfidenceThreshold

	if isMatch && updateProfile {
		s.updateProfile(ctx, profile, features)
	}

	s.logger.Debug("说话人识别完成",
		zap.String("speaker_id", speakerID),
		zap.Float64("similarity", similarity),
		zap.Float64("confidence", confidence),
		zap.Bool("is_match", isMatch))

	return &types.MatchResult{
		SpeakerID:  speakerID,
		Similarity: similarity,
		Confidence: confidence,
		IsMatch:    isMatch,
	}, nil
}

// Verify 对声称身份做同样的相似度检验，绝不建档。
// 档案不存在时返回 PROFILE_NOT_FOUND。
func (s *Service) Verify(ctx context.Context, audio types.AudioBuffer, claimedID, tenantID string) (*types.MatchResult, error) {
	features, err := s.extractor.Extract(audio)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.Load(ctx, tenantID, claimedID)
	if err != nil {
		return nil, err
	}

	similarity, err := cosineSimilarity(features, profile.Features)
	if err != nil {
		return nil, err
	}
	confidence := similarity * profile.QualityScore * saturation(profile)

	return &types.MatchResult{
		SpeakerID:  claimedID,
		Similarity: similarity,
		Confidence: confidence,
		IsMatch:    similarity >= s.cfg.SimilarityThreshold && confidence >= profile.ConfidenceThreshold,
	}, nil
}

// Enroll 用多个采样注册说话人。至少需要配置的最小采样数（默认 3）；
// 向量取逐维平均，质量分取全部样本对的平均两两余弦相似度 ——
// 一致性代理：两两相似度低说明注册不稳定，由上游处置而非此处修正。
func (s *Service) Enroll(ctx context.Context, samples []types.AudioBuffer, speakerID, tenantID string) (*types.VoiceProfile, error) {
	min := s.cfg.MinSamplesForEnrollment
	if min <= 0 {
		min = 3
	}
	if len(samples) < min {
		return nil, types.NewError(types.ErrTooFewSamples,
			fmt.Sprintf("enrollment requires at least %d samples, got %d", min, len(samples))).
			WithHTTPStatus(400)
	}

	vectors := make([]map[string]float64, len(samples))
	for i, sample := range samples {
		features, err := s.extractor.Extract(sample)
		if err != nil {
			return nil, err
		}
		vectors[i] = features
	}

	// 逐维平均
	averaged := make(map[string]float64, len(vectors[0]))
	for _, vec := range vectors {
		for k, v := range vec {
			averaged[k] += v
		}
	}
	for k := range averaged {
		averaged[k] /= float64(len(vectors))
	}

	// 平均两两余弦相似度作为注册质量
	var simSum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim, err := cosineSimilarity(vectors[i], vectors[j])
			if err != nil {
				return nil, err
			}
			simSum += sim
			pairs++
		}
	}

	now := time.Now()
	profile := &types.VoiceProfile{
		SpeakerID:           speakerID,
		TenantID:            tenantID,
		Features:            averaged,
		ConfidenceThreshold: s.cfg.ConfidenceThreshold,
		SampleCount:         len(samples),
		QualityScore:        simSum / float64(pairs),
		Enrolled:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.Save(ctx, profile, s.cfg.ProfileTTL); err != nil {
		return nil, err
	}

	s.logger.Info("说话人注册完成",
		zap.String("speaker_id", speakerID),
		zap.Int("samples", len(samples)),
		zap.Float64("quality_score", profile.QualityScore))
	return profile, nil
}

// DeleteProfile 删除说话人档案（回到 Unknown 状态）。
func (s *Service) DeleteProfile(ctx context.Context, tenantID, speakerID string) error {
	return s.store.Delete(ctx, tenantID, speakerID)
}

func (s *Service) enrollFromSample(ctx context.Context, features map[string]float64, speakerID, tenantID string) (*types.MatchResult, error) {
	now := time.Now()
	profile := &types.VoiceProfile{
		SpeakerID:           speakerID,
		TenantID:            tenantID,
		Features:            features,
		ConfidenceThreshold: s.cfg.ConfidenceThreshold,
		SampleCount:         1,
		QualityScore:        initialQualityScore,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.Save(ctx, profile, s.cfg.ProfileTTL); err != nil {
		return nil, err
	}

	s.logger.Info("创建新说话人档案", zap.String("speaker_id", speakerID))
	return &types.MatchResult{
		SpeakerID:    speakerID,
		Similarity:   1.0,
		Confidence:   1.0,
		IsMatch:      true,
		IsNewSpeaker: true,
	}, nil
}

// updateProfile 逐维做 0.8/0.2 加权更新；存储失败只降级不报错，
// 匹配结果本身已经成立。
func (s *Service) updateProfile(ctx context.Context, profile *types.VoiceProfile, features map[string]float64) {
	for k, v := range features {
		if old, ok := profile.Features[k]; ok {
			profile.Features[k] = old*profileUpdateOldWeight + v*profileUpdateNewWeight
		} else {
			profile.Features[k] = v
		}
	}
	profile.SampleCount++
	profile.QualityScore = math.Min(1.0, profile.QualityScore+qualityScoreStep)
	profile.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, profile, s.cfg.ProfileTTL); err != nil {
		s.logger.Warn("档案更新写入失败", zap.String("speaker_id", profile.SpeakerID), zap.Error(err))
	}
}

// saturation = min(1, sample_count/10)：增量建立的档案样本越多
// 置信度越趋饱和。显式注册档案不折减。
func saturation(profile *types.VoiceProfile) float64 {
	if profile.Enrolled {
		return 1.0
	}
	return math.Min(1.0, float64(profile.SampleCount)/float64(sampleCountSaturated))
}

// cosineSimilarity 在两个向量的键交集上计算余弦相似度。
// 交集为空视为维度不匹配。
func cosineSimilarity(a, b map[string]float64) (float64, error) {
	var dot, normA, normB float64
	shared := 0
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			continue
		}
		shared++
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if shared == 0 {
		return 0, types.NewError(types.ErrFeatureDimMismatch, "feature vectors share no dimensions").
			WithHTTPStatus(400)
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
