package biometrics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceflow/internal/cache"
	"github.com/BaSui01/voiceflow/types"
)

// ProfileStore 持久化声纹档案。实现必须提供带 TTL 的原子读写，
// 过期档案按不存在处理。
type ProfileStore interface {
	// Load 读取档案；不存在或已过期时返回 PROFILE_NOT_FOUND。
	Load(ctx context.Context, tenantID, speakerID string) (*types.VoiceProfile, error)

	// Save 写入档案并重置 TTL。
	Save(ctx context.Context, profile *types.VoiceProfile, ttl time.Duration) error

	// Delete 删除档案。
	Delete(ctx context.Context, tenantID, speakerID string) error
}

// redisProfileStore 把档案以 JSON 存入 Redis，键为
// voiceprint:{tenant|default}:{speaker}。
type redisProfileStore struct {
	cache  *cache.Manager
	logger *zap.Logger
}

// NewRedisProfileStore 基于共享缓存管理器创建档案存储。
func NewRedisProfileStore(manager *cache.Manager, logger *zap.Logger) ProfileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisProfileStore{
		cache:  manager,
		logger: logger.With(zap.String("component", "profile_store")),
	}
}

func (s *redisProfileStore) Load(ctx context.Context, tenantID, speakerID string) (*types.VoiceProfile, error) {
	var profile types.VoiceProfile
	err := s.cache.GetJSON(ctx, cache.ProfileKey(tenantID, speakerID), &profile)
	if err != nil {
		if cache.IsCacheMiss(err) {
			return nil, types.NewError(types.ErrProfileNotFound, "voice profile not found").
				WithHTTPStatus(404)
		}
		return nil, err
	}
	return &profile, nil
}

func (s *redisProfileStore) Save(ctx context.Context, profile *types.VoiceProfile, ttl time.Duration) error {
	key := cache.ProfileKey(profile.TenantID, profile.SpeakerID)
	if err := s.cache.SetJSON(ctx, key, profile, ttl); err != nil {
		s.logger.Warn("声纹档案写入失败",
			zap.String("speaker_id", profile.SpeakerID),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *redisProfileStore) Delete(ctx context.Context, tenantID, speakerID string) error {
	return s.cache.Delete(ctx, cache.ProfileKey(tenantID, speakerID))
}
