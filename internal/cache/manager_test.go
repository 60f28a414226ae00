package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	// 创建 miniredis 实例
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// 创建 Manager
	logger := zap.NewNop()
	config := Config{
		Addr:       mr.Addr(),
		Password:   "",
		DB:         0,
		DefaultTTL: 1 * time.Minute,
	}

	manager, err := NewManager(config, logger)
	require.NoError(t, err)

	return mr, manager
}

func TestNewManager(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	assert.NotNil(t, manager)
	assert.NotNil(t, manager.redis)
	assert.NotNil(t, manager.logger)
}

func TestManager_BytesRoundTrip(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	// 写入合成音频载荷
	payload := bytes.Repeat([]byte{0xAB, 0xCD}, 2048)
	require.NoError(t, manager.SetBytes(ctx, "tts:abc", payload, 1*time.Minute))

	// 命中时返回字节一致的内容
	got, err := manager.GetBytes(ctx, "tts:abc")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestManager_SetAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	err := manager.Set(ctx, "stt:key", "hello transcript", 1*time.Minute)
	require.NoError(t, err)

	value, err := manager.Get(ctx, "stt:key")
	require.NoError(t, err)
	assert.Equal(t, "hello transcript", value)
}

func TestManager_GetNonExistent(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	_, err := manager.Get(ctx, "non-existent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_TTLExpiry(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "stt:short", "value", 30*time.Second))

	// miniredis 快进时间模拟 TTL 到期
	mr.FastForward(31 * time.Second)

	_, err := manager.Get(ctx, "stt:short")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_JSONRoundTrip(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	type profile struct {
		SpeakerID string             `json:"speaker_id"`
		Features  map[string]float64 `json:"features"`
	}

	in := profile{SpeakerID: "spk-1", Features: map[string]float64{"f0": 0.42, "f1": 0.13}}
	require.NoError(t, manager.SetJSON(ctx, "voiceprint:default:spk-1", in, time.Hour))

	var out profile
	require.NoError(t, manager.GetJSON(ctx, "voiceprint:default:spk-1", &out))
	assert.Equal(t, in, out)
}

func TestManager_Delete(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "k1", "v1", time.Minute))
	require.NoError(t, manager.Delete(ctx, "k1"))

	_, err := manager.Get(ctx, "k1")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_Stats(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()
	defer manager.Close()

	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "k", "v", time.Minute))
	_, _ = manager.Get(ctx, "k")
	_, _ = manager.Get(ctx, "missing")

	stats := manager.GetStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestManager_ClosedRejectsOps(t *testing.T) {
	mr, manager := setupTestRedis(t)
	defer mr.Close()

	require.NoError(t, manager.Close())

	ctx := context.Background()
	_, err := manager.Get(ctx, "k")
	assert.Error(t, err)
	assert.False(t, IsCacheMiss(err))

	// 重复关闭应当无害
	assert.NoError(t, manager.Close())
}
