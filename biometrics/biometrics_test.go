package biometrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/internal/cache"
	"github.com/BaSui01/voiceflow/types"
)

// stubExtractor 按音频首字节返回预置向量，便于构造受控相似度。
type stubExtractor struct {
	vectors map[byte]map[string]float64
}

func (s *stubExtractor) Dimensions() int { return 3 }

func (s *stubExtractor) Extract(audio types.AudioBuffer) (map[string]float64, error) {
	if len(audio.Data) == 0 {
		return nil, types.NewValidationError("audio payload is empty")
	}
	vec, ok := s.vectors[audio.Data[0]]
	if !ok {
		return nil, fmt.Errorf("no stub vector for marker %d", audio.Data[0])
	}
	// 返回副本，避免测试间共享可变状态
	out := make(map[string]float64, len(vec))
	for k, v := range vec {
		out[k] = v
	}
	return out, nil
}

func audioWithMarker(marker byte) types.AudioBuffer {
	data := make([]byte, 200)
	data[0] = marker
	return types.NewAudioBuffer(data, types.FormatPCM)
}

func newTestService(t *testing.T, extractor FeatureExtractor) (*Service, ProfileStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = mr.Addr()
	cacheCfg.HealthCheckInterval = 0
	manager, err := cache.NewManager(cacheCfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	store := NewRedisProfileStore(manager, zaptest.NewLogger(t))
	return NewService(config.DefaultBiometricsConfig(), extractor, store, zaptest.NewLogger(t)), store
}

func TestIdentifyNewSpeakerCreatesProfile(t *testing.T) {
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: {"f0": 0.5, "f1": 0.5, "f2": 0.5},
	}}
	svc, store := newTestService(t, ext)

	result, err := svc.Identify(context.Background(), audioWithMarker(1), "alice", "tenant-a", true)
	require.NoError(t, err)

	assert.True(t, result.IsNewSpeaker)
	assert.True(t, result.IsMatch)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, 1.0, result.Similarity)

	profile, err := store.Load(context.Background(), "tenant-a", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SampleCount)
	assert.Equal(t, initialQualityScore, profile.QualityScore)
}

func TestIdentifyMatchingSpeaker(t *testing.T) {
	vec := map[string]float64{"f0": 0.8, "f1": 0.1, "f2": 0.3}
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: vec, 2: vec, // 相同向量 → 相似度 1.0
	}}
	svc, store := newTestService(t, ext)

	_, err := svc.Identify(context.Background(), audioWithMarker(1), "bob", "", true)
	require.NoError(t, err)

	// 人为把档案推到高置信度区
	profile, err := store.Load(context.Background(), "", "bob")
	require.NoError(t, err)
	profile.SampleCount = 10
	profile.QualityScore = 1.0
	require.NoError(t, store.Save(context.Background(), profile, time.Hour))

	result, err := svc.Identify(context.Background(), audioWithMarker(2), "bob", "", true)
	require.NoError(t, err)

	assert.False(t, result.IsNewSpeaker)
	assert.True(t, result.IsMatch)
	assert.InDelta(t, 1.0, result.Similarity, 1e-9)
	assert.Greater(t, result.Confidence, 0.75)

	// 被接受的匹配更新了档案
	updated, err := store.Load(context.Background(), "", "bob")
	require.NoError(t, err)
	assert.Equal(t, 11, updated.SampleCount)
}

func TestIdentifyRejectsDissimilarSpeaker(t *testing.T) {
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: {"f0": 1.0, "f1": 0.0, "f2": 0.0},
		2: {"f0": 0.0, "f1": 1.0, "f2": 0.0}, // 正交向量 → 相似度 0
	}}
	svc, store := newTestService(t, ext)

	_, err := svc.Identify(context.Background(), audioWithMarker(1), "carol", "", true)
	require.NoError(t, err)

	result, err := svc.Identify(context.Background(), audioWithMarker(2), "carol", "", true)
	require.NoError(t, err)

	assert.False(t, result.IsMatch)
	assert.InDelta(t, 0.0, result.Similarity, 1e-9)

	// 被拒绝的匹配不更新档案
	profile, err := store.Load(context.Background(), "", "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SampleCount)
}

func TestIdentifyWithoutUpdateLeavesProfileUntouched(t *testing.T) {
	vec := map[string]float64{"f0": 0.7, "f1": 0.7, "f2": 0.1}
	ext := &stubExtractor{vectors: map[byte]map[string]float64{1: vec, 2: vec}}
	svc, store := newTestService(t, ext)

	_, err := svc.Identify(context.Background(), audioWithMarker(1), "dave", "", true)
	require.NoError(t, err)

	_, err = svc.Identify(context.Background(), audioWithMarker(2), "dave", "", false)
	require.NoError(t, err)

	profile, err := store.Load(context.Background(), "", "dave")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.SampleCount)
}

func TestVerifyNeverCreatesProfile(t *testing.T) {
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: {"f0": 0.5, "f1": 0.5, "f2": 0.5},
	}}
	svc, store := newTestService(t, ext)

	_, err := svc.Verify(context.Background(), audioWithMarker(1), "nobody", "")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrProfileNotFound))

	_, err = store.Load(context.Background(), "", "nobody")
	assert.Error(t, err)
}

func TestVerifyMatchesClaimedProfile(t *testing.T) {
	vec := map[string]float64{"f0": 0.9, "f1": 0.2, "f2": 0.4}
	ext := &stubExtractor{vectors: map[byte]map[string]float64{1: vec, 2: vec}}
	svc, store := newTestService(t, ext)

	_, err := svc.Identify(context.Background(), audioWithMarker(1), "erin", "", true)
	require.NoError(t, err)

	profile, err := store.Load(context.Background(), "", "erin")
	require.NoError(t, err)
	profile.SampleCount = 10
	profile.QualityScore = 1.0
	require.NoError(t, store.Save(context.Background(), profile, time.Hour))

	result, err := svc.Verify(context.Background(), audioWithMarker(2), "erin", "")
	require.NoError(t, err)
	assert.True(t, result.IsMatch)
}

func TestEnrollRequiresMinimumSamples(t *testing.T) {
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: {"f0": 0.5, "f1": 0.5, "f2": 0.5},
	}}
	svc, _ := newTestService(t, ext)

	samples := []types.AudioBuffer{audioWithMarker(1), audioWithMarker(1)}
	_, err := svc.Enroll(context.Background(), samples, "frank", "")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrTooFewSamples))
}

func TestEnrollAveragesAndScoresConsistency(t *testing.T) {
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: {"f0": 0.4, "f1": 0.6, "f2": 0.2},
		2: {"f0": 0.5, "f1": 0.5, "f2": 0.3},
		3: {"f0": 0.6, "f1": 0.4, "f2": 0.1},
	}}
	svc, store := newTestService(t, ext)

	samples := []types.AudioBuffer{audioWithMarker(1), audioWithMarker(2), audioWithMarker(3)}
	profile, err := svc.Enroll(context.Background(), samples, "grace", "tenant-b")
	require.NoError(t, err)

	assert.Equal(t, 3, profile.SampleCount)
	assert.InDelta(t, 0.5, profile.Features["f0"], 1e-9)
	assert.InDelta(t, 0.5, profile.Features["f1"], 1e-9)
	assert.InDelta(t, 0.2, profile.Features["f2"], 1e-9)

	// 一致采样 → 质量分接近 1
	assert.Greater(t, profile.QualityScore, 0.9)
	assert.LessOrEqual(t, profile.QualityScore, 1.0)

	loaded, err := store.Load(context.Background(), "tenant-b", "grace")
	require.NoError(t, err)
	assert.Equal(t, profile.Features, loaded.Features)
}

func TestEnrolledSpeakerIdentifiedWithHighConfidence(t *testing.T) {
	vec := map[string]float64{"f0": 0.5, "f1": 0.5, "f2": 0.5}
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: vec, 2: vec, 3: vec, 4: vec,
	}}
	svc, _ := newTestService(t, ext)

	samples := []types.AudioBuffer{audioWithMarker(1), audioWithMarker(2), audioWithMarker(3)}
	_, err := svc.Enroll(context.Background(), samples, "heidi", "")
	require.NoError(t, err)

	result, err := svc.Identify(context.Background(), audioWithMarker(4), "heidi", "", true)
	require.NoError(t, err)
	assert.False(t, result.IsNewSpeaker)
	assert.True(t, result.IsMatch)
	assert.Greater(t, result.Confidence, 0.75)
}

func TestProfileExpiryResetsToUnknown(t *testing.T) {
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: {"f0": 0.5, "f1": 0.5, "f2": 0.5},
	}}

	mr := miniredis.RunT(t)
	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = mr.Addr()
	cacheCfg.HealthCheckInterval = 0
	manager, err := cache.NewManager(cacheCfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	store := NewRedisProfileStore(manager, zaptest.NewLogger(t))
	svc := NewService(config.DefaultBiometricsConfig(), ext, store, zaptest.NewLogger(t))

	first, err := svc.Identify(context.Background(), audioWithMarker(1), "ivan", "", true)
	require.NoError(t, err)
	assert.True(t, first.IsNewSpeaker)

	// TTL 过期后说话人回到 Unknown 状态
	mr.FastForward(31 * 24 * time.Hour)

	again, err := svc.Identify(context.Background(), audioWithMarker(1), "ivan", "", true)
	require.NoError(t, err)
	assert.True(t, again.IsNewSpeaker)
}

func TestDeleteProfile(t *testing.T) {
	ext := &stubExtractor{vectors: map[byte]map[string]float64{
		1: {"f0": 0.5, "f1": 0.5, "f2": 0.5},
	}}
	svc, store := newTestService(t, ext)

	_, err := svc.Identify(context.Background(), audioWithMarker(1), "judy", "", true)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProfile(context.Background(), "", "judy"))

	_, err = store.Load(context.Background(), "", "judy")
	assert.True(t, types.IsErrorCode(err, types.ErrProfileNotFound))
}

func TestCosineSimilarityProperties(t *testing.T) {
	a := map[string]float64{"f0": 0.3, "f1": 0.7, "f2": 0.2}

	// 自身相似度为 1
	sim, err := cosineSimilarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	// 正交向量相似度约为 0
	b := map[string]float64{"f0": 0.0, "f1": 0.0, "f2": 1.0}
	c := map[string]float64{"f0": 1.0, "f1": 0.0, "f2": 0.0}
	sim, err = cosineSimilarity(b, c)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)

	// 键交集为空 → 维度不匹配
	d := map[string]float64{"g0": 1.0}
	_, err = cosineSimilarity(a, d)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrFeatureDimMismatch))
}

func TestHashExtractorDeterministic(t *testing.T) {
	ext := NewHashExtractor(128)

	audio := audioWithMarker(42)
	a, err := ext.Extract(audio)
	require.NoError(t, err)
	b, err := ext.Extract(audio)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)

	// 不同字节产出不同向量
	other, err := ext.Extract(audioWithMarker(43))
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}
