package enhance

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/types"
)

// makePCM 生成给定采样的 16bit 小端音频缓冲区。
func makePCM(t *testing.T, samples []int16) types.AudioBuffer {
	t.Helper()
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return types.NewAudioBuffer(data, types.FormatPCM)
}

// makeSine 生成约 dur 毫秒的正弦波测试音频。
func makeSine(t *testing.T, ms int, amplitude float64) types.AudioBuffer {
	t.Helper()
	n := 16000 * ms / 1000
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(amplitude * 32767 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	return makePCM(t, samples)
}

func newTestPipeline(t *testing.T, preset Preset) *Pipeline {
	t.Helper()
	return NewPipeline(config.DefaultEnhanceConfig(), preset, zaptest.NewLogger(t))
}

func TestStagesForPresetInclusion(t *testing.T) {
	fast := StagesForPreset(PresetFast)
	balanced := StagesForPreset(PresetBalanced)
	high := StagesForPreset(PresetHigh)

	assert.Equal(t, []StageName{StageNormalize}, fast)
	assert.Equal(t, []StageName{StageDenoise, StageNormalize, StageFormat}, balanced)
	assert.Len(t, high, 5)

	// 严格包含：fast ⊂ balanced ⊂ high
	contains := func(set []StageName, name StageName) bool {
		for _, s := range set {
			if s == name {
				return true
			}
		}
		return false
	}
	for _, s := range fast {
		assert.True(t, contains(balanced, s))
	}
	for _, s := range balanced {
		assert.True(t, contains(high, s))
	}
}

func TestStagesForPresetUnknownFallsBack(t *testing.T) {
	assert.Equal(t, StagesForPreset(PresetBalanced), StagesForPreset(Preset("bogus")))
}

func TestEnhanceAppliesPresetStages(t *testing.T) {
	p := newTestPipeline(t, PresetBalanced)

	res, err := p.Enhance(context.Background(), makeSine(t, 200, 0.3))
	require.NoError(t, err)

	assert.Equal(t, []StageName{StageDenoise, StageNormalize, StageFormat}, res.AppliedStages)
	assert.Equal(t, 16000, res.Properties.SampleRate)
	assert.Equal(t, 1, res.Properties.Channels)
	assert.Equal(t, 16, res.Properties.BitDepth)
	assert.NotZero(t, res.Properties.Duration)
}

func TestEnhanceExplicitStagesOverridePreset(t *testing.T) {
	p := newTestPipeline(t, PresetHigh)

	res, err := p.Enhance(context.Background(), makeSine(t, 100, 0.3), StageNormalize)
	require.NoError(t, err)
	assert.Equal(t, []StageName{StageNormalize}, res.AppliedStages)
}

func TestNormalizeRaisesPeak(t *testing.T) {
	p := newTestPipeline(t, PresetFast)

	quiet := makeSine(t, 100, 0.1)
	res, err := p.Enhance(context.Background(), quiet)
	require.NoError(t, err)

	var peak int32
	for _, s := range pcmSamples(res.Audio.Data) {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 29000, peak, 300)
}

func TestDenoiseGatesLowAmplitude(t *testing.T) {
	stage := denoiseStage{}

	in := makePCM(t, []int16{10, -50, 300, 5000, -8000, 100})
	out, err := stage.Apply(in)
	require.NoError(t, err)

	samples := pcmSamples(out.Data)
	assert.Equal(t, []int16{0, 0, 0, 5000, -8000, 0}, samples)
}

func TestSilenceTrimStripsLeadingTrailing(t *testing.T) {
	stage := silenceTrimStage{}

	samples := make([]int16, 3000)
	for i := 1000; i < 2000; i++ {
		samples[i] = 10000
	}
	in := makePCM(t, samples)

	out, err := stage.Apply(in)
	require.NoError(t, err)
	assert.Less(t, len(out.Data), len(in.Data))
	assert.Greater(t, len(out.Data), 1000*2)
}

func TestSilenceTrimKeepsPureSilence(t *testing.T) {
	stage := silenceTrimStage{}

	in := makePCM(t, make([]int16, 2000))
	out, err := stage.Apply(in)
	require.NoError(t, err)
	assert.Equal(t, len(in.Data), len(out.Data))
}

func TestFormatStageDownmixesAndResamples(t *testing.T) {
	stage := formatStage{cfg: config.EnhanceConfig{
		TargetSampleRate: 16000,
		TargetChannels:   1,
		TargetBitDepth:   16,
	}}

	stereo := makeSine(t, 100, 0.3)
	stereo.SampleRate = 44100
	stereo.Channels = 2
	stereo.Duration = 0

	out, err := stage.Apply(stereo)
	require.NoError(t, err)
	assert.Equal(t, 16000, out.SampleRate)
	assert.Equal(t, 1, out.Channels)
	assert.Equal(t, types.FormatPCM, out.Format)
	assert.Less(t, len(out.Data), len(stereo.Data))
}

// 阶段失败由运行器兜底：音频原样进入后续阶段，失败阶段不计入 applied。
func TestStageFailureFallsBackToInput(t *testing.T) {
	p := newTestPipeline(t, PresetBalanced)

	audio := makeSine(t, 100, 0.3)
	audio.BitDepth = 8 // 所有 PCM 阶段都会失败

	res, err := p.Enhance(context.Background(), audio)
	require.NoError(t, err)
	assert.Empty(t, res.AppliedStages)
	assert.Equal(t, audio.Data, res.Audio.Data)
}

func TestEnhanceRejectsInvalidAudio(t *testing.T) {
	p := newTestPipeline(t, PresetFast)

	_, err := p.Enhance(context.Background(), types.NewAudioBuffer(nil, types.FormatPCM))
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrValidation))
}

func TestEnhanceBatchIsolatesFailures(t *testing.T) {
	p := newTestPipeline(t, PresetFast)

	good := makeSine(t, 100, 0.3)
	bad := types.NewAudioBuffer([]byte{1}, types.FormatPCM) // 校验失败

	results := p.EnhanceBatch(context.Background(), []types.AudioBuffer{good, bad, good})
	require.Len(t, results, 3)

	assert.NotEmpty(t, results[0].AppliedStages)
	assert.Empty(t, results[1].AppliedStages)
	assert.Equal(t, bad.Data, results[1].Audio.Data)
	assert.NotEmpty(t, results[2].AppliedStages)
}

func TestWithBatchConcurrencySetsLimit(t *testing.T) {
	p := newTestPipeline(t, PresetFast)
	assert.Equal(t, int64(defaultBatchConcurrency), p.batchLimit)

	p.WithBatchConcurrency(2)
	assert.Equal(t, int64(2), p.batchLimit)

	// 非正值保持当前上限
	p.WithBatchConcurrency(-1)
	assert.Equal(t, int64(2), p.batchLimit)
}

func TestEnhanceBatchPreservesOrder(t *testing.T) {
	p := newTestPipeline(t, PresetFast)

	var audios []types.AudioBuffer
	for i := 0; i < 12; i++ {
		audios = append(audios, makeSine(t, 50+i*10, 0.2))
	}

	results := p.EnhanceBatch(context.Background(), audios)
	require.Len(t, results, len(audios))
	for i, res := range results {
		require.NotNil(t, res, "index %d", i)
		assert.Equal(t, audios[i].InferredDuration(), res.Properties.Duration)
	}
}

func TestEnhanceDeterministic(t *testing.T) {
	p := newTestPipeline(t, PresetHigh)

	audio := makeSine(t, 300, 0.4)
	a, err := p.Enhance(context.Background(), audio)
	require.NoError(t, err)
	b, err := p.Enhance(context.Background(), audio)
	require.NoError(t, err)

	assert.Equal(t, a.Audio.Data, b.Audio.Data)
	assert.Equal(t, a.AppliedStages, b.AppliedStages)
}
