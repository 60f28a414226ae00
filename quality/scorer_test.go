package quality

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/BaSui01/voiceflow/types"
)

// makeSpeechAudio 生成类语音测试音频：前半段 440Hz 正弦，后半段静音，
// 使噪声底窗口能观测到安静片段。
func makeSpeechAudio(t *testing.T, ms int, amplitude float64) types.AudioBuffer {
	t.Helper()
	n := 16000 * ms / 1000
	data := make([]byte, n*2)
	for i := 0; i < n/2; i++ {
		v := int16(amplitude * 32767 * math.Sin(2*math.Pi*440*float64(i)/16000))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return types.NewAudioBuffer(data, types.FormatPCM)
}

func TestAssessCleanSpeechScoresWell(t *testing.T) {
	s := NewScorer(zaptest.NewLogger(t))

	report := s.Assess(makeSpeechAudio(t, 2000, 0.3), 0, "")

	assert.GreaterOrEqual(t, report.Overall, 0.7)
	assert.Contains(t, []types.QualityLevel{types.QualityGood, types.QualityExcellent}, report.Level)
	assert.GreaterOrEqual(t, report.Clarity, 0.5)
	assert.Equal(t, 1.0, report.DurationScore)
}

func TestAssessSilenceScoresPoor(t *testing.T) {
	s := NewScorer(zaptest.NewLogger(t))

	silent := types.NewAudioBuffer(make([]byte, 16000), types.FormatPCM)
	report := s.Assess(silent, 0, "")

	assert.Equal(t, types.QualityPoor, report.Level)
	assert.Less(t, report.Overall, 0.5)
	assert.NotEmpty(t, report.Recommendations)
}

func TestLevelThresholds(t *testing.T) {
	tests := []struct {
		overall float64
		want    types.QualityLevel
	}{
		{0.95, types.QualityExcellent},
		{0.9, types.QualityExcellent},
		{0.89, types.QualityGood},
		{0.7, types.QualityGood},
		{0.69, types.QualityFair},
		{0.5, types.QualityFair},
		{0.49, types.QualityPoor},
		{0.0, types.QualityPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFor(tt.overall), "overall=%v", tt.overall)
	}
}

func TestDurationScoreRamp(t *testing.T) {
	// 500ms 内线性爬升
	assert.InDelta(t, 0.5, durationScore(250*time.Millisecond, 0), 1e-9)
	assert.InDelta(t, 1.0, durationScore(500*time.Millisecond, 0), 1e-9)
	assert.Equal(t, 1.0, durationScore(60*time.Second, 0))

	// 180s 后线性衰减
	assert.Equal(t, 1.0, durationScore(180*time.Second, 0))
	assert.InDelta(t, 0.5, durationScore(270*time.Second, 0), 1e-9)
	assert.Equal(t, 0.0, durationScore(360*time.Second, 0))

	assert.Equal(t, 0.0, durationScore(0, 0))
}

func TestDurationScoreExpectedDeviation(t *testing.T) {
	exact := durationScore(2*time.Second, 2*time.Second)
	off := durationScore(3*time.Second, 2*time.Second)
	assert.Equal(t, 1.0, exact)
	assert.Less(t, off, exact)
}

func TestContextRecommendations(t *testing.T) {
	s := NewScorer(zaptest.NewLogger(t))
	noisy := types.NewAudioBuffer(make([]byte, 16000), types.FormatPCM)

	plain := s.Assess(noisy, 0, "")
	phone := s.Assess(noisy, 0, ContextPhoneCall)
	studio := s.Assess(noisy, 0, ContextStudio)

	assert.Len(t, phone.Recommendations, len(plain.Recommendations)+1)
	assert.Len(t, studio.Recommendations, len(plain.Recommendations)+1)

	// 高分音频在 phone_call 场景不追加建议
	good := s.Assess(makeSpeechAudio(t, 2000, 0.3), 0, ContextPhoneCall)
	clean := s.Assess(makeSpeechAudio(t, 2000, 0.3), 0, "")
	assert.Equal(t, len(clean.Recommendations), len(good.Recommendations))
}

func TestUnknownContextIgnored(t *testing.T) {
	s := NewScorer(zaptest.NewLogger(t))
	noisy := types.NewAudioBuffer(make([]byte, 16000), types.FormatPCM)

	plain := s.Assess(noisy, 0, "")
	unknown := s.Assess(noisy, 0, "podcast")
	assert.Equal(t, len(plain.Recommendations), len(unknown.Recommendations))
}

type fixedAnalyzer struct{ props Properties }

func (f fixedAnalyzer) Analyze(types.AudioBuffer) Properties { return f.props }

func TestAssessWithInjectedAnalyzer(t *testing.T) {
	s := NewScorerWithAnalyzer(fixedAnalyzer{props: Properties{
		Duration:      2 * time.Second,
		SampleRate:    16000,
		Channels:      1,
		PeakAmplitude: 0.9,
		RMSAmplitude:  0.25,
		NoiseFloor:    0.001,
		ZeroCrossRate: 0.1,
	}}, zaptest.NewLogger(t))

	report := s.Assess(types.AudioBuffer{}, 0, "")

	assert.Equal(t, 1.0, report.Clarity)
	assert.Equal(t, 0.98, report.Noise)
	assert.Equal(t, 1.0, report.Volume)
	assert.Equal(t, 1.0, report.FrequencyBalance)
	assert.Equal(t, 1.0, report.DurationScore)
	assert.Equal(t, types.QualityExcellent, report.Level)
}

// overall 对任意输入落在 [0,1]，且相同输入产出相同报告。
func TestOverallBoundedAndDeterministic(t *testing.T) {
	s := NewScorer(zaptest.NewLogger(t))

	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 4, 4096).Draw(t, "data")
		audio := types.NewAudioBuffer(data, types.FormatPCM)

		a := s.Assess(audio, 0, "")
		b := s.Assess(audio, 0, "")

		assert.GreaterOrEqual(t, a.Overall, 0.0)
		assert.LessOrEqual(t, a.Overall, 1.0)
		assert.Equal(t, a.Overall, b.Overall)
		assert.Equal(t, a.Level, b.Level)
	})
}

func TestOverallRoundedThreeDecimals(t *testing.T) {
	s := NewScorer(zaptest.NewLogger(t))
	report := s.Assess(makeSpeechAudio(t, 1000, 0.2), 0, "")

	require.Equal(t, report.Overall, math.Round(report.Overall*1000)/1000)
}
