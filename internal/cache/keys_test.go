package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/BaSui01/voiceflow/types"
)

func TestTranscriptionKey_Deterministic(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		audio := rapid.SliceOfN(rapid.Byte(), 1, 4096).Draw(rt, "audio")
		language := rapid.StringMatching(`[a-z]{0,5}`).Draw(rt, "language")
		prompt := rapid.StringMatching(`[ -~]{0,64}`).Draw(rt, "prompt")

		k1 := TranscriptionKey(audio, language, prompt)
		k2 := TranscriptionKey(audio, language, prompt)

		if k1 != k2 {
			rt.Fatalf("same inputs produced different keys: %s vs %s", k1, k2)
		}
		if !strings.HasPrefix(k1, "stt:") {
			rt.Fatalf("missing namespace prefix: %s", k1)
		}
	})
}

func TestTranscriptionKey_FieldSeparation(t *testing.T) {
	t.Parallel()

	// 相邻字段拼接不应产生碰撞
	k1 := TranscriptionKey([]byte("ab"), "c", "")
	k2 := TranscriptionKey([]byte("a"), "bc", "")
	assert.NotEqual(t, k1, k2)

	k3 := TranscriptionKey([]byte("audio"), "en", "prompt")
	k4 := TranscriptionKey([]byte("audio"), "enprompt", "")
	assert.NotEqual(t, k3, k4)
}

func TestSynthesisKey_VoiceParamsChangeKey(t *testing.T) {
	t.Parallel()

	base := types.SynthesisParams{
		VoiceID:         "voice-a",
		Model:           "eleven_multilingual_v2",
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
	}

	k := SynthesisKey("hello", base)
	assert.Equal(t, k, SynthesisKey("hello", base))

	changed := base
	changed.Stability = 0.6
	assert.NotEqual(t, k, SynthesisKey("hello", changed))

	changed = base
	changed.VoiceID = "voice-b"
	assert.NotEqual(t, k, SynthesisKey("hello", changed))

	// Speed 与 OutputFormat 不参与键
	same := base
	same.Speed = 2.0
	same.OutputFormat = "pcm_16000"
	assert.Equal(t, k, SynthesisKey("hello", same))
}

func TestProfileKey_TenantScoped(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "voiceprint:tenant-1:spk-9", ProfileKey("tenant-1", "spk-9"))
	assert.Equal(t, "voiceprint:default:spk-9", ProfileKey("", "spk-9"))
}
