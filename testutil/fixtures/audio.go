// =============================================================================
// 🎵 合成音频夹具
// =============================================================================
// 生成确定性的 16-bit PCM 测试载荷，供各包测试复用。
// 所有夹具以 16kHz / 单声道 / 16-bit 生成，与管线的规范格式一致。
// =============================================================================
package fixtures

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/BaSui01/voiceflow/types"
)

const (
	fixtureSampleRate = 16000
	fixtureAmplitude  = 12000
)

// SineBuffer 生成指定频率与时长的正弦波音频。
func SineBuffer(freq float64, duration time.Duration) types.AudioBuffer {
	samples := int(float64(fixtureSampleRate) * duration.Seconds())
	data := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(fixtureAmplitude * math.Sin(2*math.Pi*freq*float64(i)/fixtureSampleRate))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return pcmBuffer(data)
}

// SilenceBuffer 生成指定时长的纯静音音频。
func SilenceBuffer(duration time.Duration) types.AudioBuffer {
	samples := int(float64(fixtureSampleRate) * duration.Seconds())
	return pcmBuffer(make([]byte, samples*2))
}

// SpeechBuffer 生成近似语音的载荷：前半段 440Hz 音调、后半段静音，
// 让底噪估计能观察到安静窗口。
func SpeechBuffer(duration time.Duration) types.AudioBuffer {
	samples := int(float64(fixtureSampleRate) * duration.Seconds())
	data := make([]byte, samples*2)
	voiced := samples / 2
	for i := 0; i < voiced; i++ {
		v := int16(fixtureAmplitude * math.Sin(2*math.Pi*440*float64(i)/fixtureSampleRate))
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return pcmBuffer(data)
}

func pcmBuffer(data []byte) types.AudioBuffer {
	buf := types.AudioBuffer{
		Data:       data,
		Format:     types.FormatPCM,
		SampleRate: fixtureSampleRate,
		Channels:   1,
		BitDepth:   16,
	}
	buf.Duration = buf.InferredDuration()
	return buf
}
