package quality

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/BaSui01/voiceflow/types"
)

// Properties 是从音频载荷派生的粗粒度声学属性。
type Properties struct {
	Duration      time.Duration `json:"duration"`
	SampleRate    int           `json:"sample_rate"`
	Channels      int           `json:"channels"`
	PeakAmplitude float64       `json:"peak_amplitude"` // 0..1 满量程比例
	RMSAmplitude  float64       `json:"rms_amplitude"`
	NoiseFloor    float64       `json:"noise_floor"` // 最安静十分位的 RMS
	ZeroCrossRate float64       `json:"zero_cross_rate"`
	ClippedRatio  float64       `json:"clipped_ratio"`
}

// PropertyAnalyzer 从音频派生声学属性。实现必须对相同字节确定。
// 真实 DSP 分析通过替换此接口接入。
type PropertyAnalyzer interface {
	Analyze(audio types.AudioBuffer) Properties
}

// pcmAnalyzer 是默认分析器：对 16bit 小端 PCM 做确定性统计估算。
// 非 16bit 输入退化为只含元数据的属性。
type pcmAnalyzer struct{}

// NewPCMAnalyzer 返回默认的 PCM 统计分析器。
func NewPCMAnalyzer() PropertyAnalyzer { return pcmAnalyzer{} }

func (pcmAnalyzer) Analyze(audio types.AudioBuffer) Properties {
	props := Properties{
		Duration:   audio.InferredDuration(),
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}
	if audio.BitDepth != 16 || len(audio.Data) < 4 {
		return props
	}

	n := len(audio.Data) / 2
	samples := make([]float64, n)
	var sumSq float64
	var peak float64
	var crossings int
	var clipped int

	prev := 0.0
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(audio.Data[i*2:]))) / 32768.0
		samples[i] = v

		a := math.Abs(v)
		if a > peak {
			peak = a
		}
		if a >= 0.999 {
			clipped++
		}
		sumSq += v * v
		if i > 0 && ((prev < 0 && v >= 0) || (prev >= 0 && v < 0)) {
			crossings++
		}
		prev = v
	}

	props.PeakAmplitude = peak
	props.RMSAmplitude = math.Sqrt(sumSq / float64(n))
	props.ZeroCrossRate = float64(crossings) / float64(n)
	props.ClippedRatio = float64(clipped) / float64(n)
	props.NoiseFloor = quietestWindowRMS(samples)
	return props
}

// quietestWindowRMS 把信号切成 10 个窗口，返回能量最低窗口的 RMS，
// 作为噪声底的粗估。
func quietestWindowRMS(samples []float64) float64 {
	const windows = 10
	size := len(samples) / windows
	if size == 0 {
		return 0
	}

	min := math.Inf(1)
	for w := 0; w < windows; w++ {
		var sumSq float64
		for i := w * size; i < (w+1)*size; i++ {
			sumSq += samples[i] * samples[i]
		}
		rms := math.Sqrt(sumSq / float64(size))
		if rms < min {
			min = rms
		}
	}
	return min
}
