package enhance

import (
	"encoding/binary"
	"fmt"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/types"
)

// StageName 标识一个增强阶段。
type StageName string

const (
	StageDenoise     StageName = "denoise"      // 噪声门限
	StageFilter      StageName = "filter"       // 低通平滑
	StageNormalize   StageName = "normalize"    // 峰值归一化
	StageFormat      StageName = "format"       // 格式规范化
	StageSilenceTrim StageName = "silence_trim" // 首尾静音裁剪
)

// stageOrder 是阶段的固定执行顺序，与预设选择无关。
var stageOrder = []StageName{
	StageDenoise,
	StageFilter,
	StageNormalize,
	StageFormat,
	StageSilenceTrim,
}

// Stage 是统一的增强阶段接口。实现必须返回显式结果，
// 失败兜底由管线运行器统一处理。
type Stage interface {
	// Name 返回阶段标识。
	Name() StageName

	// Apply 处理音频并返回新的缓冲区，出错时返回原因。
	Apply(audio types.AudioBuffer) (types.AudioBuffer, error)
}

// ===== 🎚️ 预设 =====

// Preset 是按延迟 / 保真度权衡命名的阶段组合。
type Preset string

const (
	PresetFast     Preset = "fast"
	PresetBalanced Preset = "balanced"
	PresetHigh     Preset = "high"
)

// StagesForPreset 把预设解析为阶段名集合（严格包含：fast ⊂ balanced ⊂ high）。
// 未知预设回退到 balanced。
func StagesForPreset(p Preset) []StageName {
	switch p {
	case PresetFast:
		return []StageName{StageNormalize}
	case PresetHigh:
		return []StageName{StageDenoise, StageFilter, StageNormalize, StageFormat, StageSilenceTrim}
	default:
		return []StageName{StageDenoise, StageNormalize, StageFormat}
	}
}

// ===== 🔧 PCM 采样工具 =====

// pcmSamples 把 16bit 小端 PCM 字节解码为采样值。
func pcmSamples(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// pcmBytes 把采样值编码回 16bit 小端 PCM 字节。
func pcmBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func ensurePCM16(audio types.AudioBuffer) error {
	if audio.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d, want 16", audio.BitDepth)
	}
	if len(audio.Data) < 2 {
		return fmt.Errorf("audio payload too small for sample processing")
	}
	return nil
}

// ===== 🎛️ 具体阶段 =====

// denoiseStage 用固定噪声门限压掉低幅值采样（约 1% 满量程）。
type denoiseStage struct{}

func (denoiseStage) Name() StageName { return StageDenoise }

func (denoiseStage) Apply(audio types.AudioBuffer) (types.AudioBuffer, error) {
	if err := ensurePCM16(audio); err != nil {
		return audio, err
	}
	const gate = 327
	samples := pcmSamples(audio.Data)
	for i, s := range samples {
		if s > -gate && s < gate {
			samples[i] = 0
		}
	}
	audio.Data = pcmBytes(samples)
	return audio, nil
}

// filterStage 是 3 抽头滑动平均低通，平滑高频毛刺。
type filterStage struct{}

func (filterStage) Name() StageName { return StageFilter }

func (filterStage) Apply(audio types.AudioBuffer) (types.AudioBuffer, error) {
	if err := ensurePCM16(audio); err != nil {
		return audio, err
	}
	samples := pcmSamples(audio.Data)
	if len(samples) < 3 {
		return audio, nil
	}
	out := make([]int16, len(samples))
	out[0] = samples[0]
	out[len(samples)-1] = samples[len(samples)-1]
	for i := 1; i < len(samples)-1; i++ {
		sum := int32(samples[i-1]) + int32(samples[i]) + int32(samples[i+1])
		out[i] = int16(sum / 3)
	}
	audio.Data = pcmBytes(out)
	return audio, nil
}

// normalizeStage 把峰值拉伸到约 89% 满量程；静音输入原样返回。
type normalizeStage struct{}

func (normalizeStage) Name() StageName { return StageNormalize }

func (normalizeStage) Apply(audio types.AudioBuffer) (types.AudioBuffer, error) {
	if err := ensurePCM16(audio); err != nil {
		return audio, err
	}
	samples := pcmSamples(audio.Data)

	var peak int32
	for _, s := range samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return audio, nil
	}

	const target = 29000 // ~0.89 * 32767
	for i, s := range samples {
		samples[i] = int16(int32(s) * target / peak)
	}
	audio.Data = pcmBytes(samples)
	return audio, nil
}

// formatStage 把采样率 / 声道 / 位深规范化为配置目标。
// 采样率变更按最近邻重采样，声道下混取均值。
type formatStage struct {
	cfg config.EnhanceConfig
}

func (formatStage) Name() StageName { return StageFormat }

func (s formatStage) Apply(audio types.AudioBuffer) (types.AudioBuffer, error) {
	if err := ensurePCM16(audio); err != nil {
		return audio, err
	}
	if s.cfg.TargetBitDepth != 16 {
		return audio, fmt.Errorf("unsupported target bit depth %d", s.cfg.TargetBitDepth)
	}

	samples := pcmSamples(audio.Data)

	// 多声道下混为单声道
	if audio.Channels > 1 && s.cfg.TargetChannels == 1 {
		frames := len(samples) / audio.Channels
		mono := make([]int16, frames)
		for f := 0; f < frames; f++ {
			var sum int32
			for c := 0; c < audio.Channels; c++ {
				sum += int32(samples[f*audio.Channels+c])
			}
			mono[f] = int16(sum / int32(audio.Channels))
		}
		samples = mono
		audio.Channels = 1
	}

	// 最近邻重采样
	if audio.SampleRate > 0 && s.cfg.TargetSampleRate > 0 && audio.SampleRate != s.cfg.TargetSampleRate {
		outLen := len(samples) * s.cfg.TargetSampleRate / audio.SampleRate
		if outLen > 0 {
			out := make([]int16, outLen)
			for i := range out {
				out[i] = samples[i*len(samples)/outLen]
			}
			samples = out
		}
		audio.SampleRate = s.cfg.TargetSampleRate
	}

	audio.Data = pcmBytes(samples)
	audio.BitDepth = s.cfg.TargetBitDepth
	audio.Format = types.FormatPCM
	audio.Duration = 0
	audio.Duration = audio.InferredDuration()
	return audio, nil
}

// silenceTrimStage 裁掉首尾连续的近静音采样，保留 10ms 余量。
type silenceTrimStage struct{}

func (silenceTrimStage) Name() StageName { return StageSilenceTrim }

func (silenceTrimStage) Apply(audio types.AudioBuffer) (types.AudioBuffer, error) {
	if err := ensurePCM16(audio); err != nil {
		return audio, err
	}
	samples := pcmSamples(audio.Data)

	const threshold = 100
	isSilent := func(s int16) bool { return s > -threshold && s < threshold }

	start := 0
	for start < len(samples) && isSilent(samples[start]) {
		start++
	}
	end := len(samples)
	for end > start && isSilent(samples[end-1]) {
		end--
	}
	if start >= end {
		// 纯静音输入，整体保留而非裁成空
		return audio, nil
	}

	margin := audio.SampleRate * audio.Channels / 100 // 10ms
	if start > margin {
		start -= margin
	} else {
		start = 0
	}
	if end+margin < len(samples) {
		end += margin
	} else {
		end = len(samples)
	}

	audio.Data = pcmBytes(samples[start:end])
	audio.Duration = 0
	audio.Duration = audio.InferredDuration()
	return audio, nil
}

// newStage 按名称实例化阶段。
func newStage(name StageName, cfg config.EnhanceConfig) (Stage, error) {
	switch name {
	case StageDenoise:
		return denoiseStage{}, nil
	case StageFilter:
		return filterStage{}, nil
	case StageNormalize:
		return normalizeStage{}, nil
	case StageFormat:
		return formatStage{cfg: cfg}, nil
	case StageSilenceTrim:
		return silenceTrimStage{}, nil
	default:
		return nil, fmt.Errorf("unknown enhancement stage %q", name)
	}
}
