package types

import (
	"fmt"
	"time"
)

// AudioFormat 音频容器 / 编码格式。
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatMP3  AudioFormat = "mp3"
	FormatPCM  AudioFormat = "pcm"
	FormatOGG  AudioFormat = "ogg"
	FormatFLAC AudioFormat = "flac"
	FormatWebM AudioFormat = "webm"
)

// 音频载荷大小限制。低于下限的载荷不足以包含可用语音，
// 高于上限的载荷会被上游供应商拒绝。
const (
	MinAudioBytes = 100
	MaxAudioBytes = 25 << 20 // 25 MiB，与 Whisper 上传上限对齐
)

// AudioBuffer 代表单次请求的音频载荷（请求级，处理完即丢弃）。
// 元数据缺省时按 16kHz 单声道 16bit PCM 推断。
type AudioBuffer struct {
	Data       []byte        `json:"-"`
	Format     AudioFormat   `json:"format"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitDepth   int           `json:"bit_depth"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// NewAudioBuffer 以默认元数据（16kHz / mono / 16bit PCM）包装原始字节。
func NewAudioBuffer(data []byte, format AudioFormat) AudioBuffer {
	buf := AudioBuffer{
		Data:       data,
		Format:     format,
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
	buf.Duration = buf.InferredDuration()
	return buf
}

// InferredDuration 按采样率 / 声道 / 位深从字节数估算时长。
// 已显式设置 Duration 时原样返回。
func (b AudioBuffer) InferredDuration() time.Duration {
	if b.Duration > 0 {
		return b.Duration
	}
	bytesPerSecond := b.SampleRate * b.Channels * b.BitDepth / 8
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Data)) / float64(bytesPerSecond) * float64(time.Second))
}

// Size 返回载荷字节数。
func (b AudioBuffer) Size() int { return len(b.Data) }

// IsEmpty 报告载荷是否为空。
func (b AudioBuffer) IsEmpty() bool { return len(b.Data) == 0 }

// supportedFormats 管线接受的输入格式。
var supportedFormats = map[AudioFormat]bool{
	FormatWAV:  true,
	FormatMP3:  true,
	FormatPCM:  true,
	FormatOGG:  true,
	FormatFLAC: true,
	FormatWebM: true,
}

// Validate 在分发任何子任务之前校验载荷，违规时返回带具体原因的
// VALIDATION 错误。
func (b AudioBuffer) Validate() error {
	if len(b.Data) < MinAudioBytes {
		return NewValidationError(fmt.Sprintf("audio too small: %d bytes (min %d)", len(b.Data), MinAudioBytes))
	}
	if len(b.Data) > MaxAudioBytes {
		return NewValidationError(fmt.Sprintf("audio too large: %d bytes (max %d)", len(b.Data), MaxAudioBytes))
	}
	if b.Format != "" && !supportedFormats[b.Format] {
		return NewValidationError(fmt.Sprintf("unsupported audio format: %s", b.Format))
	}
	return nil
}

// AudioChunk 代表流式处理中的一个音频分片。
// 空 Data 分片是带内错误哨兵：下游消费者据此观察到确定的终止信号。
type AudioChunk struct {
	Data      []byte    `json:"data"`
	Index     int       `json:"index"`
	IsFinal   bool      `json:"is_final"`
	Timestamp time.Time `json:"timestamp"`
}
