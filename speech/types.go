package speech

import (
	"context"
	"io"
	"time"

	"github.com/BaSui01/voiceflow/types"
)

// ============================================================
// 语音转文本( STT)
// ============================================================

// STTRequest 代表语音对文本请求.
type STTRequest struct {
	Audio          io.Reader         `json:"-"`
	Model          string            `json:"model,omitempty"`
	Language       string            `json:"language,omitempty"` // ISO-639-1 code
	Prompt         string            `json:"prompt,omitempty"`   // Context hint
	ResponseFormat string            `json:"response_format,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// STTResponse 代表来自 STT 请求的答复.
type STTResponse struct {
	Provider   string        `json:"provider"`
	Model      string        `json:"model"`
	Text       string        `json:"text"`
	Language   string        `json:"language,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Segments   []Segment     `json:"segments,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Segment 代表了转写分段.
type Segment struct {
	ID         int           `json:"id"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence,omitempty"`
}

// STTProvider 定义了 STT 提供者接口.
type STTProvider interface {
	// 将语音转换为文本。
	Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error)

	// Name 返回提供者名称。
	Name() string

	// SupportedFormats 返回支持的音频格式。
	SupportedFormats() []string
}

// ============================================================
// 文本转语音( TTS)
// ============================================================

// TTSRequest 代表了文本对语音请求.
type TTSRequest struct {
	Text   string                `json:"text"`
	Params types.SynthesisParams `json:"params"`
}

// TTSResponse 代表来自 TTS 请求的回应.
type TTSResponse struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	AudioData []byte    `json:"audio_data,omitempty"`
	Format    string    `json:"format"`
	CharCount int       `json:"char_count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VoiceCloneRequest 声音复刻请求（多样本注册）.
// 不在延迟关键路径上，结果不缓存。
type VoiceCloneRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Samples     [][]byte `json:"-"`
}

// Voice 代表一个可用的声音。
type Voice struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Language    string   `json:"language,omitempty"`
	Gender      string   `json:"gender,omitempty"` // male, female, neutral
	Description string   `json:"description,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// TTSProvider 定义了 TTS 提供者接口.
type TTSProvider interface {
	// Synthesize 将文本转换为语音并返回完整音频字节。
	Synthesize(ctx context.Context, req *TTSRequest) (*TTSResponse, error)

	// SynthesizeStream 打开供应商流，边产生边转发音频分片。
	// 通道在流结束或出错后关闭；最后一个分片 IsFinal 为 true。
	SynthesizeStream(ctx context.Context, req *TTSRequest) (<-chan types.AudioChunk, error)

	// CloneVoice 以多个语音样本注册自定义声音，返回供应商侧声音 ID。
	CloneVoice(ctx context.Context, req *VoiceCloneRequest) (string, error)

	// ListVoices 返回可用声音。
	ListVoices(ctx context.Context) ([]Voice, error)

	// Name 返回提供者名称。
	Name() string
}
