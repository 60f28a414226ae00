package speech

import "time"

// WhisperConfig 配置 OpenAI Whisper STT 供应商.
type WhisperConfig struct {
	APIKey       string        `json:"api_key" yaml:"api_key"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Model        string        `json:"model,omitempty" yaml:"model,omitempty"` // whisper-1
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RateLimitRPS float64       `json:"rate_limit_rps,omitempty" yaml:"rate_limit_rps,omitempty"`
}

// ElevenLabsConfig 配置 ElevenLabs TTS 供应商.
type ElevenLabsConfig struct {
	APIKey       string        `json:"api_key" yaml:"api_key"`
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	Model        string        `json:"model,omitempty" yaml:"model,omitempty"` // eleven_multilingual_v2
	VoiceID      string        `json:"voice_id,omitempty" yaml:"voice_id,omitempty"`
	OutputFormat string        `json:"output_format,omitempty" yaml:"output_format,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RateLimitRPS float64       `json:"rate_limit_rps,omitempty" yaml:"rate_limit_rps,omitempty"`
}

// DefaultWhisperConfig 返回默认 Whisper STT 配置。
func DefaultWhisperConfig() WhisperConfig {
	return WhisperConfig{
		BaseURL: "https://api.openai.com",
		Model:   "whisper-1",
		Timeout: 30 * time.Second,
	}
}

// DefaultElevenLabsConfig 返回默认的 ElevenLabs 配置。
func DefaultElevenLabsConfig() ElevenLabsConfig {
	return ElevenLabsConfig{
		BaseURL:      "https://api.elevenlabs.io",
		Model:        "eleven_multilingual_v2",
		VoiceID:      "21m00Tcm4TlvDq8ikWAM", // Rachel - default voice
		OutputFormat: "mp3_44100_128",
		Timeout:      30 * time.Second,
	}
}
