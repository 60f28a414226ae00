// =============================================================================
// Package quick — One-Line Pipeline Construction
// =============================================================================
// Provides a convenience entry point for assembling the voice-processing
// pipeline with minimal boilerplate. Delegates to the service constructors
// and orchestrator.New internally.
//
// The package lives under quick/ (not root) so the root facade can re-export
// it without an import cycle.
//
// Usage:
//
//	import "github.com/BaSui01/voiceflow/quick"
//
//	p, err := quick.New(quick.WithWhisper(), quick.WithElevenLabs())
//	p, err := quick.New(quick.WithSTTProvider(mySTT), quick.WithTTSProvider(myTTS))
//
// =============================================================================
package quick

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceflow/biometrics"
	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/enhance"
	"github.com/BaSui01/voiceflow/internal/cache"
	"github.com/BaSui01/voiceflow/orchestrator"
	"github.com/BaSui01/voiceflow/quality"
	"github.com/BaSui01/voiceflow/speech"
	"github.com/BaSui01/voiceflow/synthesize"
	"github.com/BaSui01/voiceflow/transcribe"
)

// Option configures the pipeline created by New.
type Option func(*options)

type options struct {
	cfg       *config.Config
	stt       speech.STTProvider
	tts       speech.TTSProvider
	logger    *zap.Logger
	redisAddr string

	// Provider shortcut fields — used when stt/tts are nil.
	whisperKey    string
	elevenLabsKey string
}

// WithConfig uses a full configuration instead of the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithSTTProvider sets a pre-built speech-to-text provider.
func WithSTTProvider(p speech.STTProvider) Option {
	return func(o *options) { o.stt = p }
}

// WithTTSProvider sets a pre-built text-to-speech provider.
func WithTTSProvider(p speech.TTSProvider) Option {
	return func(o *options) { o.tts = p }
}

// WithWhisper creates an OpenAI Whisper STT provider.
// API key is read from OPENAI_API_KEY environment variable.
func WithWhisper() Option {
	return func(o *options) {
		if o.whisperKey == "" {
			o.whisperKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithWhisperKey creates an OpenAI Whisper STT provider with an explicit key.
func WithWhisperKey(key string) Option {
	return func(o *options) { o.whisperKey = key }
}

// WithElevenLabs creates an ElevenLabs TTS provider.
// API key is read from ELEVENLABS_API_KEY environment variable.
func WithElevenLabs() Option {
	return func(o *options) {
		if o.elevenLabsKey == "" {
			o.elevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
		}
	}
}

// WithElevenLabsKey creates an ElevenLabs TTS provider with an explicit key.
func WithElevenLabsKey(key string) Option {
	return func(o *options) { o.elevenLabsKey = key }
}

// WithRedis enables caching and biometric profile storage at the given address.
func WithRedis(addr string) Option {
	return func(o *options) { o.redisAddr = addr }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New assembles a voice-processing orchestrator with minimal configuration.
// Without WithRedis the pipeline runs cache-less and without biometrics.
func New(opts ...Option) (*orchestrator.Orchestrator, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	cfg := o.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// Resolve providers.
	stt := o.stt
	if stt == nil {
		if o.whisperKey == "" {
			return nil, fmt.Errorf("STT provider is required: use WithSTTProvider or WithWhisper")
		}
		stt = speech.NewWhisperProvider(speech.WhisperConfig{
			APIKey:  o.whisperKey,
			BaseURL: cfg.STT.BaseURL,
			Model:   cfg.STT.Model,
			Timeout: cfg.STT.Timeout,
		})
	}
	tts := o.tts
	if tts == nil {
		if o.elevenLabsKey == "" {
			return nil, fmt.Errorf("TTS provider is required: use WithTTSProvider or WithElevenLabs")
		}
		tts = speech.NewElevenLabsProvider(speech.ElevenLabsConfig{
			APIKey:  o.elevenLabsKey,
			BaseURL: cfg.TTS.BaseURL,
			Model:   cfg.TTS.Model,
			VoiceID: cfg.TTS.VoiceID,
			Timeout: cfg.TTS.Timeout,
		})
	}

	// Optional cache layer.
	var manager *cache.Manager
	if o.redisAddr != "" {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = o.redisAddr
		var err error
		manager, err = cache.NewManager(cacheCfg, o.logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis at %s: %w", o.redisAddr, err)
		}
	}

	transcriber := transcribe.NewService(cfg.STT, stt, manager, nil, nil, o.logger).
		WithBatchConcurrency(cfg.Pipeline.MaxConcurrency)
	synthesizer := synthesize.NewService(cfg.TTS, tts, manager, nil, nil, o.logger).
		WithBatchConcurrency(cfg.Pipeline.MaxConcurrency)
	scorer := quality.NewScorer(o.logger)
	enhancer := enhance.NewPipeline(cfg.Enhance, enhance.Preset(cfg.Pipeline.QualityPreset), o.logger).
		WithBatchConcurrency(cfg.Pipeline.MaxConcurrency)

	var identifier orchestrator.SpeakerIdentifier
	if manager != nil {
		store := biometrics.NewRedisProfileStore(manager, o.logger)
		identifier = biometrics.NewService(cfg.Biometrics, nil, store, o.logger)
	}

	return orchestrator.New(
		cfg.Pipeline,
		transcriber,
		synthesizer,
		scorer,
		identifier,
		enhancer,
		nil,
		o.logger,
	), nil
}
