// Package voiceflow provides a top-level convenience entry point for
// assembling the voice-processing pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/voiceflow"
//
//	p, err := voiceflow.New(voiceflow.WithWhisper(), voiceflow.WithElevenLabs())
//	p, err := voiceflow.New(voiceflow.WithSTTProvider(mySTT), voiceflow.WithTTSProvider(myTTS))
//
// This is a thin wrapper around [quick.New]; both produce identical results.
// Use this package when you prefer the shorter import path.
package voiceflow

import (
	"github.com/BaSui01/voiceflow/orchestrator"
	"github.com/BaSui01/voiceflow/quick"
)

// Option configures the pipeline created by [New].
type Option = quick.Option

// New assembles an [orchestrator.Orchestrator] with minimal configuration.
// At minimum, both providers must be specified, either as shortcuts
// ([WithWhisper], [WithElevenLabs]) or pre-built ([WithSTTProvider],
// [WithTTSProvider]).
func New(opts ...Option) (*orchestrator.Orchestrator, error) {
	return quick.New(opts...)
}

// Re-export construction shortcuts so callers never need to import quick/.

// WithConfig uses a full configuration instead of the defaults.
var WithConfig = quick.WithConfig

// WithSTTProvider sets a pre-built speech-to-text provider.
var WithSTTProvider = quick.WithSTTProvider

// WithTTSProvider sets a pre-built text-to-speech provider.
var WithTTSProvider = quick.WithTTSProvider

// WithWhisper creates a Whisper STT provider. API key from OPENAI_API_KEY env.
var WithWhisper = quick.WithWhisper

// WithWhisperKey creates a Whisper STT provider with an explicit key.
var WithWhisperKey = quick.WithWhisperKey

// WithElevenLabs creates an ElevenLabs TTS provider. API key from ELEVENLABS_API_KEY env.
var WithElevenLabs = quick.WithElevenLabs

// WithElevenLabsKey creates an ElevenLabs TTS provider with an explicit key.
var WithElevenLabsKey = quick.WithElevenLabsKey

// WithRedis enables caching and biometric profile storage.
var WithRedis = quick.WithRedis

// WithLogger sets a custom zap logger.
var WithLogger = quick.WithLogger
