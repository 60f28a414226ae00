// =============================================================================
// 📦 VoiceFlow 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Pipeline:   DefaultPipelineConfig(),
		STT:        DefaultSTTConfig(),
		TTS:        DefaultTTSConfig(),
		Enhance:    DefaultEnhanceConfig(),
		Biometrics: DefaultBiometricsConfig(),
		Retry:      DefaultRetryConfig(),
		Redis:      DefaultRedisConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MetricsPort:     9091,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultPipelineConfig 返回默认管线配置
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TargetResponseTimeMS: 180,
		NoiseReduction:       true,
		QualityAssessment:    true,
		Biometrics:           false,
		QualityPreset:        "balanced",
		MaxConcurrency:       5,
	}
}

// DefaultSTTConfig 返回默认 STT 配置
func DefaultSTTConfig() STTConfig {
	return STTConfig{
		BaseURL:         "https://api.openai.com",
		Model:           "whisper-1",
		Timeout:         30 * time.Second,
		CacheTTL:        time.Hour,
		MinSegmentBytes: 32000, // 16kHz mono 16bit 下约 1 秒
	}
}

// DefaultTTSConfig 返回默认 TTS 配置
func DefaultTTSConfig() TTSConfig {
	return TTSConfig{
		BaseURL:         "https://api.elevenlabs.io",
		Model:           "eleven_multilingual_v2",
		VoiceID:         "21m00Tcm4TlvDq8ikWAM", // Rachel - default voice
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		OutputFormat:    "mp3_44100_128",
		Timeout:         30 * time.Second,
		CacheTTL:        24 * time.Hour,
	}
}

// DefaultEnhanceConfig 返回默认音频增强配置
func DefaultEnhanceConfig() EnhanceConfig {
	return EnhanceConfig{
		TargetSampleRate: 16000,
		TargetChannels:   1,
		TargetBitDepth:   16,
	}
}

// DefaultBiometricsConfig 返回默认声纹识别配置
func DefaultBiometricsConfig() BiometricsConfig {
	return BiometricsConfig{
		SimilarityThreshold:     0.8,
		ConfidenceThreshold:     0.75,
		FeatureDimensions:       128,
		MinSamplesForEnrollment: 3,
		ProfileTTL:              30 * 24 * time.Hour,
	}
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:                "localhost:6379",
		Password:            "",
		DB:                  0,
		DefaultTTL:          5 * time.Minute,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		OutputPaths:  []string{"stdout"},
		EnableCaller: true,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "voiceflow",
		SampleRate:   1.0,
	}
}
