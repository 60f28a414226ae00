// =============================================================================
// 📦 VoiceFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("VOICEFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 VoiceFlow 的完整配置结构
type Config struct {
	// Server 服务器配置（metrics / 健康检查端口）
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Pipeline 管线级配置（延迟目标、功能开关、并发上限）
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`

	// STT 语音转文本配置
	STT STTConfig `yaml:"stt" env:"STT"`

	// TTS 文本转语音配置
	TTS TTSConfig `yaml:"tts" env:"TTS"`

	// Enhance 音频增强配置
	Enhance EnhanceConfig `yaml:"enhance" env:"ENHANCE"`

	// Biometrics 声纹识别配置
	Biometrics BiometricsConfig `yaml:"biometrics" env:"BIOMETRICS"`

	// Retry 外部供应商调用重试配置
	Retry RetryConfig `yaml:"retry" env:"RETRY"`

	// Redis 缓存 / 声纹存储配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// PipelineConfig 管线级配置
type PipelineConfig struct {
	// 目标端到端响应时间（毫秒）；编排器截止时间取其 0.8 倍
	TargetResponseTimeMS int `yaml:"target_response_time_ms" env:"TARGET_RESPONSE_TIME_MS"`
	// 是否启用降噪增强
	NoiseReduction bool `yaml:"noise_reduction" env:"NOISE_REDUCTION"`
	// 是否启用音质评估
	QualityAssessment bool `yaml:"quality_assessment" env:"QUALITY_ASSESSMENT"`
	// 是否启用声纹识别
	Biometrics bool `yaml:"biometrics" env:"BIOMETRICS"`
	// 音质预设: fast, balanced, high
	QualityPreset string `yaml:"quality_preset" env:"QUALITY_PRESET"`
	// 批量操作并发上限（计数信号量大小）
	MaxConcurrency int `yaml:"max_concurrency" env:"MAX_CONCURRENCY"`
}

// STTConfig 语音转文本配置
type STTConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 默认语言（ISO-639-1，可为空）
	Language string `yaml:"language" env:"LANGUAGE"`
	// 单次调用超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 转写结果缓存 TTL
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	// 客户端限流（每秒请求数，0 表示不限流）
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 流式转写的最小分段字节数
	MinSegmentBytes int `yaml:"min_segment_bytes" env:"MIN_SEGMENT_BYTES"`
}

// TTSConfig 文本转语音配置
type TTSConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 默认声音 ID
	VoiceID string `yaml:"voice_id" env:"VOICE_ID"`
	// 稳定性 (0-1)
	Stability float64 `yaml:"stability" env:"STABILITY"`
	// 相似度增强 (0-1)
	SimilarityBoost float64 `yaml:"similarity_boost" env:"SIMILARITY_BOOST"`
	// 风格强度 (0-1)
	Style float64 `yaml:"style" env:"STYLE"`
	// 输出格式
	OutputFormat string `yaml:"output_format" env:"OUTPUT_FORMAT"`
	// 单次调用超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 合成音频缓存 TTL
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	// 客户端限流（每秒请求数，0 表示不限流）
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
}

// EnhanceConfig 音频增强配置（format 阶段的规范化目标）
type EnhanceConfig struct {
	// 目标采样率
	TargetSampleRate int `yaml:"target_sample_rate" env:"TARGET_SAMPLE_RATE"`
	// 目标声道数
	TargetChannels int `yaml:"target_channels" env:"TARGET_CHANNELS"`
	// 目标位深
	TargetBitDepth int `yaml:"target_bit_depth" env:"TARGET_BIT_DEPTH"`
}

// BiometricsConfig 声纹识别配置
// 相似度 / 置信度阈值为未校准的占位值，真实校准需要带标注的语音数据，
// 因此全部暴露为配置而非硬编码。
type BiometricsConfig struct {
	// 正向匹配所需的最小余弦相似度
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SIMILARITY_THRESHOLD"`
	// 新建档案的默认置信度阈值
	ConfidenceThreshold float64 `yaml:"confidence_threshold" env:"CONFIDENCE_THRESHOLD"`
	// 特征向量维度
	FeatureDimensions int `yaml:"feature_dimensions" env:"FEATURE_DIMENSIONS"`
	// 注册所需的最少样本数
	MinSamplesForEnrollment int `yaml:"min_samples_for_enrollment" env:"MIN_SAMPLES_FOR_ENROLLMENT"`
	// 声纹档案 TTL，过期后按新说话人处理
	ProfileTTL time.Duration `yaml:"profile_ttl" env:"PROFILE_TTL"`
}

// RetryConfig 外部供应商调用重试配置
type RetryConfig struct {
	// 最大尝试次数（含首次调用）
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	// 初始退避延迟
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	// 最大退避延迟
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	// 延迟倍增因子
	Multiplier float64 `yaml:"multiplier" env:"MULTIPLIER"`
	// 是否添加随机抖动
	Jitter bool `yaml:"jitter" env:"JITTER"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 默认过期时间
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接数
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 健康检查间隔
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "VOICEFLOW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从默认值 + 环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 校验配置的内部一致性
func (c *Config) Validate() error {
	if c.Pipeline.TargetResponseTimeMS <= 0 {
		return fmt.Errorf("pipeline.target_response_time_ms must be positive, got %d", c.Pipeline.TargetResponseTimeMS)
	}
	switch c.Pipeline.QualityPreset {
	case "fast", "balanced", "high":
	default:
		return fmt.Errorf("pipeline.quality_preset must be one of fast/balanced/high, got %q", c.Pipeline.QualityPreset)
	}
	if c.Pipeline.MaxConcurrency <= 0 {
		return fmt.Errorf("pipeline.max_concurrency must be positive, got %d", c.Pipeline.MaxConcurrency)
	}
	if c.Biometrics.SimilarityThreshold < 0 || c.Biometrics.SimilarityThreshold > 1 {
		return fmt.Errorf("biometrics.similarity_threshold must be in [0,1], got %f", c.Biometrics.SimilarityThreshold)
	}
	if c.Biometrics.ConfidenceThreshold < 0 || c.Biometrics.ConfidenceThreshold > 1 {
		return fmt.Errorf("biometrics.confidence_threshold must be in [0,1], got %f", c.Biometrics.ConfidenceThreshold)
	}
	if c.Biometrics.FeatureDimensions <= 0 {
		return fmt.Errorf("biometrics.feature_dimensions must be positive, got %d", c.Biometrics.FeatureDimensions)
	}
	if c.Biometrics.MinSamplesForEnrollment < 1 {
		return fmt.Errorf("biometrics.min_samples_for_enrollment must be >= 1, got %d", c.Biometrics.MinSamplesForEnrollment)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
