package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/voiceflow/biometrics"
	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/enhance"
	"github.com/BaSui01/voiceflow/internal/cache"
	"github.com/BaSui01/voiceflow/internal/metrics"
	"github.com/BaSui01/voiceflow/internal/server"
	"github.com/BaSui01/voiceflow/internal/telemetry"
	"github.com/BaSui01/voiceflow/orchestrator"
	"github.com/BaSui01/voiceflow/quality"
	"github.com/BaSui01/voiceflow/retry"
	"github.com/BaSui01/voiceflow/speech"
	"github.com/BaSui01/voiceflow/synthesize"
	"github.com/BaSui01/voiceflow/transcribe"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 VoiceFlow 的运维面服务器：组装整条语音处理管线，
// 并暴露 /metrics 与健康检查端点。
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	opsManager *server.Manager

	cacheManager     *cache.Manager
	metricsCollector *metrics.Collector
	pipeline         *orchestrator.Orchestrator

	otelProviders *telemetry.Providers
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 组装管线并启动运维服务器
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("voiceflow", s.logger)

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}

	if err := s.startOpsServer(); err != nil {
		return fmt.Errorf("failed to start ops server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Int("target_response_time_ms", s.cfg.Pipeline.TargetResponseTimeMS),
	)

	return nil
}

// =============================================================================
// 🔧 管线组装
// =============================================================================

// initPipeline 构建缓存、供应商客户端与各语音服务，组装编排器。
// Redis 不可达时管线以无缓存、无声纹模式降级启动。
func (s *Server) initPipeline() error {
	// 缓存层：连接失败不阻止启动
	manager, err := cache.NewManager(cache.Config{
		Addr:                s.cfg.Redis.Addr,
		Password:            s.cfg.Redis.Password,
		DB:                  s.cfg.Redis.DB,
		DefaultTTL:          s.cfg.Redis.DefaultTTL,
		PoolSize:            s.cfg.Redis.PoolSize,
		MinIdleConns:        s.cfg.Redis.MinIdleConns,
		HealthCheckInterval: s.cfg.Redis.HealthCheckInterval,
	}, s.logger)
	if err != nil {
		s.logger.Warn("Redis not available, caching and biometrics disabled", zap.Error(err))
	} else {
		s.cacheManager = manager
	}

	// 供应商客户端
	sttProvider := speech.NewWhisperProvider(speech.WhisperConfig{
		APIKey:       s.cfg.STT.APIKey,
		BaseURL:      s.cfg.STT.BaseURL,
		Model:        s.cfg.STT.Model,
		Timeout:      s.cfg.STT.Timeout,
		RateLimitRPS: s.cfg.STT.RateLimitRPS,
	})
	ttsProvider := speech.NewElevenLabsProvider(speech.ElevenLabsConfig{
		APIKey:       s.cfg.TTS.APIKey,
		BaseURL:      s.cfg.TTS.BaseURL,
		Model:        s.cfg.TTS.Model,
		VoiceID:      s.cfg.TTS.VoiceID,
		OutputFormat: s.cfg.TTS.OutputFormat,
		Timeout:      s.cfg.TTS.Timeout,
		RateLimitRPS: s.cfg.TTS.RateLimitRPS,
	})

	// 重试器：供应商重试计入指标
	sttRetryer := retry.NewBackoffRetryer(s.retryPolicy(sttProvider.Name(), "transcribe"), s.logger)
	ttsRetryer := retry.NewBackoffRetryer(s.retryPolicy(ttsProvider.Name(), "synthesize"), s.logger)

	transcriber := transcribe.NewService(s.cfg.STT, sttProvider, s.cacheManager, sttRetryer, s.metricsCollector, s.logger).
		WithBatchConcurrency(s.cfg.Pipeline.MaxConcurrency)
	synthesizer := synthesize.NewService(s.cfg.TTS, ttsProvider, s.cacheManager, ttsRetryer, s.metricsCollector, s.logger).
		WithBatchConcurrency(s.cfg.Pipeline.MaxConcurrency)
	scorer := quality.NewScorer(s.logger)
	enhancer := enhance.NewPipeline(s.cfg.Enhance, enhance.Preset(s.cfg.Pipeline.QualityPreset), s.logger).
		WithBatchConcurrency(s.cfg.Pipeline.MaxConcurrency)

	// 声纹识别依赖 Redis 档案存储
	var identifier orchestrator.SpeakerIdentifier
	if s.cacheManager != nil {
		store := biometrics.NewRedisProfileStore(s.cacheManager, s.logger)
		identifier = biometrics.NewService(s.cfg.Biometrics, nil, store, s.logger)
	}

	s.pipeline = orchestrator.New(
		s.cfg.Pipeline,
		transcriber,
		synthesizer,
		scorer,
		identifier,
		enhancer,
		s.metricsCollector,
		s.logger,
	)

	s.logger.Info("Pipeline assembled",
		zap.String("stt_provider", sttProvider.Name()),
		zap.String("tts_provider", ttsProvider.Name()),
		zap.Bool("cache_enabled", s.cacheManager != nil),
		zap.Bool("biometrics_enabled", identifier != nil && s.cfg.Pipeline.Biometrics),
	)
	return nil
}

// retryPolicy 从配置构建重试策略，并把每次重试计入供应商重试指标。
func (s *Server) retryPolicy(provider, operation string) *retry.Policy {
	return &retry.Policy{
		MaxAttempts:  s.cfg.Retry.MaxAttempts,
		InitialDelay: s.cfg.Retry.InitialDelay,
		MaxDelay:     s.cfg.Retry.MaxDelay,
		Multiplier:   s.cfg.Retry.Multiplier,
		Jitter:       s.cfg.Retry.Jitter,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			s.metricsCollector.RecordProviderRetry(provider, operation)
		},
	}
}

// =============================================================================
// 📊 运维服务器
// =============================================================================

// startOpsServer 启动 metrics / 健康检查服务器
func (s *Server) startOpsServer() error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/version", s.handleVersion)

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		RequestLogger(s.logger),
	)

	port := s.cfg.Server.MetricsPort
	if port == 0 {
		port = 9090
	}
	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", port),
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.opsManager = server.NewManager(handler, serverConfig, s.logger)

	if err := s.opsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Ops server started", zap.Int("port", port))
	return nil
}

// handleHealthz 存活探针：进程在即 200。
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleReadyz 就绪探针：缓存已配置时要求 Redis 可达。
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.cacheManager != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.cacheManager.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"not_ready","reason":%q}`, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ready"}`)
}

// handleHealth 返回编排器健康窗口统计。
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(s.pipeline.Health())
}

// handleVersion 返回构建版本信息。
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"version":%q,"build_time":%q,"git_commit":%q}`, Version, BuildTime, GitCommit)
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	if s.opsManager != nil {
		s.opsManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
	defer cancel()

	if s.opsManager != nil {
		if err := s.opsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Ops server shutdown error", zap.Error(err))
		}
	}

	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache shutdown error", zap.Error(err))
		}
	}

	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.Server.ShutdownTimeout > 0 {
		return s.cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}
