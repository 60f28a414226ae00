package transcribe

import (
	"bytes"
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/internal/cache"
	"github.com/BaSui01/voiceflow/internal/metrics"
	"github.com/BaSui01/voiceflow/retry"
	"github.com/BaSui01/voiceflow/speech"
	"github.com/BaSui01/voiceflow/types"
)

// defaultBatchConcurrency 批量转写的默认并发度。
const defaultBatchConcurrency = 5

// Options 控制单次转写行为。零值表示使用默认语言、无提示词、启用缓存。
type Options struct {
	// Language ISO-639-1 语言码，空值回退到配置默认
	Language string
	// Prompt 供应商上下文提示词
	Prompt string
	// DisableCache 跳过缓存读写（默认启用缓存）
	DisableCache bool
}

// Service 带缓存与重试的转写服务。
type Service struct {
	cfg        config.STTConfig
	provider   speech.STTProvider
	cache      *cache.Manager
	retryer    retry.Retryer
	metrics    *metrics.Collector
	logger     *zap.Logger
	batchLimit int64
}

// NewService 创建转写服务。cacheManager / collector 可为 nil（关闭对应能力）。
func NewService(
	cfg config.STTConfig,
	provider speech.STTProvider,
	cacheManager *cache.Manager,
	retryer retry.Retryer,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Service {
	if retryer == nil {
		retryer = retry.NewBackoffRetryer(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		provider:   provider,
		cache:      cacheManager,
		retryer:    retryer,
		metrics:    collector,
		logger:     logger.With(zap.String("component", "transcribe")),
		batchLimit: defaultBatchConcurrency,
	}
}

// WithBatchConcurrency 设置批量转写的并发上限。非正值保持默认。
func (s *Service) WithBatchConcurrency(n int) *Service {
	if n > 0 {
		s.batchLimit = int64(n)
	}
	return s
}

// Transcribe 将音频转写为文本。
// 缓存命中直接返回；未命中时在单次调用超时内经重试器调用供应商，
// 非空结果按配置 TTL 回写缓存。
func (s *Service) Transcribe(ctx context.Context, audio types.AudioBuffer, opts Options) (string, error) {
	if err := audio.Validate(); err != nil {
		return "", err
	}

	language := opts.Language
	if language == "" {
		language = s.cfg.Language
	}

	key := cache.TranscriptionKey(audio.Data, language, opts.Prompt)
	if !opts.DisableCache && s.cache != nil {
		if cached, err := s.cache.GetBytes(ctx, key); err == nil {
			s.recordCacheHit()
			return string(cached), nil
		} else if !cache.IsCacheMiss(err) {
			// 缓存不可用按未命中降级
			s.logger.Warn("转写缓存读取失败，按未命中处理", zap.Error(err))
		}
		s.recordCacheMiss()
	}

	text, err := s.callProvider(ctx, audio, language, opts.Prompt)
	if err != nil {
		return "", err
	}

	if text != "" && !opts.DisableCache && s.cache != nil {
		if err := s.cache.SetBytes(ctx, key, []byte(text), s.cfg.CacheTTL); err != nil {
			s.logger.Warn("转写缓存写入失败", zap.Error(err))
		}
	}
	return text, nil
}

// TranscribeBatch 以有界并发转写一批音频。
// 单项失败转为空字符串，返回值与输入一一对应。
func (s *Service) TranscribeBatch(ctx context.Context, audios []types.AudioBuffer, opts Options) []string {
	results := make([]string, len(audios))
	sem := semaphore.NewWeighted(s.batchLimit)

	for i, audio := range audios {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		go func(idx int, audio types.AudioBuffer) {
			defer sem.Release(1)
			text, err := s.Transcribe(ctx, audio, opts)
			if err != nil {
				s.logger.Warn("批量转写单项失败", zap.Int("index", idx), zap.Error(err))
				return
			}
			results[idx] = text
		}(i, audio)
	}

	_ = sem.Acquire(context.Background(), s.batchLimit)
	return results
}

// callProvider 在单次调用超时内经重试器调用供应商。
func (s *Service) callProvider(ctx context.Context, audio types.AudioBuffer, language, prompt string) (string, error) {
	start := time.Now()
	result, err := s.retryer.DoWithResult(ctx, func() (any, error) {
		callCtx := ctx
		if s.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
			defer cancel()
		}
		return s.provider.Transcribe(callCtx, &speech.STTRequest{
			Audio:    bytes.NewReader(audio.Data),
			Model:    s.cfg.Model,
			Language: language,
			Prompt:   prompt,
		})
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.RecordProviderRequest(s.provider.Name(), "transcribe", status, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	return result.(*speech.STTResponse).Text, nil
}

func (s *Service) recordCacheHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit("stt")
	}
}

func (s *Service) recordCacheMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss("stt")
	}
}
