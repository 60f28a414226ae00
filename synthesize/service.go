package synthesize

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/internal/cache"
	"github.com/BaSui01/voiceflow/internal/metrics"
	"github.com/BaSui01/voiceflow/internal/pool"
	"github.com/BaSui01/voiceflow/retry"
	"github.com/BaSui01/voiceflow/speech"
	"github.com/BaSui01/voiceflow/types"
)

// defaultBatchConcurrency 批量合成的默认并发度。
const defaultBatchConcurrency = 5

// Service 带缓存与重试的合成服务。
type Service struct {
	cfg        config.TTSConfig
	provider   speech.TTSProvider
	cache      *cache.Manager
	retryer    retry.Retryer
	metrics    *metrics.Collector
	logger     *zap.Logger
	batchLimit int64
}

// NewService 创建合成服务。cacheManager / collector 可为 nil（关闭对应能力）。
func NewService(
	cfg config.TTSConfig,
	provider speech.TTSProvider,
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
		logger:     logger.With(zap.String("component", "synthesize")),
		batchLimit: defaultBatchConcurrency,
	}
}

// WithBatchConcurrency 设置批量合成的并发上限。非正值保持默认。
func (s *Service) WithBatchConcurrency(n int) *Service {
	if n > 0 {
		s.batchLimit = int64(n)
	}
	return s
}

// fillParams 把空缺的语音参数补为配置默认值。
func (s *Service) fillParams(params types.SynthesisParams) types.SynthesisParams {
	if params.VoiceID == "" {
		params.VoiceID = s.cfg.VoiceID
	}
	if params.Model == "" {
		params.Model = s.cfg.Model
	}
	if params.Stability == 0 {
		params.Stability = s.cfg.Stability
	}
	if params.SimilarityBoost == 0 {
		params.SimilarityBoost = s.cfg.SimilarityBoost
	}
	if params.Style == 0 {
		params.Style = s.cfg.Style
	}
	if params.OutputFormat == "" {
		params.OutputFormat = s.cfg.OutputFormat
	}
	return params
}

// TextToSpeech 将文本合成为完整音频字节。
// useCache=true 时先查内容寻址缓存，命中返回与首次写入字节一致的音频。
func (s *Service) TextToSpeech(ctx context.Context, text string, params types.SynthesisParams, useCache bool) ([]byte, error) {
	if text == "" {
		return nil, types.NewValidationError("text is required")
	}
	params = s.fillParams(params)

	key := cache.SynthesisKey(text, params)
	if useCache && s.cache != nil {
		if cached, err := s.cache.GetBytes(ctx, key); err == nil {
			s.recordCacheHit()
			return cached, nil
		} else if !cache.IsCacheMiss(err) {
			s.logger.Warn("合成缓存读取失败，按未命中处理", zap.Error(err))
		}
		s.recordCacheMiss()
	}

	audio, err := s.callProvider(ctx, text, params)
	if err != nil {
		return nil, err
	}

	if useCache {
		s.writeCache(ctx, key, audio)
	}
	return audio, nil
}

// TextToSpeechStream 打开供应商流并原样转发分片。不经缓存。
func (s *Service) TextToSpeechStream(ctx context.Context, text string, params types.SynthesisParams) (<-chan types.AudioChunk, error) {
	if text == "" {
		return nil, types.NewValidationError("text is required")
	}
	return s.provider.SynthesizeStream(ctx, &speech.TTSRequest{
		Text:   text,
		Params: s.fillParams(params),
	})
}

// StreamToBytes 消费整条合成流后返回完整音频，流完整结束后才回写缓存。
// 收到空分片哨兵（流中途出错）时返回错误且不回写。
func (s *Service) StreamToBytes(ctx context.Context, text string, params types.SynthesisParams) ([]byte, error) {
	if text == "" {
		return nil, types.NewValidationError("text is required")
	}
	params = s.fillParams(params)

	chunks, err := s.provider.SynthesizeStream(ctx, &speech.TTSRequest{Text: text, Params: params})
	if err != nil {
		return nil, err
	}

	buf := pool.AudioBufferPool.Get()
	defer pool.AudioBufferPool.Put(buf)
	for chunk := range chunks {
		if len(chunk.Data) == 0 && chunk.IsFinal {
			return nil, types.NewError(types.ErrUpstreamError, "synthesis stream terminated early").
				WithProvider(s.provider.Name()).
				WithRetryable(true)
		}
		buf.Write(chunk.Data)
	}
	if buf.Len() == 0 {
		return nil, types.NewError(types.ErrUpstreamError, "synthesis stream produced no audio").
			WithProvider(s.provider.Name())
	}
	audio := make([]byte, buf.Len())
	copy(audio, buf.Bytes())

	s.writeCache(ctx, cache.SynthesisKey(text, params), audio)
	return audio, nil
}

// SynthesizeBatch 以有界并发合成一批文本。
// 单项失败产出空字节，返回值与输入一一对应。
func (s *Service) SynthesizeBatch(ctx context.Context, texts []string, params types.SynthesisParams) [][]byte {
	results := make([][]byte, len(texts))
	sem := semaphore.NewWeighted(s.batchLimit)

	for i, text := range texts {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		go func(idx int, text string) {
			defer sem.Release(1)
			audio, err := s.TextToSpeech(ctx, text, params, true)
			if err != nil {
				s.logger.Warn("批量合成单项失败", zap.Int("index", idx), zap.Error(err))
				return
			}
			results[idx] = audio
		}(i, text)
	}

	_ = sem.Acquire(context.Background(), s.batchLimit)
	return results
}

// CloneVoice 注册自定义声音，返回供应商侧声音 ID。
// 长耗时调用，不在请求延迟关键路径上，不缓存。
func (s *Service) CloneVoice(ctx context.Context, name string, samples [][]byte) (string, error) {
	if len(samples) == 0 {
		return "", types.NewValidationError("at least one audio sample is required")
	}
	return s.provider.CloneVoice(ctx, &speech.VoiceCloneRequest{
		Name:    name,
		Samples: samples,
	})
}

// ListVoices 返回可用声音。
func (s *Service) ListVoices(ctx context.Context) ([]speech.Voice, error) {
	return s.provider.ListVoices(ctx)
}

func (s *Service) callProvider(ctx context.Context, text string, params types.SynthesisParams) ([]byte, error) {
	start := time.Now()
	result, err := s.retryer.DoWithResult(ctx, func() (any, error) {
		callCtx := ctx
		if s.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
			defer cancel()
		}
		return s.provider.Synthesize(callCtx, &speech.TTSRequest{Text: text, Params: params})
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.RecordProviderRequest(s.provider.Name(), "synthesize", status, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return result.(*speech.TTSResponse).AudioData, nil
}

func (s *Service) writeCache(ctx context.Context, key string, audio []byte) {
	if s.cache == nil || len(audio) == 0 {
		return
	}
	if err := s.cache.SetBytes(ctx, key, audio, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("合成缓存写入失败", zap.Error(err))
	}
}

func (s *Service) recordCacheHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit("tts")
	}
}

func (s *Service) recordCacheMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss("tts")
	}
}
