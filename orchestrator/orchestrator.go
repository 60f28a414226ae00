package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/enhance"
	"github.com/BaSui01/voiceflow/internal/metrics"
	"github.com/BaSui01/voiceflow/transcribe"
	"github.com/BaSui01/voiceflow/types"
)

// 子任务名称，用于 Degraded 记录与指标标签。
const (
	subtaskTranscription = "transcription"
	subtaskQuality       = "quality"
	subtaskBiometrics    = "biometrics"
	subtaskEnhancement   = "enhancement"
)

// deadlineGuardBand 截止时间护栏系数：为序列化 / 传输留出余量。
const deadlineGuardBand = 0.8

// ===== 🔌 协作者接口 =====

// Transcriber 必选的转写能力。
type Transcriber interface {
	Transcribe(ctx context.Context, audio types.AudioBuffer, opts transcribe.Options) (string, error)
}

// Synthesizer 语音合成能力。
type Synthesizer interface {
	StreamToBytes(ctx context.Context, text string, params types.SynthesisParams) ([]byte, error)
	TextToSpeechStream(ctx context.Context, text string, params types.SynthesisParams) (<-chan types.AudioChunk, error)
}

// QualityScorer 音质评估能力。
type QualityScorer interface {
	Assess(audio types.AudioBuffer, expectedDuration time.Duration, assessContext string) *types.QualityReport
}

// SpeakerIdentifier 声纹识别能力。
type SpeakerIdentifier interface {
	Identify(ctx context.Context, audio types.AudioBuffer, speakerID, tenantID string, updateProfile bool) (*types.MatchResult, error)
}

// Enhancer 音频增强能力。
type Enhancer interface {
	Enhance(ctx context.Context, audio types.AudioBuffer, stages ...enhance.StageName) (*enhance.Result, error)
}

// ===== 🎛️ 编排器 =====

// Orchestrator 截止时间约束的语音处理编排器。
type Orchestrator struct {
	cfg         config.PipelineConfig
	transcriber Transcriber
	synthesizer Synthesizer
	scorer      QualityScorer
	identifier  SpeakerIdentifier
	enhancer    Enhancer
	metrics     *metrics.Collector
	tracer      trace.Tracer
	logger      *zap.Logger
	window      *rollingWindow
}

// New 创建编排器。可选协作者传 nil 时对应子任务永不派发；
// transcriber 与 synthesizer 必须提供。
func New(
	cfg config.PipelineConfig,
	transcriber Transcriber,
	synthesizer Synthesizer,
	scorer QualityScorer,
	identifier SpeakerIdentifier,
	enhancer Enhancer,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:         cfg,
		transcriber: transcriber,
		synthesizer: synthesizer,
		scorer:      scorer,
		identifier:  identifier,
		enhancer:    enhancer,
		metrics:     collector,
		tracer:      otel.Tracer("voiceflow/orchestrator"),
		logger:      logger.With(zap.String("component", "orchestrator")),
		window:      &rollingWindow{},
	}
}

// deadline 返回编排截止时间：target_response_time_ms × 0.8。
func (o *Orchestrator) deadline() time.Duration {
	target := o.cfg.TargetResponseTimeMS
	if target <= 0 {
		target = 180
	}
	return time.Duration(float64(target)*deadlineGuardBand) * time.Millisecond
}

// subtaskOutcome 单个子任务的产出，经各自的结果通道送回等待循环。
type subtaskOutcome struct {
	name       string
	duration   time.Duration
	transcript string
	quality    *types.QualityReport
	match      *types.MatchResult
	enhanced   *enhance.Result
	err        error
}

// ProcessVoiceInput 处理一次语音输入。
// 调用方总是收到 ProcessingResult；只有必选的转写缺失或失败时
// Success 为 false。可选子任务超时 / 失败记入 Degraded。
func (o *Orchestrator) ProcessVoiceInput(ctx context.Context, audio types.AudioBuffer, userID, tenantID string) *types.ProcessingResult {
	start := time.Now()
	result := &types.ProcessingResult{
		ID:        uuid.NewString(),
		CreatedAt: start,
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.process_voice_input",
		trace.WithAttributes(
			attribute.String("request.id", result.ID),
			attribute.Int("audio.bytes", len(audio.Data)),
		))
	defer span.End()

	// 派发前校验，带具体原因拒绝
	if err := audio.Validate(); err != nil {
		result.Error = err.Error()
		result.Timing.Total = time.Since(start)
		o.finish(result, 0, start)
		return result
	}

	subCtx, cancel := context.WithTimeout(ctx, o.deadline())
	defer cancel()

	outcomes := make(chan subtaskOutcome, 4)
	var dispatched []string

	// 必选：转写
	dispatched = append(dispatched, subtaskTranscription)
	go o.runSubtask(subCtx, outcomes, subtaskTranscription, func() subtaskOutcome {
		text, err := o.transcriber.Transcribe(subCtx, audio, transcribe.Options{})
		return subtaskOutcome{transcript: text, err: err}
	})

	// 可选：音质评估
	if o.cfg.QualityAssessment && o.scorer != nil {
		dispatched = append(dispatched, subtaskQuality)
		go o.runSubtask(subCtx, outcomes, subtaskQuality, func() subtaskOutcome {
			return subtaskOutcome{quality: o.scorer.Assess(audio, 0, "")}
		})
	}

	// 可选：声纹识别
	if o.cfg.Biometrics && o.identifier != nil && userID != "" {
		dispatched = append(dispatched, subtaskBiometrics)
		go o.runSubtask(subCtx, outcomes, subtaskBiometrics, func() subtaskOutcome {
			match, err := o.identifier.Identify(subCtx, audio, userID, tenantID, true)
			return subtaskOutcome{match: match, err: err}
		})
	}

	// 可选：音频增强
	if o.cfg.NoiseReduction && o.enhancer != nil {
		dispatched = append(dispatched, subtaskEnhancement)
		go o.runSubtask(subCtx, outcomes, subtaskEnhancement, func() subtaskOutcome {
			enhanced, err := o.enhancer.Enhance(subCtx, audio)
			return subtaskOutcome{enhanced: enhanced, err: err}
		})
	}

	arrived := o.collect(subCtx, outcomes, len(dispatched), result)

	// 截止时间到：取消在途子任务并记录缺省
	cancel()
	o.markMissing(dispatched, arrived, result)

	if result.Transcript == "" && result.Error == "" {
		if !arrived[subtaskTranscription] {
			result.Error = types.NewSubtaskTimeoutError(subtaskTranscription).Error()
		}
	}
	result.Success = result.Error == ""

	result.Timing.Total = time.Since(start)
	span.SetAttributes(
		attribute.Bool("result.success", result.Success),
		attribute.Int64("result.total_ms", result.Timing.Total.Milliseconds()),
	)

	quality := 0.0
	if result.Quality != nil {
		quality = result.Quality.Overall
	}
	o.finish(result, quality, start)
	return result
}

// runSubtask 执行子任务并把产出送回等待循环。
func (o *Orchestrator) runSubtask(ctx context.Context, outcomes chan<- subtaskOutcome, name string, fn func() subtaskOutcome) {
	start := time.Now()
	outcome := fn()
	outcome.name = name
	outcome.duration = time.Since(start)

	select {
	case outcomes <- outcome:
	case <-ctx.Done():
	}
}

// collect 等待全部已派发子任务，直到截止时间。
// 返回每个子任务是否按时到达。
func (o *Orchestrator) collect(ctx context.Context, outcomes <-chan subtaskOutcome, dispatched int, result *types.ProcessingResult) map[string]bool {
	arrived := map[string]bool{}

	for received := 0; received < dispatched; received++ {
		select {
		case outcome := <-outcomes:
			arrived[outcome.name] = true
			o.apply(outcome, result)
		case <-ctx.Done():
			return arrived
		}
	}
	return arrived
}

// apply 把单个子任务产出合并进结果。
// 可选子任务失败只记 Degraded；转写失败设置请求级错误。
func (o *Orchestrator) apply(outcome subtaskOutcome, result *types.ProcessingResult) {
	if o.metrics != nil {
		o.metrics.RecordSubtask(outcome.name, outcome.duration)
	}

	if outcome.err != nil {
		if outcome.name == subtaskTranscription {
			result.Error = outcome.err.Error()
		} else {
			o.logger.Warn("可选子任务失败，结果降级",
				zap.String("subtask", outcome.name),
				zap.Error(outcome.err))
			result.Degraded = append(result.Degraded, outcome.name)
		}
		return
	}

	switch outcome.name {
	case subtaskTranscription:
		result.Transcript = outcome.transcript
		result.Timing.Transcription = outcome.duration
	case subtaskQuality:
		result.Quality = outcome.quality
		result.Timing.Quality = outcome.duration
		if o.metrics != nil && outcome.quality != nil {
			o.metrics.RecordQualityScore(string(outcome.quality.Level), outcome.quality.Overall)
		}
	case subtaskBiometrics:
		result.Timing.Biometrics = outcome.duration
		if outcome.match != nil {
			result.SpeakerID = outcome.match.SpeakerID
			result.Confidence = outcome.match.Confidence
			result.IsNewSpeaker = outcome.match.IsNewSpeaker
			if o.metrics != nil {
				o.metrics.RecordBiometricMatch(matchOutcome(outcome.match))
			}
		}
	case subtaskEnhancement:
		result.Timing.Enhancement = outcome.duration
		if outcome.enhanced != nil {
			result.AudioData = outcome.enhanced.Audio.Data
		}
	}
}

// markMissing 把未按时到达的子任务记入 Degraded 与超时指标。
func (o *Orchestrator) markMissing(dispatched []string, arrived map[string]bool, result *types.ProcessingResult) {
	for _, name := range dispatched {
		if arrived[name] {
			continue
		}
		if o.metrics != nil {
			o.metrics.RecordSubtaskTimeout(name)
		}
		if name != subtaskTranscription && !contains(result.Degraded, name) {
			result.Degraded = append(result.Degraded, name)
		}
	}
}

// finish 统一的请求收尾：指标 + 健康窗口。
func (o *Orchestrator) finish(result *types.ProcessingResult, quality float64, start time.Time) {
	status := "success"
	if !result.Success {
		status = "error"
	}
	if o.metrics != nil {
		o.metrics.RecordPipelineRequest("process_voice_input", status, time.Since(start))
	}
	o.window.Append(result.Timing.Total, quality, result.Success)
}

// GenerateVoiceResponse 把响应文本合成为完整音频。
// 走流式转字节路径以最小化供应商首字节时间，完整结束后回写缓存。
func (o *Orchestrator) GenerateVoiceResponse(ctx context.Context, text string, params types.SynthesisParams) *types.ProcessingResult {
	start := time.Now()
	result := &types.ProcessingResult{
		ID:        uuid.NewString(),
		CreatedAt: start,
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.generate_voice_response",
		trace.WithAttributes(attribute.Int("text.chars", len(text))))
	defer span.End()

	audio, err := o.synthesizer.StreamToBytes(ctx, text, params)
	result.Timing.Synthesis = time.Since(start)
	result.Timing.Total = result.Timing.Synthesis

	if err != nil {
		result.Error = err.Error()
		o.logger.Warn("语音响应合成失败", zap.Error(err))
	} else {
		result.AudioData = audio
		result.Success = true
	}

	status := "success"
	if !result.Success {
		status = "error"
	}
	if o.metrics != nil {
		o.metrics.RecordPipelineRequest("generate_voice_response", status, result.Timing.Total)
	}
	return result
}

// StreamVoiceResponse 把响应文本合成为惰性、有限、不可重启的分片流。
// 供应商打开流失败时产出单个空分片哨兵后关闭，而非返回错误，
// 下游消费者总能观察到确定的终止信号。
func (o *Orchestrator) StreamVoiceResponse(ctx context.Context, text string, params types.SynthesisParams) <-chan types.AudioChunk {
	chunks, err := o.synthesizer.TextToSpeechStream(ctx, text, params)
	if err != nil {
		o.logger.Warn("打开合成流失败", zap.Error(err))
		out := make(chan types.AudioChunk, 1)
		out <- types.AudioChunk{IsFinal: true, Timestamp: time.Now()}
		close(out)
		return out
	}
	return chunks
}

// Health 报告健康窗口统计与当前配置的截止时间。
func (o *Orchestrator) Health() HealthReport {
	return HealthReport{
		Window:   o.window.Snapshot(),
		Deadline: o.deadline(),
	}
}

// HealthReport 编排器健康报告。
type HealthReport struct {
	Window   WindowStats   `json:"window"`
	Deadline time.Duration `json:"deadline"`
}

func matchOutcome(match *types.MatchResult) string {
	switch {
	case match.IsNewSpeaker:
		return "new_speaker"
	case match.IsMatch:
		return "match"
	default:
		return "rejected"
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
