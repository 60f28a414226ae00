package enhance

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/voiceflow/config"
	"github.com/BaSui01/voiceflow/types"
)

// defaultBatchConcurrency 批量增强的默认并发度，与其他服务的批处理保持一致。
const defaultBatchConcurrency = 5

// Properties 描述增强产出音频的粗粒度属性。
type Properties struct {
	Format     types.AudioFormat `json:"format"`
	SampleRate int               `json:"sample_rate"`
	Channels   int               `json:"channels"`
	BitDepth   int               `json:"bit_depth"`
	Duration   time.Duration     `json:"duration"`
	SizeBytes  int               `json:"size_bytes"`
}

// Result 是一次增强调用的完整产出。
type Result struct {
	Audio         types.AudioBuffer `json:"-"`
	AppliedStages []StageName       `json:"applied_stages"`
	Properties    Properties        `json:"properties"`
}

// Pipeline 按预设组合并运行增强阶段。
// 单个阶段失败不会中止管线：运行器把未修改的音频传给下一阶段。
type Pipeline struct {
	cfg        config.EnhanceConfig
	preset     Preset
	logger     *zap.Logger
	batchLimit int64
}

// NewPipeline 创建增强管线。
func NewPipeline(cfg config.EnhanceConfig, preset Preset, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		preset:     preset,
		logger:     logger.With(zap.String("component", "enhance")),
		batchLimit: defaultBatchConcurrency,
	}
}

// WithBatchConcurrency 设置批量增强的并发上限。非正值保持默认。
func (p *Pipeline) WithBatchConcurrency(n int) *Pipeline {
	if n > 0 {
		p.batchLimit = int64(n)
	}
	return p
}

// Enhance 按指定阶段处理音频。stages 为空时从预设解析。
// 阶段按固定全局顺序执行；失败阶段被跳过（记录日志），
// 不出现在 AppliedStages 中，其输入原样进入下一阶段。
func (p *Pipeline) Enhance(ctx context.Context, audio types.AudioBuffer, stages ...StageName) (*Result, error) {
	if err := audio.Validate(); err != nil {
		return nil, err
	}

	selected := stages
	if len(selected) == 0 {
		selected = StagesForPreset(p.preset)
	}
	wanted := make(map[StageName]bool, len(selected))
	for _, name := range selected {
		wanted[name] = true
	}

	current := audio
	applied := make([]StageName, 0, len(selected))

	for _, name := range stageOrder {
		if !wanted[name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stage, err := newStage(name, p.cfg)
		if err != nil {
			p.logger.Warn("跳过未知增强阶段", zap.String("stage", string(name)), zap.Error(err))
			continue
		}

		// 统一兜底：失败阶段的输入原样进入下一阶段
		processed, err := stage.Apply(current)
		if err != nil {
			p.logger.Warn("增强阶段失败，保留原始音频",
				zap.String("stage", string(name)),
				zap.Error(err))
			continue
		}
		current = processed
		applied = append(applied, name)
	}

	return &Result{
		Audio:         current,
		AppliedStages: applied,
		Properties: Properties{
			Format:     current.Format,
			SampleRate: current.SampleRate,
			Channels:   current.Channels,
			BitDepth:   current.BitDepth,
			Duration:   current.InferredDuration(),
			SizeBytes:  len(current.Data),
		},
	}, nil
}

// EnhanceBatch 以有界并发处理一批音频。
// 单项失败（校验不通过等）产出该项的原始音频，不影响其他项。
func (p *Pipeline) EnhanceBatch(ctx context.Context, audios []types.AudioBuffer, stages ...StageName) []*Result {
	results := make([]*Result, len(audios))
	sem := semaphore.NewWeighted(p.batchLimit)

	for i, audio := range audios {
		if err := sem.Acquire(ctx, 1); err != nil {
			// 上下文取消：剩余项目全部原样返回
			for j := i; j < len(audios); j++ {
				results[j] = passthroughResult(audios[j])
			}
			break
		}
		go func(idx int, audio types.AudioBuffer) {
			defer sem.Release(1)
			res, err := p.Enhance(ctx, audio, stages...)
			if err != nil {
				p.logger.Warn("批量增强单项失败", zap.Int("index", idx), zap.Error(err))
				res = passthroughResult(audio)
			}
			results[idx] = res
		}(i, audio)
	}

	// 等待在途任务全部完成
	_ = sem.Acquire(context.Background(), p.batchLimit)
	return results
}

func passthroughResult(audio types.AudioBuffer) *Result {
	return &Result{
		Audio:         audio,
		AppliedStages: nil,
		Properties: Properties{
			Format:     audio.Format,
			SampleRate: audio.SampleRate,
			Channels:   audio.Channels,
			BitDepth:   audio.BitDepth,
			Duration:   audio.InferredDuration(),
			SizeBytes:  len(audio.Data),
		},
	}
}
