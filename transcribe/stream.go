package transcribe

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/voiceflow/internal/pool"
	"github.com/BaSui01/voiceflow/types"
)

// Partial 是流式转写产出的一段部分转写。
type Partial struct {
	// Text 本段转写文本
	Text string `json:"text"`
	// Segment 分段序号（从 0 开始）
	Segment int `json:"segment"`
	// Final 是否为流结束时的冲刷段
	Final bool `json:"final"`
}

// TranscribeStream 流式转写：把输入分片累积到最小分段大小后逐段转写，
// 流结束时冲刷剩余字节。返回惰性的部分转写序列，
// 输入通道关闭且冲刷完成后关闭输出通道。
//
// 转写失败的分段记录日志后跳过，不中断后续分段。
func (s *Service) TranscribeStream(ctx context.Context, chunks <-chan []byte, opts Options) <-chan Partial {
	out := make(chan Partial, 4)

	minSegment := s.cfg.MinSegmentBytes
	if minSegment <= 0 {
		minSegment = 32000
	}

	go func() {
		defer close(out)

		buf := pool.AudioBufferPool.Get()
		defer pool.AudioBufferPool.Put(buf)
		segment := 0

		emit := func(final bool) {
			if buf.Len() < types.MinAudioBytes {
				// 不足以构成有效音频的尾料直接丢弃
				buf.Reset()
				return
			}
			data := make([]byte, buf.Len())
			copy(data, buf.Bytes())
			buf.Reset()

			text, err := s.Transcribe(ctx, types.NewAudioBuffer(data, types.FormatPCM), opts)
			if err != nil {
				s.logger.Warn("流式转写分段失败",
					zap.Int("segment", segment),
					zap.Error(err))
				segment++
				return
			}

			select {
			case out <- Partial{Text: text, Segment: segment, Final: final}:
			case <-ctx.Done():
			}
			segment++
		}

		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					// 流结束：冲刷剩余字节
					emit(true)
					return
				}
				buf.Write(chunk)
				if buf.Len() >= minSegment {
					emit(false)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
