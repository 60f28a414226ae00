package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/BaSui01/voiceflow/types"
)

// 流式合成的 WebSocket 帧结构。
// ElevenLabs stream-input 协议：客户端先发送带 voice_settings 的文本帧，
// 再发送空文本帧标记输入结束；服务端持续返回 base64 音频帧直到 isFinal。
type streamInitMessage struct {
	Text          string `json:"text"`
	VoiceSettings *struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
		Style           float64 `json:"style,omitempty"`
	} `json:"voice_settings,omitempty"`
}

type streamAudioMessage struct {
	Audio   string `json:"audio,omitempty"` // base64
	IsFinal bool   `json:"isFinal,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SynthesizeStream 打开供应商 WebSocket 流, 边产生边转发音频分片。
// 返回的通道在流结束或出错后关闭；最后一个分片 IsFinal 为 true。
// 流是惰性、有限、不可重启的。
func (p *ElevenLabsProvider) SynthesizeStream(ctx context.Context, req *TTSRequest) (<-chan types.AudioChunk, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	model := req.Params.Model
	if model == "" {
		model = p.cfg.Model
	}
	voiceID := req.Params.VoiceID
	if voiceID == "" {
		voiceID = p.cfg.VoiceID
	}

	wsBase := strings.TrimRight(p.cfg.BaseURL, "/")
	wsBase = strings.Replace(wsBase, "https://", "wss://", 1)
	wsBase = strings.Replace(wsBase, "http://", "ws://", 1)
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream-input?model_id=%s", wsBase, voiceID, model)

	header := http.Header{}
	header.Set("xi-api-key", p.cfg.APIKey)

	conn, _, err := websocket.Dial(ctx, endpoint, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, mapTransportError(p.Name(), err)
	}

	// 发送初始文本帧
	init := streamInitMessage{Text: req.Text}
	if req.Params.Stability > 0 || req.Params.SimilarityBoost > 0 {
		init.VoiceSettings = &struct {
			Stability       float64 `json:"stability"`
			SimilarityBoost float64 `json:"similarity_boost"`
			Style           float64 `json:"style,omitempty"`
		}{
			Stability:       req.Params.Stability,
			SimilarityBoost: req.Params.SimilarityBoost,
			Style:           req.Params.Style,
		}
	}
	if err := writeJSON(ctx, conn, init); err != nil {
		conn.Close(websocket.StatusInternalError, "init failed")
		return nil, mapTransportError(p.Name(), err)
	}

	// 空文本帧标记输入结束
	if err := writeJSON(ctx, conn, streamInitMessage{Text: ""}); err != nil {
		conn.Close(websocket.StatusInternalError, "flush failed")
		return nil, mapTransportError(p.Name(), err)
	}

	out := make(chan types.AudioChunk, 16)

	go func() {
		defer close(out)
		defer conn.Close(websocket.StatusNormalClosure, "")

		index := 0
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				// 连接中断：发送空分片作为带内错误哨兵
				sendSentinel(ctx, out, index)
				return
			}

			var msg streamAudioMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				sendSentinel(ctx, out, index)
				return
			}
			if msg.Error != "" {
				sendSentinel(ctx, out, index)
				return
			}

			if msg.Audio != "" {
				audio, err := base64.StdEncoding.DecodeString(msg.Audio)
				if err != nil {
					sendSentinel(ctx, out, index)
					return
				}
				chunk := types.AudioChunk{
					Data:      audio,
					Index:     index,
					IsFinal:   msg.IsFinal,
					Timestamp: time.Now(),
				}
				index++
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}

			if msg.IsFinal {
				return
			}
		}
	}()

	return out, nil
}

// sendSentinel 发送空分片哨兵，消费者据此观察到确定的终止信号。
func sendSentinel(ctx context.Context, out chan<- types.AudioChunk, index int) {
	select {
	case out <- types.AudioChunk{Index: index, IsFinal: true, Timestamp: time.Now()}:
	case <-ctx.Done():
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
