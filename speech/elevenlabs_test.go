package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/voiceflow/types"
)

func newElevenLabsTestServer(t *testing.T, handler http.HandlerFunc) *ElevenLabsProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultElevenLabsConfig()
	cfg.APIKey = "el-key"
	cfg.BaseURL = srv.URL
	return NewElevenLabsProvider(cfg)
}

func TestElevenLabsSynthesize(t *testing.T) {
	audio := []byte{0xFF, 0xF3, 0x01, 0x02, 0x03}

	provider := newElevenLabsTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-42", r.URL.Path)
		assert.Equal(t, "el-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))

		var body elevenLabsTTSRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "你好，世界", body.Text)
		assert.Equal(t, "eleven_multilingual_v2", body.ModelID)
		require.NotNil(t, body.VoiceSettings)
		assert.Equal(t, 0.6, body.VoiceSettings.Stability)

		_, _ = w.Write(audio)
	})

	resp, err := provider.Synthesize(context.Background(), &TTSRequest{
		Text: "你好，世界",
		Params: types.SynthesisParams{
			VoiceID:   "voice-42",
			Stability: 0.6,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "elevenlabs", resp.Provider)
	assert.Equal(t, audio, resp.AudioData)
	assert.Equal(t, "mp3_44100_128", resp.Format)
	assert.Equal(t, len("你好，世界"), resp.CharCount)
}

func TestElevenLabsSynthesizeDefaultVoice(t *testing.T) {
	provider := newElevenLabsTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// 未指定 VoiceID 时回退到配置默认声音
		assert.True(t, strings.HasSuffix(r.URL.Path, "/21m00Tcm4TlvDq8ikWAM"), r.URL.Path)

		var body elevenLabsTTSRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Nil(t, body.VoiceSettings)

		_, _ = w.Write([]byte("audio"))
	})

	_, err := provider.Synthesize(context.Background(), &TTSRequest{Text: "hello"})
	require.NoError(t, err)
}

func TestElevenLabsErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, types.ErrRateLimited, true},
		{"unauthorized", http.StatusUnauthorized, types.ErrAuthentication, false},
		{"server error", http.StatusServiceUnavailable, types.ErrUpstreamError, true},
		{"unprocessable", http.StatusUnprocessableEntity, types.ErrInvalidRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newElevenLabsTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"detail":"nope"}`, tt.status)
			})

			_, err := provider.Synthesize(context.Background(), &TTSRequest{Text: "hi"})
			require.Error(t, err)
			assert.True(t, types.IsErrorCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, tt.retryable, types.IsRetryable(err))
		})
	}
}

func TestElevenLabsCloneVoice(t *testing.T) {
	provider := newElevenLabsTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices/add", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "narrator", r.FormValue("name"))
		assert.Len(t, r.MultipartForm.File["files"], 3)

		_ = json.NewEncoder(w).Encode(map[string]string{"voice_id": "cloned-7"})
	})

	voiceID, err := provider.CloneVoice(context.Background(), &VoiceCloneRequest{
		Name:    "narrator",
		Samples: [][]byte{[]byte("a"), []byte("b"), []byte("c")},
	})
	require.NoError(t, err)
	assert.Equal(t, "cloned-7", voiceID)
}

func TestElevenLabsCloneVoiceRequiresSamples(t *testing.T) {
	provider := NewElevenLabsProvider(ElevenLabsConfig{APIKey: "k"})

	_, err := provider.CloneVoice(context.Background(), &VoiceCloneRequest{Name: "x"})
	assert.Error(t, err)
}

func TestElevenLabsListVoices(t *testing.T) {
	provider := newElevenLabsTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]any{
				{"voice_id": "v1", "name": "Rachel", "labels": map[string]string{"gender": "female"}},
				{"voice_id": "v2", "name": "Adam", "labels": map[string]string{"gender": "male"}},
			},
		})
	})

	voices, err := provider.ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "v1", voices[0].ID)
	assert.Equal(t, "female", voices[0].Gender)
}

// 流式测试：服务端按协议返回若干 base64 音频帧，客户端应产出同序分片。
func TestElevenLabsSynthesizeStream(t *testing.T) {
	frames := [][]byte{[]byte("chunk-0"), []byte("chunk-1"), []byte("chunk-2")}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := r.Context()

		// 消费初始帧与 flush 帧
		var init streamInitMessage
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &init))
		assert.Equal(t, "流式合成测试", init.Text)

		_, _, err = conn.Read(ctx)
		require.NoError(t, err)

		for i, f := range frames {
			msg := streamAudioMessage{
				Audio:   base64.StdEncoding.EncodeToString(f),
				IsFinal: i == len(frames)-1,
			}
			payload, _ := json.Marshal(msg)
			require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
		}
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultElevenLabsConfig()
	cfg.APIKey = "el-key"
	cfg.BaseURL = srv.URL
	provider := NewElevenLabsProvider(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chunks, err := provider.SynthesizeStream(ctx, &TTSRequest{Text: "流式合成测试"})
	require.NoError(t, err)

	var got [][]byte
	var sawFinal bool
	for chunk := range chunks {
		got = append(got, chunk.Data)
		if chunk.IsFinal {
			sawFinal = true
		}
	}

	require.Len(t, got, len(frames))
	for i := range frames {
		assert.Equal(t, frames[i], got[i])
	}
	assert.True(t, sawFinal)
}

// 流中途出错时，通道应收到一个空分片哨兵后关闭。
func TestElevenLabsSynthesizeStreamErrorSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)

		ctx := r.Context()
		_, _, _ = conn.Read(ctx)
		_, _, _ = conn.Read(ctx)

		// 服务端直接异常断开
		conn.Close(websocket.StatusInternalError, "backend failure")
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultElevenLabsConfig()
	cfg.APIKey = "el-key"
	cfg.BaseURL = srv.URL
	provider := NewElevenLabsProvider(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chunks, err := provider.SynthesizeStream(ctx, &TTSRequest{Text: "hi"})
	require.NoError(t, err)

	var last types.AudioChunk
	count := 0
	for chunk := range chunks {
		last = chunk
		count++
	}

	require.Equal(t, 1, count)
	assert.Empty(t, last.Data)
	assert.True(t, last.IsFinal)
}
