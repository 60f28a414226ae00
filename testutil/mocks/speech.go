// Mock STT / TTS 供应商测试实现。
//
// 支持固定响应、流式输出、瞬时错误与延迟注入场景。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/voiceflow/speech"
	"github.com/BaSui01/voiceflow/types"
)

// --- MockSTTProvider ---

// MockSTTProvider 是 speech.STTProvider 的模拟实现。
type MockSTTProvider struct {
	mu sync.Mutex

	text  string
	err   error
	delay time.Duration

	// failFirst 次调用返回 failErr，之后恢复成功
	failFirst int
	failErr   error

	callCount int
	requests  []*speech.STTRequest
}

// NewMockSTTProvider 创建新的 MockSTTProvider。
func NewMockSTTProvider() *MockSTTProvider {
	return &MockSTTProvider{text: "mock transcript"}
}

// WithText 设置固定转写结果。
func (m *MockSTTProvider) WithText(text string) *MockSTTProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return m
}

// WithError 设置固定错误。
func (m *MockSTTProvider) WithError(err error) *MockSTTProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailures 让前 n 次调用返回 err，之后恢复成功。
func (m *MockSTTProvider) WithFailures(n int, err error) *MockSTTProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFirst = n
	m.failErr = err
	return m
}

// WithDelay 为每次调用注入延迟。
func (m *MockSTTProvider) WithDelay(delay time.Duration) *MockSTTProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
	return m
}

// CallCount 返回调用次数。
func (m *MockSTTProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests 返回记录的请求。
func (m *MockSTTProvider) Requests() []*speech.STTRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*speech.STTRequest(nil), m.requests...)
}

func (m *MockSTTProvider) Name() string { return "mock-stt" }

func (m *MockSTTProvider) SupportedFormats() []string {
	return []string{"wav", "pcm", "mp3"}
}

func (m *MockSTTProvider) Transcribe(ctx context.Context, req *speech.STTRequest) (*speech.STTResponse, error) {
	m.mu.Lock()
	m.callCount++
	count := m.callCount
	m.requests = append(m.requests, req)
	delay := m.delay
	err := m.err
	if err == nil && count <= m.failFirst {
		err = m.failErr
	}
	text := m.text
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &speech.STTResponse{
		Provider:  m.Name(),
		Text:      text,
		CreatedAt: time.Now(),
	}, nil
}

// --- MockTTSProvider ---

// MockTTSProvider 是 speech.TTSProvider 的模拟实现。
type MockTTSProvider struct {
	mu sync.Mutex

	audio        []byte
	streamChunks [][]byte
	voiceID      string
	err          error
	delay        time.Duration

	failFirst int
	failErr   error

	callCount int
	requests  []*speech.TTSRequest
}

// NewMockTTSProvider 创建新的 MockTTSProvider。
func NewMockTTSProvider() *MockTTSProvider {
	return &MockTTSProvider{
		audio:   []byte("mock audio"),
		voiceID: "mock-voice",
	}
}

// WithAudio 设置固定合成结果。
func (m *MockTTSProvider) WithAudio(audio []byte) *MockTTSProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audio = audio
	return m
}

// WithStreamChunks 设置流式分片序列。
func (m *MockTTSProvider) WithStreamChunks(chunks [][]byte) *MockTTSProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamChunks = chunks
	return m
}

// WithVoiceID 设置 CloneVoice 返回的声音 ID。
func (m *MockTTSProvider) WithVoiceID(id string) *MockTTSProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voiceID = id
	return m
}

// WithError 设置固定错误。
func (m *MockTTSProvider) WithError(err error) *MockTTSProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailures 让前 n 次调用返回 err，之后恢复成功。
func (m *MockTTSProvider) WithFailures(n int, err error) *MockTTSProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFirst = n
	m.failErr = err
	return m
}

// WithDelay 为每次调用注入延迟。
func (m *MockTTSProvider) WithDelay(delay time.Duration) *MockTTSProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = delay
	return m
}

// CallCount 返回调用次数（含流式与克隆调用）。
func (m *MockTTSProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests 返回记录的合成请求。
func (m *MockTTSProvider) Requests() []*speech.TTSRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*speech.TTSRequest(nil), m.requests...)
}

func (m *MockTTSProvider) Name() string { return "mock-tts" }

func (m *MockTTSProvider) begin(req *speech.TTSRequest) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if req != nil {
		m.requests = append(m.requests, req)
	}
	if m.err != nil {
		return m.delay, m.err
	}
	if m.callCount <= m.failFirst {
		return m.delay, m.failErr
	}
	return m.delay, nil
}

func (m *MockTTSProvider) Synthesize(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	delay, err := m.begin(req)
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	audio := append([]byte(nil), m.audio...)
	m.mu.Unlock()

	return &speech.TTSResponse{
		Provider:  m.Name(),
		AudioData: audio,
		Format:    "mp3_44100_128",
		CharCount: len(req.Text),
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockTTSProvider) SynthesizeStream(ctx context.Context, req *speech.TTSRequest) (<-chan types.AudioChunk, error) {
	_, err := m.begin(req)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	chunks := m.streamChunks
	if len(chunks) == 0 {
		chunks = [][]byte{m.audio}
	}
	m.mu.Unlock()

	out := make(chan types.AudioChunk, len(chunks))
	go func() {
		defer close(out)
		for i, data := range chunks {
			chunk := types.AudioChunk{
				Data:      append([]byte(nil), data...),
				Index:     i,
				IsFinal:   i == len(chunks)-1,
				Timestamp: time.Now(),
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *MockTTSProvider) CloneVoice(ctx context.Context, req *speech.VoiceCloneRequest) (string, error) {
	_, err := m.begin(nil)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.voiceID, nil
}

func (m *MockTTSProvider) ListVoices(ctx context.Context) ([]speech.Voice, error) {
	return []speech.Voice{{ID: "mock-voice", Name: "Mock Voice"}}, nil
}
