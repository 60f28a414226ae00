package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/BaSui01/voiceflow/internal/tlsutil"
)

// ElevenLabsProvider 使用 ElevenLabs API 执行 TTS.
type ElevenLabsProvider struct {
	cfg     ElevenLabsConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewElevenLabsProvider 创建新的 ElevenLabs TTS 供应商.
func NewElevenLabsProvider(cfg ElevenLabsConfig) *ElevenLabsProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.Model == "" {
		cfg.Model = "eleven_multilingual_v2"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "mp3_44100_128"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), int(cfg.RateLimitRPS)+1)
	}

	return &ElevenLabsProvider{
		cfg:     cfg,
		client:  tlsutil.SecureHTTPClient(timeout),
		limiter: limiter,
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

type elevenLabsTTSRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings *struct {
		Stability       float64 `json:"stability,omitempty"`
		SimilarityBoost float64 `json:"similarity_boost,omitempty"`
		Style           float64 `json:"style,omitempty"`
	} `json:"voice_settings,omitempty"`
}

func (p *ElevenLabsProvider) buildRequestBody(req *TTSRequest) ([]byte, string, string) {
	model := req.Params.Model
	if model == "" {
		model = p.cfg.Model
	}
	voiceID := req.Params.VoiceID
	if voiceID == "" {
		voiceID = p.cfg.VoiceID
	}

	body := elevenLabsTTSRequest{
		Text:    req.Text,
		ModelID: model,
	}
	if req.Params.Stability > 0 || req.Params.SimilarityBoost > 0 || req.Params.Style > 0 {
		body.VoiceSettings = &struct {
			Stability       float64 `json:"stability,omitempty"`
			SimilarityBoost float64 `json:"similarity_boost,omitempty"`
			Style           float64 `json:"style,omitempty"`
		}{
			Stability:       req.Params.Stability,
			SimilarityBoost: req.Params.SimilarityBoost,
			Style:           req.Params.Style,
		}
	}

	payload, _ := json.Marshal(body)
	return payload, model, voiceID
}

// Synthesize 将文本转换为语音并返回完整音频字节。
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, req *TTSRequest) (*TTSResponse, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, model, voiceID := p.buildRequestBody(req)
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(p.cfg.BaseURL, "/"), voiceID)

	// 添加输出格式查询参数
	format := req.Params.OutputFormat
	if format == "" {
		format = p.cfg.OutputFormat
	}
	endpoint += "?output_format=" + format

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapTransportError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, mapHTTPError(p.Name(), resp.StatusCode, errBody)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapTransportError(p.Name(), err)
	}

	return &TTSResponse{
		Provider:  p.Name(),
		Model:     model,
		AudioData: audio,
		Format:    format,
		CharCount: len(req.Text),
		CreatedAt: time.Now(),
	}, nil
}

// CloneVoice 以多个语音样本注册自定义声音，返回供应商侧声音 ID。
// 长耗时调用，不在请求延迟关键路径上。
func (p *ElevenLabsProvider) CloneVoice(ctx context.Context, req *VoiceCloneRequest) (string, error) {
	if len(req.Samples) == 0 {
		return "", fmt.Errorf("at least one audio sample is required")
	}

	// 构建 multipart 表单
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	_ = writer.WriteField("name", req.Name)
	if req.Description != "" {
		_ = writer.WriteField("description", req.Description)
	}

	// 添加音频样本
	for i, sample := range req.Samples {
		part, err := writer.CreateFormFile("files", fmt.Sprintf("sample_%d.wav", i))
		if err != nil {
			return "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(sample); err != nil {
			return "", fmt.Errorf("failed to write sample: %w", err)
		}
	}
	writer.Close()

	endpoint := fmt.Sprintf("%s/v1/voices/add", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", mapTransportError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return "", mapHTTPError(p.Name(), resp.StatusCode, errBody)
	}

	var cloneResp struct {
		VoiceID string `json:"voice_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cloneResp); err != nil {
		return "", fmt.Errorf("failed to decode clone response: %w", err)
	}

	return cloneResp.VoiceID, nil
}

type elevenLabsVoice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Labels   struct {
		Gender      string `json:"gender"`
		Age         string `json:"age"`
		Accent      string `json:"accent"`
		Description string `json:"description"`
	} `json:"labels"`
	PreviewURL string `json:"preview_url"`
}

type elevenLabsVoicesResponse struct {
	Voices []elevenLabsVoice `json:"voices"`
}

// ListVoices 返回可用的 ElevenLabs 声音。
func (p *ElevenLabsProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	endpoint := fmt.Sprintf("%s/v1/voices", strings.TrimRight(p.cfg.BaseURL, "/"))

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapTransportError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, mapHTTPError(p.Name(), resp.StatusCode, errBody)
	}

	var vResp elevenLabsVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vResp); err != nil {
		return nil, err
	}

	voices := make([]Voice, len(vResp.Voices))
	for i, v := range vResp.Voices {
		voices[i] = Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Gender:      v.Labels.Gender,
			Description: v.Labels.Description,
			PreviewURL:  v.PreviewURL,
		}
	}

	return voices, nil
}
