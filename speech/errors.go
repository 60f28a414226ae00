package speech

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/BaSui01/voiceflow/types"
)

// mapHTTPError 将供应商 HTTP 状态码映射为结构化错误。
// 429 与 5xx 为瞬时错误（可重试），4xx 其余为永久性错误。
func mapHTTPError(provider string, status int, body []byte) error {
	msg := fmt.Sprintf("provider returned status %d: %s", status, truncate(body, 256))

	switch {
	case status == 429:
		return types.NewError(types.ErrRateLimited, msg).
			WithHTTPStatus(status).
			WithRetryable(true).
			WithProvider(provider)
	case status == 401 || status == 403:
		return types.NewError(types.ErrAuthentication, msg).
			WithHTTPStatus(status).
			WithProvider(provider)
	case status >= 500:
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(status).
			WithRetryable(true).
			WithProvider(provider)
	default:
		return types.NewError(types.ErrInvalidRequest, msg).
			WithHTTPStatus(status).
			WithProvider(provider)
	}
}

// mapTransportError 将传输层错误映射为结构化错误。
// 超时视为瞬时错误，context 取消原样传播。
func mapTransportError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return types.NewTimeoutError(provider, err)
	}
	return types.NewError(types.ErrProviderUnavailable, "provider request failed").
		WithRetryable(true).
		WithProvider(provider).
		WithCause(err)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
