package ctxkeys

import "context"

// contextKey 用于在 context 中存储值的键类型
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	tenantIDKey  contextKey = "tenant_id"
	speakerIDKey contextKey = "speaker_id"
)

// WithRequestID 设置请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID 获取请求 ID
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithTenantID 设置租户 ID（声纹档案按租户隔离）
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantID 获取租户 ID
func TenantID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tenantIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithSpeakerID 设置说话人 ID
func WithSpeakerID(ctx context.Context, speakerID string) context.Context {
	return context.WithValue(ctx, speakerIDKey, speakerID)
}

// SpeakerID 获取说话人 ID
func SpeakerID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(speakerIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
