package types

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioBuffer_InferredDuration(t *testing.T) {
	t.Parallel()

	// 16kHz 单声道 16bit => 32000 字节/秒
	buf := NewAudioBuffer(make([]byte, 32000), FormatPCM)
	assert.Equal(t, time.Second, buf.InferredDuration())

	// 显式时长优先
	buf.Duration = 3 * time.Second
	assert.Equal(t, 3*time.Second, buf.InferredDuration())
}

func TestAudioBuffer_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		buf      AudioBuffer
		wantCode ErrorCode
	}{
		{
			name:     "too small",
			buf:      NewAudioBuffer(make([]byte, 10), FormatWAV),
			wantCode: ErrValidation,
		},
		{
			name:     "too large",
			buf:      AudioBuffer{Data: make([]byte, MaxAudioBytes+1), Format: FormatWAV},
			wantCode: ErrValidation,
		},
		{
			name:     "unsupported format",
			buf:      NewAudioBuffer(make([]byte, 1024), AudioFormat("aiff")),
			wantCode: ErrValidation,
		},
		{
			name: "valid",
			buf:  NewAudioBuffer(bytes.Repeat([]byte{0x01}, 4096), FormatWAV),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buf.Validate()
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetErrorCode(err))
		})
	}
}

func TestAudioBuffer_ZeroMetadata(t *testing.T) {
	t.Parallel()

	buf := AudioBuffer{Data: make([]byte, 1000)}
	assert.Equal(t, time.Duration(0), buf.InferredDuration())
	assert.False(t, buf.IsEmpty())
	assert.Equal(t, 1000, buf.Size())
}
