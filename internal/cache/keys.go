package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/BaSui01/voiceflow/types"
)

// 键命名空间。{domain}:{tenant-or-default}:{identifier} 仅用于声纹，
// 内容寻址的音频 / 文本条目不含租户段。
const (
	sttKeyPrefix       = "stt:"
	ttsKeyPrefix       = "tts:"
	profileKeyPrefix   = "voiceprint:"
	defaultTenantLabel = "default"
)

// keySeparator 参与哈希的字段分隔符，避免相邻字段拼接歧义。
const keySeparator = byte(0x1f)

// TranscriptionKey 生成 STT 内容寻址键：hash(音频字节 ‖ 语言 ‖ 提示词)。
// 对相同输入两次哈希得到相同的键。
func TranscriptionKey(audio []byte, language, prompt string) string {
	h := sha256.New()
	h.Write(audio)
	h.Write([]byte{keySeparator})
	h.Write([]byte(language))
	h.Write([]byte{keySeparator})
	h.Write([]byte(prompt))
	return sttKeyPrefix + hex.EncodeToString(h.Sum(nil)[:16]) // 使用前 16 字节
}

// SynthesisKey 生成 TTS 内容寻址键：
// hash(文本 ‖ voice_id ‖ model ‖ stability ‖ similarity_boost ‖ style)。
// Speed / OutputFormat 不改变语义内容，不参与键。
func SynthesisKey(text string, params types.SynthesisParams) string {
	h := sha256.New()
	h.Write([]byte(text))
	for _, part := range []string{
		params.VoiceID,
		params.Model,
		strconv.FormatFloat(params.Stability, 'f', -1, 64),
		strconv.FormatFloat(params.SimilarityBoost, 'f', -1, 64),
		strconv.FormatFloat(params.Style, 'f', -1, 64),
	} {
		h.Write([]byte{keySeparator})
		h.Write([]byte(part))
	}
	return ttsKeyPrefix + hex.EncodeToString(h.Sum(nil)[:16])
}

// ProfileKey 生成租户域声纹键。声纹是唯一允许携带租户标识的命名空间。
func ProfileKey(tenantID, speakerID string) string {
	if tenantID == "" {
		tenantID = defaultTenantLabel
	}
	return profileKeyPrefix + tenantID + ":" + speakerID
}
