package biometrics

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/BaSui01/voiceflow/types"
)

// FeatureExtractor 从音频提取固定维度特征向量。
// 实现必须确定：相同字节必产出相同向量。
type FeatureExtractor interface {
	// Extract 返回维度名 → 特征值（[0,1]）的向量。
	Extract(audio types.AudioBuffer) (map[string]float64, error)

	// Dimensions 返回向量维度。
	Dimensions() int
}

// hashExtractor 是默认提取器：以 SHA-256 链式扩展音频字节，
// 派生伪声学特征。仅保证确定性与维度稳定，不代表真实声学特征。
type hashExtractor struct {
	dims int
}

// NewHashExtractor 创建确定性哈希特征提取器。
func NewHashExtractor(dims int) FeatureExtractor {
	if dims <= 0 {
		dims = 128
	}
	return &hashExtractor{dims: dims}
}

func (e *hashExtractor) Dimensions() int { return e.dims }

func (e *hashExtractor) Extract(audio types.AudioBuffer) (map[string]float64, error) {
	if len(audio.Data) == 0 {
		return nil, types.NewValidationError("audio payload is empty")
	}

	features := make(map[string]float64, e.dims)
	digest := sha256.Sum256(audio.Data)

	for i := 0; i < e.dims; {
		// 每轮哈希产出 8 个 32bit 特征值
		for j := 0; j+4 <= len(digest) && i < e.dims; j += 4 {
			v := binary.BigEndian.Uint32(digest[j:])
			features[featureKey(i)] = float64(v) / float64(^uint32(0))
			i++
		}
		digest = sha256.Sum256(digest[:])
	}
	return features, nil
}

func featureKey(i int) string {
	return fmt.Sprintf("f%03d", i)
}
