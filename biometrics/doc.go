// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package biometrics 提供说话人声纹识别 / 验证 / 注册。

说话人状态机：Unknown →（首次识别或注册）Enrolled →
每次后续采样 Matched / Rejected；档案过期后回到 Unknown。

特征提取通过 FeatureExtractor 接口接入，默认实现是对音频字节的
确定性哈希派生（相同字节必产出相同向量）；真实声学特征提取器
作为外部可插拔组件替换接入。

匹配判定：余弦相似度（特征键交集）≥ similarity_threshold 且
confidence = similarity × quality_score × min(1, sample_count/10)
≥ 档案置信度阈值。被接受的匹配按 0.8 旧 / 0.2 新更新存储向量。

档案以租户域键（voiceprint:{tenant|default}:{speaker}）持久化
到 Redis，带有限 TTL。
*/
package biometrics
