// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package synthesize 提供带缓存与重试的文本转语音服务。

单次合成：内容寻址缓存查询（hash(文本‖voice_id‖model‖stability‖
similarity_boost‖style)）→ 未命中时经重试器调用供应商 → 成功结果
按配置 TTL 回写缓存。缓存不可用按未命中降级。

流式合成直接转发供应商分片；流式转字节变体在流完整结束后才回写
缓存。批量合成有界并发、单项隔离（失败项产出空字节）。声音克隆
是独立的长耗时调用，不在延迟关键路径上，不缓存。
*/
package synthesize
