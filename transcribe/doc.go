// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package transcribe 提供带缓存与重试的语音转文本服务。

单次转写：校验 → 内容寻址缓存查询（hash(音频字节‖语言‖提示词)）→
未命中时在单次调用超时内经重试器调用供应商 → 非空结果按配置 TTL
回写缓存。缓存不可用一律按未命中降级，对调用方不可见。

批量转写以固定大小信号量限制并发（默认 5），单项失败转为空字符串，
绝不让单个坏项失败整批。流式转写把分片累积到最小分段大小后逐段
转写，流结束时冲刷剩余部分，产出惰性的部分转写序列。
*/
package transcribe
