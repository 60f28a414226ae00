// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package cache 提供管线共享的内容寻址音频缓存。

缓存键只由内容相关字段派生（STT：音频字节 + 语言 + 提示词；
TTS：文本 + 语音参数），绝不包含请求或用户 / 租户标识，
因此不同租户的相同输入共享缓存条目。所有条目带显式 TTL。

Redis 不可用时上层服务将错误视为未命中继续无缓存处理，
对调用方不可见。
*/
package cache
