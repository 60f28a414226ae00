// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
软件包 speech 提供统一的 TTS 和 STT 供应商接口及具体客户端实现。

STT 由 OpenAI Whisper 提供（multipart 上传），TTS 由 ElevenLabs 提供
（HTTP 合成 + WebSocket 流式合成 + 声音复刻）。所有客户端使用
tlsutil 加固的 HTTP 连接，HTTP 状态码统一映射为 types.Error：
429 / 5xx / 超时为可重试的瞬时错误，401 / 403 / 400 为立即传播的
永久性错误。上层的重试与缓存不在本包处理。
*/
package speech
