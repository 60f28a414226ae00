// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 VoiceFlow 语音处理管线的全局共享类型定义。

# 概述

types 是管线最底层的公共包，不依赖任何内部包，为 transcribe、synthesize、
enhance、quality、biometrics、orchestrator 等上层模块提供统一的类型契约。
所有跨包共享的结构体、枚举和错误码均定义于此，以避免循环依赖。

# 核心类型

  - AudioBuffer       — 单次请求的音频载荷（字节 + 推断元数据）
  - AudioChunk        — 流式音频分片（TTS 流 / STT 流共用）
  - ProcessingResult  — 一次语音处理请求的不可变结果
  - QualityReport     — 多因子音质评估报告
  - VoiceProfile      — 说话人声纹档案（特征向量 + 匹配元数据）
  - SynthesisParams   — TTS 语音参数（voice/model/stability 等）
  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

# 主要能力

  - 错误工具链：WrapError / AsError / IsErrorCode / IsRetryable
  - 常用错误构造：NewValidationError / NewRateLimitError / NewTimeoutError
  - 音频校验：AudioBuffer.Validate（大小 / 格式限制）
  - 时长推断：AudioBuffer.InferredDuration（按采样率 / 声道估算）
*/
package types
