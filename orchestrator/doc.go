// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package orchestrator 提供截止时间约束的语音处理编排。

一次 ProcessVoiceInput 按配置开关并发派发子任务：转写（必选）、
音质评估 / 声纹识别 / 音频增强（可选）。截止时间为
target_response_time_ms × 0.8（为序列化与传输留出护栏），
到期仍未完成的子任务被协作取消，其贡献从结果中缺省并记入
Degraded —— 只有必选的转写缺失或失败才让请求整体失败。
调用方总是收到 ProcessingResult，绝不收到未处理的异常。

编排器实例持有最近 100 次请求的 (延迟, 音质) 环形窗口，
Health 报告窗口均值。每个请求产生 OpenTelemetry span 与
Prometheus 指标。
*/
package orchestrator
