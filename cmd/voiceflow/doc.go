// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

// voiceflow 是语音处理管线的服务入口。
//
// 二进制只承载运维面：加载配置、构建日志与遥测、连接 Redis、
// 组装编排器，并在 metrics 端口暴露 /metrics 与健康检查端点。
// 音频的传输封装（HTTP / WebSocket 帧格式）由上层网关负责，
// 不属于本二进制的职责。
//
// 使用方法:
//
//	voiceflow serve                       # 启动服务
//	voiceflow serve --config config.yaml  # 指定配置文件
//	voiceflow version                     # 显示版本信息
//	voiceflow health                      # 健康检查
package main
