// 版权所有 VoiceFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范，详见 LICENSE 文件。

/*
包 metrics 提供基于 Prometheus 的语音管线指标采集能力，覆盖
管线请求、子任务、供应商调用、缓存与声纹五大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等
    Prometheus 向量指标，按业务域分组管理。

# 主要能力

  - 管线: 请求计数 / 端到端耗时直方图 / 子任务耗时 / 截止超时计数
  - 供应商: 调用计数（按状态）/ 耗时 / 重试计数
  - 缓存: 按工件类型（stt / tts）的命中与未命中计数
  - 声纹: 识别结果计数（matched / rejected / new_speaker）
  - 音质: 总分分布直方图（按等级）
*/
package metrics
