// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package quality 提供多因子音质评估。

五个分项（clarity / noise / volume / frequency_balance / duration）
按固定权重合成 overall ∈ [0,1]（保留 3 位小数），再映射到
excellent / good / fair / poor 等级。分项低于各自阈值时独立
追加建议；phone_call / studio 上下文在 overall 低于场景阈值时
额外追加一条。

粗粒度声学属性通过 PropertyAnalyzer 接口派生，默认实现是对
16bit PCM 的确定性统计估算；真实 DSP 分析可替换接入。
*/
package quality
