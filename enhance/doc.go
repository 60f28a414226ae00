// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package enhance 提供按质量预设组合的音频增强管线。

# 阶段模型

每个增强阶段实现统一的 Stage 接口（Apply(AudioBuffer) (AudioBuffer, error)），
按固定顺序执行：denoise → filter → normalize → format → silence_trim。
阶段失败不会中止管线：失败由管线运行器统一兜底，把未修改的音频
传给下一阶段并记录日志。兜底策略只存在于运行器一处，阶段本身
只返回显式结果，不自行吞错。

# 质量预设

  - fast     = {normalize}
  - balanced = {denoise, normalize, format}
  - high     = {denoise, filter, normalize, format, silence_trim}

预设满足严格包含关系 fast ⊂ balanced ⊂ high。

DSP 实现为确定性的轻量处理（16bit PCM 噪声门限 / 滑动平均 /
峰值归一化 / 静音裁剪），真实声学算法可通过替换 Stage 实现接入。
*/
package enhance
