// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 VoiceFlow 测试的共享工具和辅助函数。

# 概述

testutil 包为整个项目的单元测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue，支持超时轮询等待条件满足
  - 流式辅助: CollectAudioChunks，排空音频分片流并收集全部分片
  - 数据工具: MustJSON，简化测试数据构造

# 子包

  - testutil/mocks: Mock 实现，包括 MockSTTProvider 与 MockTTSProvider，
    可注入文本 / 音频 / 错误 / 延迟，并记录调用次数与请求参数
  - testutil/fixtures: 合成音频夹具，生成确定性的 16-bit PCM 载荷

# 使用示例

	func TestTranscribe(t *testing.T) {
		ctx := testutil.TestContext(t)
		provider := mocks.NewMockSTTProvider().WithText("hello")
		audio := fixtures.SpeechBuffer(3 * time.Second)
		// ...
	}
*/
package testutil
