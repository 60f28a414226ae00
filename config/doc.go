// Copyright (c) VoiceFlow Authors.
// Licensed under the MIT License.

/*
Package config 提供 VoiceFlow 的统一配置加载。

支持三层优先级：默认值 → YAML 文件 → 环境变量（VOICEFLOW_ 前缀）。
所有可校准参数（延迟目标、声纹阈值、重试退避、缓存 TTL）均在此暴露，
不在代码中硬编码。

	cfg, err := config.NewLoader().
	    WithConfigPath("config.yaml").
	    WithValidator(func(c *config.Config) error { return c.Validate() }).
	    Load()
*/
package config
