// Package config 提供链路恢复引擎的统一配置
//
// 本包采用分节配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 DefaultXxxConfig 和 Validate
//   - 支持从 JSON 加载（时长字段接受 "1s" 字符串或纳秒数）
//   - 支持预设配置（media/signaling）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Recovery.MaxAttempts = 5
//
//	// 应用预设到现有配置
//	config.ApplyPreset(cfg, "signaling")
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// Config 链路恢复引擎的完整配置
//
// 配置按照功能组织：
//   - Recovery: 恢复编排（尝试次数、退避、策略、触发模式）
//   - Network: 主机网络变化监听
//   - Signaling: SIP over WebSocket 信令链路（仅 CLI 和信令场景使用）
type Config struct {
	// Recovery 恢复编排配置
	Recovery RecoveryConfig `json:"recovery"`

	// Network 网络变化配置
	Network NetworkConfig `json:"network"`

	// Signaling 信令链路配置
	Signaling SignalingConfig `json:"signaling"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Recovery:  DefaultRecoveryConfig(),
		Network:   DefaultNetworkConfig(),
		Signaling: DefaultSignalingConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置，返回第一个错误。
func (c *Config) Validate() error {
	if err := c.Recovery.Validate(); err != nil {
		return err
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	if err := c.Signaling.Validate(); err != nil {
		return err
	}
	return nil
}
