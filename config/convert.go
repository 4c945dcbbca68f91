package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。时长字段接受 "1s" 字符串或纳秒数。
//
// 示例 JSON:
//
//	{
//	  "recovery": {"max_attempts": 5, "attempt_delay": "2s", "strategy": "reconnect"},
//	  "network": {"auto_reconnect_on_network_change": true}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载配置并验证
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化配置
func ToJSON(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// ApplyPreset 应用预设配置
//
// 预设只修改恢复编排相关字段，网络和信令配置保持不变。
//
// 支持的预设：
//   - "media": 媒体链路（ICE），failed 时 ICE 重启，指数退避
//   - "signaling": 信令链路（SIP 传输），断开后重新连通时重新注册
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "media":
		applyMediaPreset(cfg)
		return nil
	case "signaling":
		applySignalingPreset(cfg)
		return nil
	case "":
		// 空预设，不做任何操作
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
}

// applyMediaPreset 媒体链路预设
//
//   - ice-restart 策略，链路 failed 时触发
//   - 指数退避 1s 起，上限 30s，最多 3 次
func applyMediaPreset(cfg *Config) {
	r := &cfg.Recovery
	r.Strategy = StrategyICERestart
	r.Trigger = TriggerFailure
	r.MaxAttempts = 3
	r.AttemptDelay = Duration(1 * time.Second)
	r.ExponentialBackoff = true
	r.MaxBackoffDelay = Duration(30 * time.Second)
	r.StabilizationDelay = 0
	r.LinkName = "media link"
}

// applySignalingPreset 信令链路预设
//
//   - reconnect 策略，断开后重新连通时触发
//   - 先等待 1s 稳定，固定间隔 2s，最多 5 次
func applySignalingPreset(cfg *Config) {
	r := &cfg.Recovery
	r.Strategy = StrategyReconnect
	r.Trigger = TriggerRestore
	r.MaxAttempts = 5
	r.AttemptDelay = Duration(2 * time.Second)
	r.ExponentialBackoff = false
	r.StabilizationDelay = Duration(1 * time.Second)
	r.LinkName = "SIP transport"
}

// CloneConfig 克隆配置
//
// 创建配置的深拷贝，用于安全地修改配置而不影响原始配置。
func CloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}
	cloned := *cfg
	if cfg.Network.STUNServers != nil {
		cloned.Network.STUNServers = append([]string(nil), cfg.Network.STUNServers...)
	}
	return &cloned
}
