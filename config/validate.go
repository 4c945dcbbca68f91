package config

import (
	"errors"
	"fmt"
)

// ValidateAll 验证整个配置的有效性
//
// 在 Config.Validate() 之外还检查各节之间的兼容性。
func ValidateAll(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	return ValidateCompatibility(c)
}

// MustValidate 验证配置，如果失败则 panic
//
// 仅用于初始化阶段或测试代码。
func MustValidate(c *Config) {
	if err := ValidateAll(c); err != nil {
		panic(fmt.Sprintf("config validation failed: %v", err))
	}
}

// ValidateCompatibility 验证配置之间的兼容性
//
// 检查：
//   - 启用信令链路时必须使用 reconnect 策略（重新注册由 reconnect 回调完成）
//   - 单次尝试超时不应小于握手超时，否则重拨总是被截断
func ValidateCompatibility(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Signaling.Enabled() {
		if c.Recovery.Strategy != StrategyReconnect {
			return fmt.Errorf("signaling enabled but recovery strategy is %q (need %q)",
				c.Recovery.Strategy, StrategyReconnect)
		}
		if c.Recovery.AttemptTimeout > 0 && c.Recovery.AttemptTimeout < c.Signaling.DialTimeout {
			return fmt.Errorf("attempt_timeout (%s) shorter than signaling dial_timeout (%s)",
				c.Recovery.AttemptTimeout, c.Signaling.DialTimeout)
		}
	}
	return nil
}
