package config

import (
	"fmt"
	"time"
)

// 策略名
const (
	StrategyICERestart = "ice-restart"
	StrategyReconnect  = "reconnect"
	StrategyNone       = "none"
)

// 触发模式
const (
	TriggerFailure = "failure"
	TriggerRestore = "restore"
)

// RecoveryConfig 恢复编排配置
type RecoveryConfig struct {
	// MaxAttempts 每个恢复周期的最大尝试次数
	// 默认值: 3
	MaxAttempts int `json:"max_attempts"`

	// AttemptDelay 尝试间隔（指数退避时为基础延迟）
	// 默认值: 1s
	AttemptDelay Duration `json:"attempt_delay"`

	// ExponentialBackoff 是否使用指数退避
	// 默认值: false
	ExponentialBackoff bool `json:"exponential_backoff"`

	// MaxBackoffDelay 指数退避上限
	// 默认值: 30s
	MaxBackoffDelay Duration `json:"max_backoff_delay"`

	// StabilizationDelay 第一次尝试前的等待
	// 默认值: 0
	StabilizationDelay Duration `json:"stabilization_delay"`

	// Strategy 恢复策略（ice-restart / reconnect / none）
	// 默认值: ice-restart
	Strategy string `json:"strategy"`

	// AutoRecover 是否根据链路状态自动触发
	// 默认值: true
	AutoRecover bool `json:"auto_recover"`

	// Trigger 自动触发模式（failure / restore）
	// 默认值: failure
	Trigger string `json:"trigger"`

	// AttemptTimeout 单次尝试超时，0 表示不限制
	// 默认值: 30s
	AttemptTimeout Duration `json:"attempt_timeout"`

	// HistoryLimit 尝试历史上限
	// 默认值: 50
	HistoryLimit int `json:"history_limit"`

	// LinkName 链路名，出现在错误信息中
	// 默认值: "link"
	LinkName string `json:"link_name"`
}

// DefaultRecoveryConfig 返回默认的恢复配置
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		MaxAttempts:        3,
		AttemptDelay:       Duration(1 * time.Second),
		ExponentialBackoff: false,
		MaxBackoffDelay:    Duration(30 * time.Second),
		StabilizationDelay: 0,
		Strategy:           StrategyICERestart,
		AutoRecover:        true,
		Trigger:            TriggerFailure,
		AttemptTimeout:     Duration(30 * time.Second),
		HistoryLimit:       50,
		LinkName:           "link",
	}
}

// Validate 验证恢复配置的有效性
func (c *RecoveryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("recovery: max_attempts must be >= 1")
	}
	if c.AttemptDelay < 0 {
		return fmt.Errorf("recovery: attempt_delay must be >= 0")
	}
	if c.ExponentialBackoff && c.MaxBackoffDelay < c.AttemptDelay {
		return fmt.Errorf("recovery: max_backoff_delay must be >= attempt_delay")
	}
	if c.StabilizationDelay < 0 {
		return fmt.Errorf("recovery: stabilization_delay must be >= 0")
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("recovery: attempt_timeout must be >= 0")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("recovery: history_limit must be >= 1")
	}
	switch c.Strategy {
	case StrategyICERestart, StrategyReconnect, StrategyNone:
	default:
		return fmt.Errorf("recovery: unknown strategy %q", c.Strategy)
	}
	switch c.Trigger {
	case TriggerFailure, TriggerRestore:
	default:
		return fmt.Errorf("recovery: unknown trigger %q", c.Trigger)
	}
	return nil
}
