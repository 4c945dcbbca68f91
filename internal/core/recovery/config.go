package recovery

import (
	"time"

	"github.com/dep2p/go-linkrecover/internal/core/recovery/strategy"
)

// ============================================================================
//                              恢复配置
// ============================================================================

// Trigger 自动触发模式
type Trigger string

const (
	// TriggerFailure 链路进入 failed 时触发
	TriggerFailure Trigger = "failure"

	// TriggerRestore 链路在断开后重新连通时触发
	TriggerRestore Trigger = "restore"
)

// Valid 检查触发模式
func (t Trigger) Valid() bool {
	return t == TriggerFailure || t == TriggerRestore
}

// Config 恢复管理器配置
type Config struct {
	// MaxAttempts 每个恢复周期的最大尝试次数
	// 默认值: 3
	MaxAttempts int

	// AttemptDelay 尝试间隔（指数退避时为基础延迟）
	// 默认值: 1s
	AttemptDelay time.Duration

	// ExponentialBackoff 是否使用指数退避
	// 默认值: false
	ExponentialBackoff bool

	// MaxBackoffDelay 指数退避上限
	// 默认值: 30s
	MaxBackoffDelay time.Duration

	// StabilizationDelay 第一次尝试前的等待
	// 默认值: 0
	StabilizationDelay time.Duration

	// Strategy 恢复策略名
	// 默认值: ice-restart
	Strategy strategy.Name

	// AutoRecover 是否根据链路状态转换自动触发
	// 默认值: true
	AutoRecover bool

	// Trigger 自动触发模式
	// 默认值: failure
	Trigger Trigger

	// AttemptTimeout 单次尝试超时，0 表示不限制
	// 默认值: 30s
	AttemptTimeout time.Duration

	// HistoryLimit 尝试历史上限
	// 默认值: 50
	HistoryLimit int

	// LinkName 链路名，用于错误信息和日志
	// 默认值: "link"
	LinkName string
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:        3,
		AttemptDelay:       1 * time.Second,
		ExponentialBackoff: false,
		MaxBackoffDelay:    30 * time.Second,
		StabilizationDelay: 0,
		Strategy:           strategy.NameICERestart,
		AutoRecover:        true,
		Trigger:            TriggerFailure,
		AttemptTimeout:     30 * time.Second,
		HistoryLimit:       50,
		LinkName:           "link",
	}
}

// Validate 修正无效值为默认值
func (c *Config) Validate() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.AttemptDelay < 0 {
		c.AttemptDelay = 1 * time.Second
	}
	if c.MaxBackoffDelay <= 0 {
		c.MaxBackoffDelay = 30 * time.Second
	}
	if c.MaxBackoffDelay < c.AttemptDelay {
		c.MaxBackoffDelay = c.AttemptDelay
	}
	if c.StabilizationDelay < 0 {
		c.StabilizationDelay = 0
	}
	if !c.Strategy.Valid() {
		c.Strategy = strategy.NameICERestart
	}
	if !c.Trigger.Valid() {
		c.Trigger = TriggerFailure
	}
	if c.AttemptTimeout < 0 {
		c.AttemptTimeout = 0
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 50
	}
	if c.LinkName == "" {
		c.LinkName = "link"
	}
}

// WithMaxAttempts 设置最大尝试次数
func (c *Config) WithMaxAttempts(n int) *Config {
	c.MaxAttempts = n
	return c
}

// WithBackoff 设置退避参数
func (c *Config) WithBackoff(delay time.Duration, exponential bool, max time.Duration) *Config {
	c.AttemptDelay = delay
	c.ExponentialBackoff = exponential
	c.MaxBackoffDelay = max
	return c
}

// WithStabilizationDelay 设置稳定延迟
func (c *Config) WithStabilizationDelay(d time.Duration) *Config {
	c.StabilizationDelay = d
	return c
}

// WithStrategy 设置策略名
func (c *Config) WithStrategy(name strategy.Name) *Config {
	c.Strategy = name
	return c
}

// WithTrigger 设置自动触发模式
func (c *Config) WithTrigger(t Trigger) *Config {
	c.Trigger = t
	return c
}

// WithAutoRecover 设置是否自动触发
func (c *Config) WithAutoRecover(enable bool) *Config {
	c.AutoRecover = enable
	return c
}

// WithAttemptTimeout 设置单次尝试超时
func (c *Config) WithAttemptTimeout(d time.Duration) *Config {
	c.AttemptTimeout = d
	return c
}

// WithLinkName 设置链路名
func (c *Config) WithLinkName(name string) *Config {
	c.LinkName = name
	return c
}
