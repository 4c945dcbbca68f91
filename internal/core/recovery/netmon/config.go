package netmon

import (
	"time"
)

// ============================================================================
//                              监听配置
// ============================================================================

// Config 网络变化监听配置
type Config struct {
	// AutoReconnect 网络变化后是否触发恢复
	// 默认值: false
	AutoReconnect bool

	// NetworkChangeDelay 防抖窗口
	// 默认值: 2s
	NetworkChangeDelay time.Duration

	// PollInterval 系统接口轮询间隔，0 表示禁用系统监听
	// 默认值: 5s
	PollInterval time.Duration

	// STUNServers RTT 探测服务器（host:port），为空时不探测
	STUNServers []string

	// ProbeTimeout 单次探测超时
	// 默认值: 3s
	ProbeTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		AutoReconnect:      false,
		NetworkChangeDelay: 2 * time.Second,
		PollInterval:       5 * time.Second,
		ProbeTimeout:       3 * time.Second,
	}
}

// Validate 修正无效值为默认值
func (c *Config) Validate() {
	if c.NetworkChangeDelay < 0 {
		c.NetworkChangeDelay = 2 * time.Second
	}
	if c.PollInterval < 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 3 * time.Second
	}
}

// WithAutoReconnect 设置网络变化后是否触发恢复
func (c *Config) WithAutoReconnect(enable bool) *Config {
	c.AutoReconnect = enable
	return c
}

// WithNetworkChangeDelay 设置防抖窗口
func (c *Config) WithNetworkChangeDelay(d time.Duration) *Config {
	c.NetworkChangeDelay = d
	return c
}

// WithSTUNServers 设置探测服务器
func (c *Config) WithSTUNServers(servers ...string) *Config {
	c.STUNServers = servers
	return c
}
