package config

import (
	"fmt"
	"net"
	"time"
)

// NetworkConfig 主机网络变化配置
type NetworkConfig struct {
	// AutoReconnectOnNetworkChange 网络变化稳定后是否触发恢复
	// 默认值: false
	AutoReconnectOnNetworkChange bool `json:"auto_reconnect_on_network_change"`

	// NetworkChangeDelay 防抖窗口
	// 默认值: 2s
	NetworkChangeDelay Duration `json:"network_change_delay"`

	// PollInterval 接口轮询间隔，0 表示只接受宿主注入的事件
	// 默认值: 5s
	PollInterval Duration `json:"poll_interval"`

	// STUNServers RTT 探测服务器（host:port）
	// 默认值: 空（不探测）
	STUNServers []string `json:"stun_servers,omitempty"`

	// ProbeTimeout 单次探测超时
	// 默认值: 3s
	ProbeTimeout Duration `json:"probe_timeout"`
}

// DefaultNetworkConfig 返回默认的网络配置
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		AutoReconnectOnNetworkChange: false,
		NetworkChangeDelay:           Duration(2 * time.Second),
		PollInterval:                 Duration(5 * time.Second),
		ProbeTimeout:                 Duration(3 * time.Second),
	}
}

// Validate 验证网络配置的有效性
func (c *NetworkConfig) Validate() error {
	if c.NetworkChangeDelay < 0 {
		return fmt.Errorf("network: network_change_delay must be >= 0")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("network: poll_interval must be >= 0")
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("network: probe_timeout must be >= 0")
	}
	for _, s := range c.STUNServers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			return fmt.Errorf("network: invalid stun server %q: %w", s, err)
		}
	}
	return nil
}
