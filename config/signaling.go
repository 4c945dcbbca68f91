package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SignalingConfig SIP over WebSocket 信令链路配置
//
// URL 为空表示不启用信令链路。
type SignalingConfig struct {
	// URL WebSocket 地址（ws:// 或 wss://）
	URL string `json:"url,omitempty"`

	// Server 注册服务器 URI，如 sip:example.com
	Server string `json:"server,omitempty"`

	// AOR 注册地址，如 sip:alice@example.com
	AOR string `json:"aor,omitempty"`

	// RegisterExpires 注册有效期（秒）
	// 默认值: 600
	RegisterExpires int `json:"register_expires"`

	// RegisterTimeout 等待 REGISTER 响应的超时
	// 默认值: 10s
	RegisterTimeout Duration `json:"register_timeout"`

	// RedialInterval 传输层自动重拨间隔，0 表示不重拨
	// 默认值: 2s
	RedialInterval Duration `json:"redial_interval"`

	// DialTimeout 握手超时
	// 默认值: 10s
	DialTimeout Duration `json:"dial_timeout"`
}

// DefaultSignalingConfig 返回默认的信令配置
func DefaultSignalingConfig() SignalingConfig {
	return SignalingConfig{
		RegisterExpires: 600,
		RegisterTimeout: Duration(10 * time.Second),
		RedialInterval:  Duration(2 * time.Second),
		DialTimeout:     Duration(10 * time.Second),
	}
}

// Enabled 是否配置了信令链路
func (c *SignalingConfig) Enabled() bool {
	return c.URL != ""
}

// Validate 验证信令配置的有效性
func (c *SignalingConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("signaling: invalid url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("signaling: url scheme must be ws or wss, got %q", u.Scheme)
	}
	if !strings.HasPrefix(c.Server, "sip:") && !strings.HasPrefix(c.Server, "sips:") {
		return fmt.Errorf("signaling: server must be a sip uri")
	}
	if !strings.HasPrefix(c.AOR, "sip:") && !strings.HasPrefix(c.AOR, "sips:") {
		return fmt.Errorf("signaling: aor must be a sip uri")
	}
	if c.RegisterExpires < 1 {
		return fmt.Errorf("signaling: register_expires must be >= 1")
	}
	if c.RedialInterval < 0 {
		return fmt.Errorf("signaling: redial_interval must be >= 0")
	}
	return nil
}
