// Package strategy 提供可插拔的恢复动作
//
// 内置三种策略，按名称选择：
//   - ice-restart: 在被监控连接上执行 ICE 重启
//   - reconnect:   委托给调用方提供的重连回调
//   - none:        只记录失败，不执行任何动作（用于观测/告警）
//
// 信令重新注册是 reconnect 策略 + 重新注册回调 + 非零稳定延迟的组合，
// 见根包的 signaling 预设。
package strategy

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// Name 策略名
type Name string

// 内置策略名
const (
	NameICERestart Name = "ice-restart"
	NameReconnect  Name = "reconnect"
	NameNone       Name = "none"
)

// 错误定义
var (
	// ErrNoReconnectHandler 未配置重连回调
	ErrNoReconnectHandler = errors.New("No reconnect handler configured")

	// ErrReconnectRejected 重连回调返回 false
	ErrReconnectRejected = errors.New("reconnect handler reported failure")

	// ErrICERestartUnsupported 被监控连接不支持 ICE 重启
	ErrICERestartUnsupported = errors.New("monitored connection does not support ICE restart")

	// ErrRecoveryDisabled none 策略
	ErrRecoveryDisabled = errors.New("recovery strategy disabled")

	// ErrNoConnection 没有被监控的连接
	ErrNoConnection = errors.New("no monitored connection")

	// ErrUnknownStrategy 未知策略名
	ErrUnknownStrategy = errors.New("unknown recovery strategy")
)

// Names 返回全部内置策略名
func Names() []Name {
	return []Name{NameICERestart, NameReconnect, NameNone}
}

// Valid 检查策略名是否为内置策略
func (n Name) Valid() bool {
	switch n {
	case NameICERestart, NameReconnect, NameNone:
		return true
	default:
		return false
	}
}

// New 按名称创建策略
//
// handler 只对 reconnect 生效；为 nil 时每次尝试都以 ErrNoReconnectHandler 失败。
func New(name Name, handler interfaces.ReconnectHandler) (interfaces.Strategy, error) {
	switch name {
	case NameICERestart:
		return ICERestart{}, nil
	case NameReconnect:
		return &Reconnect{Handler: handler}, nil
	case NameNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(name))
	}
}
