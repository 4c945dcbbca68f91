// Package interfaces 定义链路恢复引擎的公共接口
//
// 本文件定义被监控连接（Link）相关的契约，对应 internal/core/recovery/health/ 实现。
package interfaces

import (
	"context"
	"time"
)

// ════════════════════════════════════════════════════════════════════════════
//                              链路状态
// ════════════════════════════════════════════════════════════════════════════

// LinkState 被监控连接的状态
//
// 与原生连接的状态词汇一一对应（ICE / 信令传输）。
type LinkState int

const (
	// LinkUnknown 未知状态（尚未监控或原生状态无法识别）
	LinkUnknown LinkState = iota

	// LinkConnecting 正在连接（ICE new/checking、传输 connecting）
	LinkConnecting

	// LinkConnected 已连接
	LinkConnected

	// LinkDisconnected 已断开（ICE 中表示瞬时断开，可能自愈）
	LinkDisconnected

	// LinkFailed 失败
	LinkFailed

	// LinkReconnecting 原生层正在重连
	LinkReconnecting

	// LinkRegistered 信令链路已注册，等价于 connected
	LinkRegistered

	// LinkClosed 连接已被所有者关闭
	LinkClosed
)

// String 返回状态字符串
func (s LinkState) String() string {
	switch s {
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	case LinkDisconnected:
		return "disconnected"
	case LinkFailed:
		return "failed"
	case LinkReconnecting:
		return "reconnecting"
	case LinkRegistered:
		return "registered"
	case LinkClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsHealthy 检查是否处于健康状态
func (s LinkState) IsHealthy() bool {
	return s == LinkConnected || s == LinkRegistered
}

// IsBroken 检查是否处于故障状态（断开或失败）
func (s LinkState) IsBroken() bool {
	return s == LinkDisconnected || s == LinkFailed
}

// IsGone 检查连接是否已经离开（断开或关闭）
func (s LinkState) IsGone() bool {
	return s == LinkDisconnected || s == LinkClosed
}

// ════════════════════════════════════════════════════════════════════════════
//                              被监控连接
// ════════════════════════════════════════════════════════════════════════════

// Connection 被监控的连接
//
// 连接归调用方所有，引擎只调用观察者方法。
// Subscribe 返回的 unsubscribe 必须幂等。
type Connection interface {
	// State 返回当前状态
	State() LinkState

	// Subscribe 订阅原生状态变更，返回取消订阅令牌
	Subscribe(handler func(LinkState)) (unsubscribe func())
}

// SessionDescription SDP 会话描述
type SessionDescription struct {
	// Type offer / answer / pranswer / rollback
	Type string

	// SDP 原始 SDP 文本
	SDP string
}

// ICERestarter 支持 ICE 重启的连接
//
// ice-restart 策略要求被监控连接本身实现此接口。
type ICERestarter interface {
	// RestartICE 请求 ICE 重启
	RestartICE() error

	// CreateOffer 创建 offer，iceRestart 为 true 时携带重启标记
	CreateOffer(ctx context.Context, iceRestart bool) (SessionDescription, error)

	// SetLocalDescription 应用本地描述
	SetLocalDescription(ctx context.Context, desc SessionDescription) error
}

// ════════════════════════════════════════════════════════════════════════════
//                              健康快照
// ════════════════════════════════════════════════════════════════════════════

// ConnectionHealthSnapshot 连接健康状态快照
type ConnectionHealthSnapshot struct {
	// LinkState 当前链路状态
	LinkState LinkState

	// ObservedAt 最近一次状态变更时间
	ObservedAt time.Time

	// IsHealthy 派生字段，等于 LinkState.IsHealthy()
	IsHealthy bool
}

// LinkTransition 链路状态转换事件
type LinkTransition struct {
	Previous LinkState
	Current  LinkState
	At       time.Time

	// AfterBreak 链路在观察到断开/失败之后重新进入健康状态
	AfterBreak bool

	// Generation 产生该事件的绑定代数，连接被替换后旧代数的事件应丢弃
	Generation uint64
}
