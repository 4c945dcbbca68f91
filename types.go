package linkrecover

import (
	"github.com/dep2p/go-linkrecover/internal/core/recovery/netmon"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// ════════════════════════════════════════════════════════════════════════════
//                              链路与恢复
// ════════════════════════════════════════════════════════════════════════════

type (
	// Connection 被监控的链路
	Connection = interfaces.Connection

	// LinkState 链路状态
	LinkState = interfaces.LinkState

	// HealthSnapshot 链路健康快照
	HealthSnapshot = interfaces.ConnectionHealthSnapshot

	// RecoveryState 恢复状态
	RecoveryState = interfaces.RecoveryState

	// RecoveryAttempt 单次恢复尝试记录
	RecoveryAttempt = interfaces.RecoveryAttempt

	// RecoveryMetrics 累计指标
	RecoveryMetrics = interfaces.RecoveryMetrics

	// Strategy 恢复策略
	Strategy = interfaces.Strategy

	// ReconnectHandler 重连（重新注册）回调
	ReconnectHandler = interfaces.ReconnectHandler

	// Callbacks 生命周期回调
	Callbacks = interfaces.Callbacks

	// NetworkInfo 网络信息
	NetworkInfo = interfaces.NetworkInfo
)

// ════════════════════════════════════════════════════════════════════════════
//                              网络变化
// ════════════════════════════════════════════════════════════════════════════

type (
	// NetworkEvent 网络事件
	NetworkEvent = netmon.NetworkEvent

	// NetworkEventType 网络事件类型
	NetworkEventType = netmon.NetworkEventType

	// NetworkSource 系统网络事件源
	NetworkSource = netmon.SystemWatcher

	// Sampler 网络信息采样
	Sampler = netmon.Sampler

	// Prober 往返时延探测
	Prober = netmon.Prober
)

// 网络事件类型
const (
	EventNetworkChanged = netmon.EventNetworkChanged
	EventOnline         = netmon.EventOnline
	EventOffline        = netmon.EventOffline
	EventTypeChanged    = netmon.EventTypeChanged
)
