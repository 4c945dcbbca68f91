// Package interfaces 定义链路恢复引擎的公共接口
//
// 本文件定义主机网络信息，对应 internal/core/recovery/netmon/ 实现。
package interfaces

import "time"

// NetworkInfo 主机网络连通性快照
//
// 尽力而为，仅用于触发恢复，不作为链路状态的依据。
type NetworkInfo struct {
	// ConnectionType 连接类型（wifi / ethernet / cellular / unknown）
	ConnectionType string

	// EffectiveType 有效网络类型（slow-2g / 2g / 3g / 4g），未知时为空
	EffectiveType string

	// DownlinkMbps 下行带宽估计，未知时为 0
	DownlinkMbps float64

	// RoundTrip 往返时延估计，未知时为 0
	RoundTrip time.Duration

	// IsOnline 主机是否在线
	IsOnline bool

	// Interface 首选网络接口名
	Interface string

	// ObservedAt 采样时间
	ObservedAt time.Time
}
