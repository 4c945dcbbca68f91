// Package interfaces 定义链路恢复引擎的公共接口
//
// 本文件定义 Recovery 组件接口，对应 internal/core/recovery/ 实现。
package interfaces

import (
	"context"
	"time"
)

// ════════════════════════════════════════════════════════════════════════════
//                              恢复状态
// ════════════════════════════════════════════════════════════════════════════

// RecoveryState 恢复状态机状态
type RecoveryState int

const (
	// RecoveryStable 稳定（初始状态）
	RecoveryStable RecoveryState = iota

	// RecoveryRecovering 恢复中
	RecoveryRecovering

	// RecoveryFailed 恢复失败（尝试耗尽）
	RecoveryFailed
)

// String 返回状态字符串
func (s RecoveryState) String() string {
	switch s {
	case RecoveryStable:
		return "stable"
	case RecoveryRecovering:
		return "recovering"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryCause 恢复触发原因
type RecoveryCause int

const (
	// CauseManual 手动触发
	CauseManual RecoveryCause = iota

	// CauseLinkFailure 链路进入 failed 状态
	CauseLinkFailure

	// CauseLinkRestored 链路在断开后重新连通
	CauseLinkRestored

	// CauseNetworkChange 主机网络变化（防抖后）
	CauseNetworkChange
)

// String 返回原因字符串
func (c RecoveryCause) String() string {
	switch c {
	case CauseManual:
		return "manual"
	case CauseLinkFailure:
		return "link_failure"
	case CauseLinkRestored:
		return "link_restored"
	case CauseNetworkChange:
		return "network_change"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              恢复尝试与指标
// ════════════════════════════════════════════════════════════════════════════

// RecoveryAttempt 单次恢复尝试记录
//
// 记录后不可变，只追加到历史中。
type RecoveryAttempt struct {
	// EpisodeID 所属恢复周期
	EpisodeID string

	// AttemptNumber 周期内序号，从 1 开始
	AttemptNumber int

	// Strategy 策略名
	Strategy string

	// StartedAt 开始时间
	StartedAt time.Time

	// Duration 耗时
	Duration time.Duration

	// Succeeded 是否成功
	Succeeded bool

	// ErrorMessage 失败信息
	ErrorMessage string
}

// RecoveryMetrics 生命周期累计指标
type RecoveryMetrics struct {
	// TotalAttempts 尝试总数
	TotalAttempts int

	// TotalFailedAttempts 失败尝试数
	TotalFailedAttempts int

	// TotalRecoveries 成功的恢复周期数
	TotalRecoveries int

	// TotalExhausted 尝试耗尽的恢复周期数
	TotalExhausted int

	// LastSuccessAt 最近一次成功时间
	LastSuccessAt time.Time
}

// ════════════════════════════════════════════════════════════════════════════
//                              策略
// ════════════════════════════════════════════════════════════════════════════

// Strategy 可插拔的恢复动作
//
// Recover 返回 nil 表示成功；返回的错误（或 panic）由编排器转换为失败的尝试。
type Strategy interface {
	// Name 策略名（ice-restart / reconnect / none）
	Name() string

	// Recover 执行一次恢复动作
	Recover(ctx context.Context, conn Connection) error
}

// ReconnectHandler 调用方提供的重连（或重新注册）回调
type ReconnectHandler func(ctx context.Context) (bool, error)

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期回调
// ════════════════════════════════════════════════════════════════════════════

// Callbacks 生命周期回调，均为可选的尽力通知
type Callbacks struct {
	OnRecoveryStart   func()
	OnRecoverySuccess func(attempt RecoveryAttempt)
	OnRecoveryFailed  func(message string)
	OnNetworkChange   func(info NetworkInfo)
}
