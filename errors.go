package linkrecover

import (
	"errors"

	"github.com/dep2p/go-linkrecover/internal/core/recovery"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 引擎生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrAlreadyStarted 引擎已启动
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrEngineClosed 引擎已关闭
	ErrEngineClosed = recovery.ErrManagerClosed

	// ────────────────────────────────────────────────────────────────────────
	// 恢复相关错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotConnected 手动触发时链路未连接
	//
	// 实际返回的错误携带链路名，使用 errors.Is 判断。
	ErrNotConnected = recovery.ErrNotConnected

	// ────────────────────────────────────────────────────────────────────────
	// 配置错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrConflictingHandler 同时配置了信令链路和自定义 reconnect 回调
	ErrConflictingHandler = errors.New("reconnect handler conflicts with signaling link")

	// ErrNoSignaling 未配置信令链路
	ErrNoSignaling = errors.New("signaling link not configured")
)
