package strategy

import (
	"context"

	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// Reconnect 委托给调用方提供的异步回调
//
// 引擎不关心回调内部协议。Handler 为 nil 属于配置错误，
// 表现为一次立即失败的尝试，同样计入 MaxAttempts。
type Reconnect struct {
	Handler interfaces.ReconnectHandler
}

var _ interfaces.Strategy = (*Reconnect)(nil)

// Name 实现 Strategy
func (*Reconnect) Name() string { return string(NameReconnect) }

// Recover 实现 Strategy
func (s *Reconnect) Recover(ctx context.Context, _ interfaces.Connection) error {
	if s.Handler == nil {
		return ErrNoReconnectHandler
	}
	ok, err := s.Handler(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReconnectRejected
	}
	return nil
}

// None 不执行任何动作，每次尝试都记录为失败
type None struct{}

var _ interfaces.Strategy = None{}

// Name 实现 Strategy
func (None) Name() string { return string(NameNone) }

// Recover 实现 Strategy
func (None) Recover(context.Context, interfaces.Connection) error {
	return ErrRecoveryDisabled
}
