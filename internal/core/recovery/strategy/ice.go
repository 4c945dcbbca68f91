package strategy

import (
	"context"

	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("core/recovery/strategy")

// ICERestart 在被监控连接上执行 ICE 重启
//
// 依次执行：RestartICE → CreateOffer(iceRestart=true) → SetLocalDescription，
// 三步全部成功才算成功。被修复的对象就是被监控的连接本身。
// 失败时原样返回底层错误，尝试记录中的错误信息即为连接报告的信息。
type ICERestart struct{}

var _ interfaces.Strategy = ICERestart{}

// Name 实现 Strategy
func (ICERestart) Name() string { return string(NameICERestart) }

// Recover 实现 Strategy
func (s ICERestart) Recover(ctx context.Context, conn interfaces.Connection) error {
	if conn == nil {
		return ErrNoConnection
	}
	rc, ok := conn.(interfaces.ICERestarter)
	if !ok {
		return ErrICERestartUnsupported
	}

	if err := rc.RestartICE(); err != nil {
		logger.Debug("ICE 重启失败", "step", "restart_ice", "error", err)
		return err
	}
	offer, err := rc.CreateOffer(ctx, true)
	if err != nil {
		logger.Debug("ICE 重启失败", "step", "create_offer", "error", err)
		return err
	}
	if err := rc.SetLocalDescription(ctx, offer); err != nil {
		logger.Debug("ICE 重启失败", "step", "set_local_description", "error", err)
		return err
	}
	return nil
}
