package recovery

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-linkrecover/internal/core/recovery/netmon"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// ResilienceModule 返回带网络变化监听的完整 Fx 模块
//
// 包含:
//   - Manager: 恢复编排
//   - ChangeWatcher: 主机网络变化监听，防抖后调用 Manager.RequestRecovery
func ResilienceModule() fx.Option {
	return fx.Module("network-resilience",
		netmon.Module(),
		fx.Provide(ProvideManager),
		fx.Invoke(registerResilienceLifecycle),
	)
}

// resilienceLifecycleInput 网络弹性生命周期输入
type resilienceLifecycleInput struct {
	fx.In
	LC        fx.Lifecycle
	Manager   *Manager
	Watcher   *netmon.ChangeWatcher
	Callbacks *interfaces.Callbacks `optional:"true"`
}

// registerResilienceLifecycle 注册网络弹性生命周期
func registerResilienceLifecycle(input resilienceLifecycleInput) {
	var stopWatch, cancelObserver func()

	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("启动网络弹性模块")

			if err := input.Manager.Start(ctx); err != nil {
				logger.Error("启动 RecoveryManager 失败", "error", err)
				return err
			}

			if input.Callbacks != nil && input.Callbacks.OnNetworkChange != nil {
				cancelObserver = input.Watcher.OnChange(input.Callbacks.OnNetworkChange)
			}

			stop, err := BridgeNetworkChanges(input.Watcher, input.Manager)
			if err != nil {
				logger.Error("启动网络变化监听失败", "error", err)
				return err
			}
			stopWatch = stop

			logger.Info("网络弹性模块启动完成")
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("停止网络弹性模块")

			// 逆序停止
			if stopWatch != nil {
				stopWatch()
			}
			if cancelObserver != nil {
				cancelObserver()
			}
			if err := input.Manager.Stop(); err != nil {
				logger.Warn("停止 RecoveryManager 失败", "error", err)
			}

			logger.Info("网络弹性模块已停止")
			return nil
		},
	})
}

// BridgeNetworkChanges 把防抖后的网络变化接到 Manager 的自动触发入口
func BridgeNetworkChanges(w *netmon.ChangeWatcher, m *Manager) (stop func(), err error) {
	return w.Watch(context.Background(), func(info interfaces.NetworkInfo) {
		if !m.RequestRecovery(interfaces.CauseNetworkChange) {
			logger.Debug("网络变化未启动恢复",
				"type", info.ConnectionType,
				"state", m.State().String())
		}
	})
}
