package recovery

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-linkrecover/internal/core/metrics"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("recovery",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ManagerParams Manager 依赖参数
type ManagerParams struct {
	fx.In

	Config           *Config                     `optional:"true"`
	Clock            clock.Clock                 `optional:"true"`
	Strategy         interfaces.Strategy         `optional:"true"`
	ReconnectHandler interfaces.ReconnectHandler `optional:"true"`
	Callbacks        *interfaces.Callbacks       `optional:"true"`
	Recorder         *metrics.Recorder           `optional:"true"`
}

// ProvideManager 提供恢复管理器
func ProvideManager(p ManagerParams) *Manager {
	config := DefaultConfig()
	if p.Config != nil {
		cfg := *p.Config
		config = &cfg
	}
	m := NewManager(config, Deps{
		Clock:            p.Clock,
		Strategy:         p.Strategy,
		ReconnectHandler: p.ReconnectHandler,
		Recorder:         p.Recorder,
	})
	if p.Callbacks != nil {
		m.SetCallbacks(*p.Callbacks)
	}
	return m
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In
	LC      fx.Lifecycle
	Manager *Manager
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Manager.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return input.Manager.Stop()
		},
	})
}
