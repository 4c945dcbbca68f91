package netmon

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
)

// Module 返回 Fx 模块
//
// 只提供 ChangeWatcher；与恢复管理器的接线见 recovery.ResilienceModule。
func Module() fx.Option {
	return fx.Module("netmon",
		fx.Provide(ProvideChangeWatcher),
	)
}

// watcherParams 监听器依赖参数
type watcherParams struct {
	fx.In

	Config  *Config       `optional:"true"`
	Clock   clock.Clock   `optional:"true"`
	Source  SystemWatcher `optional:"true"`
	Sampler Sampler       `optional:"true"`
	Prober  Prober        `optional:"true"`
}

// ProvideChangeWatcher 提供网络变化监听器
func ProvideChangeWatcher(p watcherParams) *ChangeWatcher {
	config := DefaultConfig()
	if p.Config != nil {
		cfg := *p.Config
		config = &cfg
	}
	return NewChangeWatcher(config, Deps{
		Clock:   p.Clock,
		Source:  p.Source,
		Sampler: p.Sampler,
		Prober:  p.Prober,
	})
}
