package linkrecover

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-linkrecover/config"
	"github.com/dep2p/go-linkrecover/internal/core/metrics"
	"github.com/dep2p/go-linkrecover/internal/core/recovery"
	"github.com/dep2p/go-linkrecover/internal/core/recovery/netmon"
	"github.com/dep2p/go-linkrecover/internal/core/recovery/strategy"
	"github.com/dep2p/go-linkrecover/internal/core/transport"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("linkrecover")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入：recovery / netmon / metrics 组件配置
//  2. 指标：metrics.Recorder（可选注册到 Prometheus）
//  3. 恢复：Manager + ChangeWatcher（ResilienceModule）
//  4. 信令链路（可选）：sipws 传输 + 注册器，启动后交给 Manager 监控
func buildFxApp(o *options, cfg *config.Config, e *Engine) *fx.App {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置注入
	// ════════════════════════════════════════════════════════════════════════
	modules := []fx.Option{
		fx.Supply(recoveryConfigFrom(cfg.Recovery)),
		fx.Supply(netmonConfigFrom(cfg.Network)),
		fx.Supply(metricsConfigFrom(cfg.Recovery)),
	}

	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.strategy != nil {
		s := o.strategy
		modules = append(modules, fx.Provide(func() interfaces.Strategy { return s }))
	}
	if o.reconnect != nil {
		h := o.reconnect
		modules = append(modules, fx.Provide(func() interfaces.ReconnectHandler { return h }))
	}
	if o.callbacks != nil {
		modules = append(modules, fx.Supply(o.callbacks))
	}
	if o.source != nil {
		src := o.source
		modules = append(modules, fx.Provide(func() netmon.SystemWatcher { return src }))
	}
	if o.sampler != nil {
		s := o.sampler
		modules = append(modules, fx.Provide(func() netmon.Sampler { return s }))
	}
	if o.prober != nil {
		p := o.prober
		modules = append(modules, fx.Provide(func() netmon.Prober { return p }))
	}
	if o.registerer != nil {
		reg := o.registerer
		modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 指标与恢复
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		metrics.Module,
		recovery.ResilienceModule(),
		fx.Populate(&e.manager, &e.watcher, &e.recorder),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 3. 信令链路（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if cfg.Signaling.Enabled() {
		tc := transportConfigFrom(cfg.Signaling)
		modules = append(modules,
			fx.Supply(&tc),
			transport.Module(),
			fx.Invoke(monitorSignaling),
			fx.Populate(&e.signaling),
		)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. Fx 配置
	// ════════════════════════════════════════════════════════════════════════
	zl := o.fxLogger
	if zl == nil {
		zl = zap.NewNop()
	}
	modules = append(modules,
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zl}
		}),
	)

	return fx.New(modules...)
}

// monitorSignaling 信令链路启动（连接并注册）后交给 Manager 监控
//
// 在 transport.Module 的启动钩子之后执行，首次连接不会被当作断开后恢复。
func monitorSignaling(lc fx.Lifecycle, sig *transport.Signaling, m *recovery.Manager) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return m.Monitor(sig.Connection())
		},
		OnStop: func(_ context.Context) error {
			m.StopMonitoring()
			return nil
		},
	})
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置转换
// ════════════════════════════════════════════════════════════════════════════

// recoveryConfigFrom 从统一配置创建恢复配置
func recoveryConfigFrom(c config.RecoveryConfig) *recovery.Config {
	trigger := recovery.TriggerFailure
	if c.Trigger == config.TriggerRestore {
		trigger = recovery.TriggerRestore
	}
	rc := &recovery.Config{
		MaxAttempts:        c.MaxAttempts,
		AttemptDelay:       c.AttemptDelay.Duration(),
		ExponentialBackoff: c.ExponentialBackoff,
		MaxBackoffDelay:    c.MaxBackoffDelay.Duration(),
		StabilizationDelay: c.StabilizationDelay.Duration(),
		Strategy:           strategy.Name(c.Strategy),
		AutoRecover:        c.AutoRecover,
		Trigger:            trigger,
		AttemptTimeout:     c.AttemptTimeout.Duration(),
		HistoryLimit:       c.HistoryLimit,
		LinkName:           c.LinkName,
	}
	rc.Validate()
	return rc
}

// netmonConfigFrom 从统一配置创建网络变化配置
func netmonConfigFrom(c config.NetworkConfig) *netmon.Config {
	nc := &netmon.Config{
		AutoReconnect:      c.AutoReconnectOnNetworkChange,
		NetworkChangeDelay: c.NetworkChangeDelay.Duration(),
		PollInterval:       c.PollInterval.Duration(),
		STUNServers:        append([]string(nil), c.STUNServers...),
		ProbeTimeout:       c.ProbeTimeout.Duration(),
	}
	nc.Validate()
	return nc
}

// metricsConfigFrom 指标配置，链路名作为固定标签
func metricsConfigFrom(c config.RecoveryConfig) *metrics.Config {
	mc := metrics.DefaultConfig()
	mc.HistoryLimit = c.HistoryLimit
	mc.ConstLabels = prometheus.Labels{"link": c.LinkName}
	return &mc
}

// transportConfigFrom 从统一配置创建信令配置
func transportConfigFrom(c config.SignalingConfig) transport.Config {
	return transport.Config{
		URL:             c.URL,
		Server:          c.Server,
		AOR:             c.AOR,
		RegisterExpires: c.RegisterExpires,
		RegisterTimeout: c.RegisterTimeout.Duration(),
		RedialInterval:  c.RedialInterval.Duration(),
		DialTimeout:     c.DialTimeout.Duration(),
	}
}
