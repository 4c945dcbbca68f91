package linkrecover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-linkrecover/config"
	"github.com/dep2p/go-linkrecover/internal/core/metrics"
	"github.com/dep2p/go-linkrecover/internal/core/recovery"
	"github.com/dep2p/go-linkrecover/internal/core/recovery/netmon"
	"github.com/dep2p/go-linkrecover/internal/core/transport"
)

// Engine 链路恢复引擎
//
// 并发安全。所有查询方法在 Close 之后仍可调用。
type Engine struct {
	mu sync.Mutex

	config *config.Config
	app    *fx.App

	manager   *recovery.Manager
	watcher   *netmon.ChangeWatcher
	recorder  *metrics.Recorder
	signaling *transport.Signaling

	started bool
	closed  bool
}

// ════════════════════════════════════════════════════════════════════════════
//                              构造函数
// ════════════════════════════════════════════════════════════════════════════

// New 创建引擎
//
// 创建引擎但不启动网络监听和信令链路，需要调用 Start()。
// Monitor / TriggerRecovery 在 New 之后即可使用。
//
// 示例：
//
//	engine, err := linkrecover.New(
//	    linkrecover.WithPreset(linkrecover.PresetSignaling),
//	    linkrecover.WithReconnectHandler(reregister),
//	)
func New(opts ...Option) (*Engine, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}

	e := &Engine{config: cfg}
	e.app = buildFxApp(o, cfg, e)
	if err := e.app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}

	logger.Debug("引擎已创建",
		"strategy", cfg.Recovery.Strategy,
		"trigger", cfg.Recovery.Trigger,
		"signaling", cfg.Signaling.Enabled())
	return e, nil
}

// Start 快捷启动函数
//
// 等价于 New() + Start()。
func Start(ctx context.Context, opts ...Option) (*Engine, error) {
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Start(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}
	return e, nil
}

// Start 启动网络变化监听和信令链路（如已配置）
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}
	if err := e.app.Start(ctx); err != nil {
		return err
	}
	e.started = true

	logger.Info("引擎已启动", "link", e.config.Recovery.LinkName)
	return nil
}

// Close 停止引擎并释放所有资源
//
// 取消进行中的恢复周期和定时器、解绑链路、停止网络监听。幂等。
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	started := e.started
	e.mu.Unlock()

	var errs error
	if started {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		errs = multierr.Append(errs, e.app.Stop(ctx))
		cancel()
	}
	errs = multierr.Append(errs, e.manager.Close())

	logger.Info("引擎已关闭")
	return errs
}

// ════════════════════════════════════════════════════════════════════════════
//                              链路监控
// ════════════════════════════════════════════════════════════════════════════

// Monitor 开始监控链路，替换之前的链路
//
// 立即捕获链路当前状态。累计指标和尝试历史在替换链路时保留。
func (e *Engine) Monitor(conn Connection) error {
	return e.manager.Monitor(conn)
}

// StopMonitoring 解绑链路并取消进行中的恢复
func (e *Engine) StopMonitoring() {
	e.manager.StopMonitoring()
}

// TriggerRecovery 手动触发恢复
//
// 链路未连接时返回携带链路名的错误（errors.Is(err, ErrNotConnected)）。
// 进行中的恢复周期会被取消并重新开始。
func (e *Engine) TriggerRecovery() error {
	return e.manager.TriggerRecovery()
}

// Reset 取消恢复并清空尝试历史、计数和最近错误，从链路重新读取状态
func (e *Engine) Reset() {
	e.manager.Reset()
}

// ════════════════════════════════════════════════════════════════════════════
//                              查询
// ════════════════════════════════════════════════════════════════════════════

// State 恢复状态
func (e *Engine) State() RecoveryState {
	return e.manager.State()
}

// IsRecovering 是否正在恢复
func (e *Engine) IsRecovering() bool {
	return e.manager.IsRecovering()
}

// IsHealthy 链路是否健康
func (e *Engine) IsHealthy() bool {
	return e.manager.Snapshot().IsHealthy
}

// Snapshot 链路健康快照，未监控时为零值
func (e *Engine) Snapshot() HealthSnapshot {
	return e.manager.Snapshot()
}

// Attempts 尝试历史副本，按发生顺序
func (e *Engine) Attempts() []RecoveryAttempt {
	return e.manager.Attempts()
}

// Metrics 累计指标
func (e *Engine) Metrics() RecoveryMetrics {
	return e.manager.Metrics()
}

// LastError 最近一次失败信息，成功或 Reset 后清空
func (e *Engine) LastError() string {
	return e.manager.LastError()
}

// Config 生效的配置副本
func (e *Engine) Config() config.Config {
	return *config.CloneConfig(e.config)
}

// ════════════════════════════════════════════════════════════════════════════
//                              网络变化
// ════════════════════════════════════════════════════════════════════════════

// NetworkInfo 最近的网络信息
func (e *Engine) NetworkInfo() NetworkInfo {
	return e.watcher.Info()
}

// NotifyNetwork 注入宿主观察到的网络事件（online/offline/type changed 等）
//
// 引擎未启动时忽略。不阻塞调用方，NetworkInfo 与 OnNetworkChange 在采样完成后更新。
func (e *Engine) NotifyNetwork(ev NetworkEvent) {
	e.watcher.Notify(ev)
}

// ════════════════════════════════════════════════════════════════════════════
//                              可观测性
// ════════════════════════════════════════════════════════════════════════════

// Collector 返回 Prometheus Collector
func (e *Engine) Collector() prometheus.Collector {
	return e.recorder
}

// ════════════════════════════════════════════════════════════════════════════
//                              信令链路
// ════════════════════════════════════════════════════════════════════════════

// SignalingLink 返回被监控的信令传输，未配置时返回 ErrNoSignaling
func (e *Engine) SignalingLink() (Connection, error) {
	if e.signaling == nil {
		return nil, ErrNoSignaling
	}
	return e.signaling.Connection(), nil
}
