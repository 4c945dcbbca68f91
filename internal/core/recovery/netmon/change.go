package netmon

import (
	"context"
	"errors"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-linkrecover/internal/util/listeners"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// ErrAlreadyWatching 已在监听
var ErrAlreadyWatching = errors.New("network change watcher already watching")

// TriggerFunc 防抖结束后调用，参数为最后一个事件对应的网络信息
type TriggerFunc func(info interfaces.NetworkInfo)

// Deps ChangeWatcher 依赖
type Deps struct {
	// Clock 时钟
	Clock clock.Clock

	// Source 系统事件源；为 nil 时按 PollInterval 创建
	Source SystemWatcher

	// Sampler 网络信息采样；为 nil 时使用 HostSampler
	Sampler Sampler

	// Prober RTT 探测；为 nil 且配置了 STUNServers 时使用 STUNProber
	Prober Prober
}

// ============================================================================
//                              ChangeWatcher
// ============================================================================

// ChangeWatcher 网络变化监听与防抖
type ChangeWatcher struct {
	mu sync.Mutex

	config  *Config
	clock   clock.Clock
	source  SystemWatcher
	sampler Sampler

	info      interfaces.NetworkInfo
	observers listeners.Registry[func(interfaces.NetworkInfo)]

	watching bool
	watchGen uint64
	trigger  TriggerFunc
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// seq 为最近一次 Notify 的序号，applied 为已生效采样的序号；
	// 采样并发完成时序号小于 applied 的结果被丢弃
	seq      uint64
	applied  uint64
	sampling sync.WaitGroup
	// commitMu 串行化采样提交与观察者通知，观察者按提交顺序收到信息
	commitMu sync.Mutex

	debounce    *clock.Timer
	debounceGen uint64
	// firePending 防抖已到期但最新事件的采样尚未完成
	firePending bool
}

// NewChangeWatcher 创建网络变化监听器
func NewChangeWatcher(config *Config, deps Deps) *ChangeWatcher {
	if config == nil {
		config = DefaultConfig()
	}
	config.Validate()

	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	source := deps.Source
	if source == nil {
		wc := DefaultWatcherConfig()
		wc.Enabled = config.PollInterval > 0
		wc.PollInterval = config.PollInterval
		wc.Clock = clk
		source = NewSystemWatcher(wc)
	}

	sampler := deps.Sampler
	if sampler == nil {
		prober := deps.Prober
		if prober == nil && len(config.STUNServers) > 0 {
			prober = NewSTUNProber(config.STUNServers, config.ProbeTimeout)
		}
		sampler = NewHostSampler(prober, clk)
	}

	return &ChangeWatcher{
		config:  config,
		clock:   clk,
		source:  source,
		sampler: sampler,
		info:    interfaces.NetworkInfo{IsOnline: true},
	}
}

// Watch 开始监听，trigger 在防抖结束且在线时调用
//
// 返回的 stop 同时移除系统事件源和宿主 Notify 路径，可重复调用。
func (w *ChangeWatcher) Watch(ctx context.Context, trigger TriggerFunc) (stop func(), err error) {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil, ErrAlreadyWatching
	}
	w.watching = true
	w.watchGen++
	gen := w.watchGen
	w.trigger = trigger
	loopCtx, cancel := context.WithCancel(ctx)
	w.ctx = loopCtx
	w.cancel = cancel
	w.mu.Unlock()

	if err := w.source.Start(loopCtx); err != nil {
		w.stop(gen)
		return nil, err
	}

	w.wg.Add(1)
	go w.loop(loopCtx, gen)

	logger.Debug("开始监听网络变化",
		"auto_reconnect", w.config.AutoReconnect,
		"delay", w.config.NetworkChangeDelay)

	var once sync.Once
	return func() {
		once.Do(func() { w.stop(gen) })
	}, nil
}

// Notify 注入宿主网络事件（online/offline/type changed 等）
//
// 未在监听时忽略。Notify 不阻塞：防抖窗口按事件到达时间立即重置，
// 网络信息采样（可能包含 RTT 探测）在后台完成，最后到达的事件总是最终生效。
func (w *ChangeWatcher) Notify(ev NetworkEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = w.clock.Now()
	}

	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		return
	}
	gen := w.watchGen
	ctx := w.ctx
	w.seq++
	seq := w.seq

	// 每个事件重置防抖窗口
	w.stopDebounceLocked()
	if w.config.AutoReconnect && ev.Type != EventOffline {
		dgen := w.debounceGen
		w.debounce = w.clock.AfterFunc(w.config.NetworkChangeDelay, func() { w.fire(dgen) })
	}
	w.sampling.Add(1)
	w.mu.Unlock()

	go w.sample(ctx, gen, seq, ev)
}

// sample 采样并提交事件对应的网络信息
func (w *ChangeWatcher) sample(ctx context.Context, gen, seq uint64, ev NetworkEvent) {
	defer w.sampling.Done()

	ctx, cancel := context.WithTimeout(ctx, w.config.ProbeTimeout)
	info := w.sampler.Sample(ctx, ev)
	cancel()

	switch ev.Type {
	case EventOnline:
		info.IsOnline = true
	case EventOffline:
		info.IsOnline = false
	}
	if info.ObservedAt.IsZero() {
		info.ObservedAt = ev.Timestamp
	}

	w.commitMu.Lock()
	w.mu.Lock()
	if !w.watching || w.watchGen != gen {
		w.mu.Unlock()
		w.commitMu.Unlock()
		return
	}
	if seq < w.applied {
		w.mu.Unlock()
		w.commitMu.Unlock()
		logger.Debug("丢弃过期的网络采样", "event", ev.Type.String(), "seq", seq)
		return
	}
	w.applied = seq
	w.info = info

	var trigger TriggerFunc
	if seq == w.seq {
		switch {
		case !info.IsOnline:
			w.stopDebounceLocked()
		case w.firePending:
			w.firePending = false
			w.debounceGen++
			trigger = w.trigger
		}
	}
	observers := w.observers.Snapshot()
	w.mu.Unlock()

	logger.Info("网络变化",
		"event", ev.Type.String(),
		"type", info.ConnectionType,
		"effective", info.EffectiveType,
		"online", info.IsOnline)

	for _, fn := range observers {
		notifyObserver(fn, info)
	}
	w.commitMu.Unlock()

	if trigger != nil {
		logger.Info("网络变化稳定，触发恢复", "type", info.ConnectionType)
		trigger(info)
	}
}

// Info 返回最近的网络信息
func (w *ChangeWatcher) Info() interfaces.NetworkInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.info
}

// OnChange 注册网络信息观察者，返回取消令牌
func (w *ChangeWatcher) OnChange(fn func(interfaces.NetworkInfo)) (cancel func()) {
	return w.observers.Add(fn)
}

// Watching 是否正在监听
func (w *ChangeWatcher) Watching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// ============================================================================
//                              内部方法
// ============================================================================

func (w *ChangeWatcher) loop(ctx context.Context, gen uint64) {
	defer w.wg.Done()

	events := w.source.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.mu.Lock()
			current := w.watching && w.watchGen == gen
			w.mu.Unlock()
			if !current {
				return
			}
			w.Notify(ev)
		}
	}
}

// fire 防抖结束
func (w *ChangeWatcher) fire(dgen uint64) {
	w.mu.Lock()
	if !w.watching || dgen != w.debounceGen {
		w.mu.Unlock()
		return
	}
	w.debounce = nil
	if w.applied < w.seq {
		// 等最新事件的采样完成后再决定
		w.firePending = true
		w.mu.Unlock()
		logger.Debug("防抖到期，等待网络采样完成")
		return
	}
	w.debounceGen++
	trigger := w.trigger
	info := w.info
	w.mu.Unlock()

	if !info.IsOnline || trigger == nil {
		logger.Debug("离线，跳过网络变化恢复")
		return
	}

	logger.Info("网络变化稳定，触发恢复", "type", info.ConnectionType)
	trigger(info)
}

func (w *ChangeWatcher) stop(gen uint64) {
	w.mu.Lock()
	if !w.watching || w.watchGen != gen {
		w.mu.Unlock()
		return
	}
	w.watching = false
	w.watchGen++
	w.trigger = nil
	w.stopDebounceLocked()
	cancel := w.cancel
	w.cancel = nil
	w.ctx = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := w.source.Stop(); err != nil {
		logger.Warn("停止网络事件源失败", "error", err)
	}
	w.wg.Wait()
	w.sampling.Wait()

	logger.Debug("停止监听网络变化")
}

func (w *ChangeWatcher) stopDebounceLocked() {
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	w.debounceGen++
	w.firePending = false
}

func notifyObserver(fn func(interfaces.NetworkInfo), info interfaces.NetworkInfo) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("网络变化观察者 panic", "panic", r)
		}
	}()
	fn(info)
}
