package netmon

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
//                              PollingWatcher
// ============================================================================

// PollingWatcher 基于轮询的网络变化事件源
//
// 每个轮询周期比较非 loopback 接口的指纹，有变化时发出具体事件；
// 可用接口从无到有发出 EventOnline，从有到无发出 EventOffline，
// 主接口类型变化发出 EventTypeChanged。
type PollingWatcher struct {
	mu sync.Mutex

	config *WatcherConfig
	clock  clock.Clock

	events chan NetworkEvent

	lastFingerprint string
	lastInterfaces  map[string]InterfaceInfo

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPollingWatcher 创建轮询事件源
func NewPollingWatcher(config *WatcherConfig) *PollingWatcher {
	if config == nil {
		config = DefaultWatcherConfig()
	}
	config.Validate()

	return &PollingWatcher{
		config:         config,
		clock:          config.Clock,
		events:         make(chan NetworkEvent, config.EventBufferSize),
		lastInterfaces: make(map[string]InterfaceInfo),
	}
}

// Start 启动监听
func (w *PollingWatcher) Start(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	current := w.snapshot()
	w.mu.Lock()
	w.lastInterfaces = current
	w.lastFingerprint = fingerprint(current)
	w.mu.Unlock()

	ticker := w.clock.Ticker(w.config.PollInterval)

	w.wg.Add(1)
	go w.pollLoop(ctx, ticker)

	logger.Info("网络变化监听器已启动", "poll_interval", w.config.PollInterval)
	return nil
}

// Stop 停止监听
func (w *PollingWatcher) Stop() error {
	if !w.running.CompareAndSwap(true, false) {
		return nil
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()

	logger.Info("网络变化监听器已停止")
	return nil
}

// Events 返回事件通道
func (w *PollingWatcher) Events() <-chan NetworkEvent {
	return w.events
}

// IsRunning 检查是否运行
func (w *PollingWatcher) IsRunning() bool {
	return w.running.Load()
}

// ============================================================================
//                              轮询逻辑
// ============================================================================

func (w *PollingWatcher) pollLoop(ctx context.Context, ticker *clock.Ticker) {
	defer w.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkNetworkChange()
		}
	}
}

// checkNetworkChange 比较接口快照并发出事件
func (w *PollingWatcher) checkNetworkChange() {
	current := w.snapshot()
	fp := fingerprint(current)

	w.mu.Lock()
	last := w.lastInterfaces
	lastFP := w.lastFingerprint
	w.lastInterfaces = current
	w.lastFingerprint = fp
	w.mu.Unlock()

	if fp == lastFP {
		return
	}

	events := detectChanges(last, current, w.clock.Now())
	if len(events) == 0 {
		events = append(events, NetworkEvent{Type: EventNetworkChanged, Timestamp: w.clock.Now()})
	}

	for _, ev := range events {
		select {
		case w.events <- ev:
			logger.Debug("发送网络事件", "type", ev.Type.String(), "interface", ev.Interface)
		default:
			logger.Warn("网络事件缓冲区已满，丢弃事件", "type", ev.Type.String())
		}
	}
}

func (w *PollingWatcher) snapshot() map[string]InterfaceInfo {
	out := make(map[string]InterfaceInfo)
	ifaces, err := w.config.Lister()
	if err != nil {
		logger.Debug("枚举网络接口失败", "error", err)
		return out
	}
	for _, iface := range ifaces {
		if iface.Loopback {
			continue
		}
		out[iface.Name] = iface
	}
	return out
}

// detectChanges 比较两次快照，返回具体事件
//
// 在线/离线与类型变化事件排在最后，接收方按最后一个事件刷新信息。
func detectChanges(old, cur map[string]InterfaceInfo, now time.Time) []NetworkEvent {
	var events []NetworkEvent

	for _, name := range sortedNames(cur) {
		info := cur[name]
		prev, existed := old[name]
		switch {
		case !existed && info.Up:
			events = append(events, NetworkEvent{Type: EventInterfaceUp, Interface: name, Timestamp: now})
		case existed && !prev.Up && info.Up:
			events = append(events, NetworkEvent{Type: EventInterfaceUp, Interface: name, Timestamp: now})
		case existed && prev.Up && !info.Up:
			events = append(events, NetworkEvent{Type: EventInterfaceDown, Interface: name, Timestamp: now})
		}

		before := make(map[string]bool, len(prev.Addresses))
		for _, a := range prev.Addresses {
			before[a] = true
		}
		after := make(map[string]bool, len(info.Addresses))
		for _, a := range info.Addresses {
			after[a] = true
			if !before[a] {
				events = append(events, NetworkEvent{Type: EventAddressAdded, Interface: name, Address: a, Timestamp: now})
			}
		}
		for _, a := range prev.Addresses {
			if !after[a] {
				events = append(events, NetworkEvent{Type: EventAddressRemoved, Interface: name, Address: a, Timestamp: now})
			}
		}
	}

	for _, name := range sortedNames(old) {
		if _, ok := cur[name]; !ok && old[name].Up {
			events = append(events, NetworkEvent{Type: EventInterfaceDown, Interface: name, Timestamp: now})
		}
	}

	wasOnline, isOnline := anyUsable(old), anyUsable(cur)
	switch {
	case !wasOnline && isOnline:
		events = append(events, NetworkEvent{Type: EventOnline, Timestamp: now})
	case wasOnline && !isOnline:
		events = append(events, NetworkEvent{Type: EventOffline, Timestamp: now})
	}

	if isOnline {
		oldPrimary, newPrimary := primary(old), primary(cur)
		if wasOnline && oldPrimary.Type != newPrimary.Type {
			events = append(events, NetworkEvent{
				Type:           EventTypeChanged,
				Interface:      newPrimary.Name,
				ConnectionType: newPrimary.Type,
				Timestamp:      now,
			})
		}
	}

	return events
}

// fingerprint 基于接口名、状态和地址计算指纹
func fingerprint(ifaces map[string]InterfaceInfo) string {
	parts := make([]string, 0, len(ifaces))
	for _, name := range sortedNames(ifaces) {
		info := ifaces[name]
		addrs := append([]string(nil), info.Addresses...)
		sort.Strings(addrs)
		up := "down"
		if info.Up {
			up = "up"
		}
		parts = append(parts, name+":"+up+":["+strings.Join(addrs, ",")+"]")
	}
	return strings.Join(parts, "|")
}

func sortedNames(m map[string]InterfaceInfo) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
