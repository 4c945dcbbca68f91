// Package health 监控被监控连接的原生状态
//
// Monitor 订阅连接的原生状态变更，维护 ConnectionHealthSnapshot，
// 并把状态转换（LinkTransition）分发给注册的监听器（通常是恢复编排器）。
//
// 回调是同步且可重入的：只写快照、分发转换，从不阻塞。
// 更换连接时先完全解绑旧连接，旧连接迟到的回调按代号丢弃。
package health

import (
	"errors"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-linkrecover/internal/util/listeners"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("core/health")

// ErrNilConnection 监控空连接
var ErrNilConnection = errors.New("cannot monitor a nil connection")

// Monitor 连接健康监控器
type Monitor struct {
	mu sync.RWMutex

	clock clock.Clock

	conn        interfaces.Connection
	unsubscribe func()
	generation  uint64

	snapshot   interfaces.ConnectionHealthSnapshot
	monitoring bool

	// broken 自上次健康以来是否观察到断开/失败
	broken bool

	transitions listeners.Registry[func(interfaces.LinkTransition)]
}

// NewMonitor 创建监控器
func NewMonitor(clk clock.Clock) *Monitor {
	if clk == nil {
		clk = clock.New()
	}
	return &Monitor{clock: clk}
}

// ============================================================================
//                              绑定 / 解绑
// ============================================================================

// Monitor 绑定连接并立即捕获其当前状态
//
// 已绑定其他连接时先完全解绑。返回的令牌等价于 StopMonitoring，
// 但只对本次绑定生效。
func (m *Monitor) Monitor(conn interfaces.Connection) (func(), error) {
	if conn == nil {
		return nil, ErrNilConnection
	}

	m.StopMonitoring()

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.conn = conn
	m.monitoring = true
	m.setSnapshotLocked(conn.State())
	m.broken = m.snapshot.LinkState.IsBroken()
	m.mu.Unlock()

	unsub := conn.Subscribe(func(s interfaces.LinkState) {
		m.handleNative(gen, s)
	})

	m.mu.Lock()
	if m.generation != gen {
		// 订阅期间已被替换
		m.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		return func() {}, nil
	}
	m.unsubscribe = unsub
	state := m.snapshot.LinkState
	m.mu.Unlock()

	logger.Debug("开始监控连接", "state", state.String())

	return func() {
		m.mu.RLock()
		current := m.generation == gen
		m.mu.RUnlock()
		if current {
			m.StopMonitoring()
		}
	}, nil
}

// StopMonitoring 解绑全部原生监听器（幂等）
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	if !m.monitoring {
		m.mu.Unlock()
		return
	}
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.conn = nil
	m.monitoring = false
	m.broken = false
	m.generation++
	m.snapshot = interfaces.ConnectionHealthSnapshot{}
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	logger.Debug("停止监控连接")
}

// Refresh 从连接重新捕获实际状态
//
// 不分发转换事件，用于 reset。
func (m *Monitor) Refresh() interfaces.ConnectionHealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		m.snapshot = interfaces.ConnectionHealthSnapshot{}
		return m.snapshot
	}
	m.setSnapshotLocked(m.conn.State())
	m.broken = m.snapshot.LinkState.IsBroken()
	return m.snapshot
}

// ============================================================================
//                              查询
// ============================================================================

// Snapshot 返回当前快照
func (m *Monitor) Snapshot() interfaces.ConnectionHealthSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// LinkState 返回当前链路状态
func (m *Monitor) LinkState() interfaces.LinkState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.LinkState
}

// IsHealthy 健康谓词
func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.IsHealthy
}

// Connection 返回当前被监控的连接
func (m *Monitor) Connection() interfaces.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

// Monitoring 是否正在监控
func (m *Monitor) Monitoring() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.monitoring
}

// Generation 当前绑定代数，每次绑定或解绑递增
func (m *Monitor) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// OnTransition 注册状态转换监听器，返回取消令牌
func (m *Monitor) OnTransition(fn func(interfaces.LinkTransition)) (cancel func()) {
	return m.transitions.Add(fn)
}

// ============================================================================
//                              内部方法
// ============================================================================

// handleNative 处理原生状态回调
func (m *Monitor) handleNative(gen uint64, s interfaces.LinkState) {
	m.mu.Lock()
	if m.generation != gen || !m.monitoring {
		m.mu.Unlock()
		logger.Debug("丢弃已解绑连接的状态回调", "state", s.String())
		return
	}

	prev := m.snapshot.LinkState
	m.setSnapshotLocked(s)

	afterBreak := false
	switch {
	case s.IsBroken():
		m.broken = true
	case s.IsHealthy():
		afterBreak = m.broken
		m.broken = false
	}

	tr := interfaces.LinkTransition{
		Previous:   prev,
		Current:    s,
		At:         m.snapshot.ObservedAt,
		AfterBreak: afterBreak,
		Generation: gen,
	}
	m.mu.Unlock()

	logger.Debug("链路状态变更",
		"previous", prev.String(),
		"current", s.String(),
		"after_break", afterBreak)

	for _, fn := range m.transitions.Snapshot() {
		fn(tr)
	}
}

func (m *Monitor) setSnapshotLocked(s interfaces.LinkState) {
	m.snapshot = interfaces.ConnectionHealthSnapshot{
		LinkState:  s,
		ObservedAt: m.clock.Now(),
		IsHealthy:  s.IsHealthy(),
	}
}
