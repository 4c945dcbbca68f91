package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-linkrecover/internal/util/listeners"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// MockConnection 模拟被监控的连接
type MockConnection struct {
	mu    sync.RWMutex
	state interfaces.LinkState
	subs  listeners.Registry[func(interfaces.LinkState)]

	// 可覆盖的方法
	RestartICEFunc          func() error
	CreateOfferFunc         func(ctx context.Context, iceRestart bool) (interfaces.SessionDescription, error)
	SetLocalDescriptionFunc func(ctx context.Context, desc interfaces.SessionDescription) error

	// 调用记录
	RestartICECalls          atomic.Int32
	CreateOfferCalls         atomic.Int32
	SetLocalDescriptionCalls atomic.Int32
	SubscribeCalls           atomic.Int32
	LastOfferRestartFlag     atomic.Bool
}

var (
	_ interfaces.Connection   = (*MockConnection)(nil)
	_ interfaces.ICERestarter = (*MockConnection)(nil)
)

// NewMockConnection 创建处于给定状态的 MockConnection
func NewMockConnection(state interfaces.LinkState) *MockConnection {
	return &MockConnection{state: state}
}

// State 实现 Connection
func (m *MockConnection) State() interfaces.LinkState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe 实现 Connection
func (m *MockConnection) Subscribe(handler func(interfaces.LinkState)) func() {
	m.SubscribeCalls.Add(1)
	return m.subs.Add(handler)
}

// SetState 修改状态并同步通知订阅者
func (m *MockConnection) SetState(s interfaces.LinkState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()

	for _, fn := range m.subs.Snapshot() {
		fn(s)
	}
}

// SetStateSilently 修改状态但不通知订阅者
func (m *MockConnection) SetStateSilently(s interfaces.LinkState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Listeners 返回当前订阅者数量
func (m *MockConnection) Listeners() int {
	return m.subs.Len()
}

// RestartICE 实现 ICERestarter
func (m *MockConnection) RestartICE() error {
	m.RestartICECalls.Add(1)
	if m.RestartICEFunc != nil {
		return m.RestartICEFunc()
	}
	return nil
}

// CreateOffer 实现 ICERestarter
func (m *MockConnection) CreateOffer(ctx context.Context, iceRestart bool) (interfaces.SessionDescription, error) {
	m.CreateOfferCalls.Add(1)
	m.LastOfferRestartFlag.Store(iceRestart)
	if m.CreateOfferFunc != nil {
		return m.CreateOfferFunc(ctx, iceRestart)
	}
	return interfaces.SessionDescription{Type: "offer", SDP: "v=0\r\n"}, nil
}

// SetLocalDescription 实现 ICERestarter
func (m *MockConnection) SetLocalDescription(ctx context.Context, desc interfaces.SessionDescription) error {
	m.SetLocalDescriptionCalls.Add(1)
	if m.SetLocalDescriptionFunc != nil {
		return m.SetLocalDescriptionFunc(ctx, desc)
	}
	return nil
}

// NewPlainConnection 创建不支持 ICE 重启的连接
//
// 返回的 MockConnection 用于驱动状态变化。
func NewPlainConnection(state interfaces.LinkState) (interfaces.Connection, *MockConnection) {
	m := NewMockConnection(state)
	return plainConn{m: m}, m
}

type plainConn struct {
	m *MockConnection
}

func (p plainConn) State() interfaces.LinkState { return p.m.State() }

func (p plainConn) Subscribe(h func(interfaces.LinkState)) func() { return p.m.Subscribe(h) }
