package netmon

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
//                              SystemWatcher 接口
// ============================================================================

// SystemWatcher 系统网络变化事件源
type SystemWatcher interface {
	// Start 启动监听
	Start(ctx context.Context) error

	// Stop 停止监听
	Stop() error

	// Events 返回事件通道
	Events() <-chan NetworkEvent

	// IsRunning 检查是否正在运行
	IsRunning() bool
}

// ============================================================================
//                              网络事件
// ============================================================================

// NetworkEvent 网络变化事件
type NetworkEvent struct {
	// Type 事件类型
	Type NetworkEventType

	// Interface 接口名称（如 "en0", "wlan0"）
	Interface string

	// Address 相关地址（可选）
	Address string

	// ConnectionType 新的连接类型（EventTypeChanged 时有效）
	ConnectionType string

	// Timestamp 事件时间
	Timestamp time.Time
}

// NetworkEventType 网络事件类型
type NetworkEventType int

const (
	// EventNetworkChanged 通用网络变化事件
	EventNetworkChanged NetworkEventType = iota

	// EventInterfaceUp 接口启用
	EventInterfaceUp

	// EventInterfaceDown 接口禁用
	EventInterfaceDown

	// EventAddressAdded 地址添加
	EventAddressAdded

	// EventAddressRemoved 地址移除
	EventAddressRemoved

	// EventOnline 主机恢复在线
	EventOnline

	// EventOffline 主机离线
	EventOffline

	// EventTypeChanged 连接类型变化（如 wifi → cellular）
	EventTypeChanged
)

// String 返回事件类型字符串
func (t NetworkEventType) String() string {
	switch t {
	case EventNetworkChanged:
		return "network_changed"
	case EventInterfaceUp:
		return "interface_up"
	case EventInterfaceDown:
		return "interface_down"
	case EventAddressAdded:
		return "address_added"
	case EventAddressRemoved:
		return "address_removed"
	case EventOnline:
		return "online"
	case EventOffline:
		return "offline"
	case EventTypeChanged:
		return "type_changed"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              NoOpWatcher
// ============================================================================

// NoOpWatcher 空操作事件源
//
// 禁用系统监听时使用，事件只来自宿主 Notify()。
type NoOpWatcher struct {
	events chan NetworkEvent
}

// NewNoOpWatcher 创建空操作事件源
func NewNoOpWatcher() *NoOpWatcher {
	return &NoOpWatcher{
		events: make(chan NetworkEvent),
	}
}

// Start 启动（空操作）
func (w *NoOpWatcher) Start(_ context.Context) error {
	return nil
}

// Stop 停止（空操作）
func (w *NoOpWatcher) Stop() error {
	return nil
}

// Events 返回事件通道（永远不会有事件）
func (w *NoOpWatcher) Events() <-chan NetworkEvent {
	return w.events
}

// IsRunning 检查是否运行
func (w *NoOpWatcher) IsRunning() bool {
	return false
}

// ============================================================================
//                              WatcherConfig
// ============================================================================

// WatcherConfig 事件源配置
type WatcherConfig struct {
	// Enabled 是否启用系统监听
	// 默认: true
	Enabled bool

	// PollInterval 轮询间隔
	// 默认: 5s
	PollInterval time.Duration

	// EventBufferSize 事件缓冲区大小
	// 默认: 16
	EventBufferSize int

	// Clock 时钟，测试中注入 clock.NewMock()
	Clock clock.Clock

	// Lister 接口枚举函数，默认 ListInterfaces
	Lister func() ([]InterfaceInfo, error)
}

// DefaultWatcherConfig 返回默认配置
func DefaultWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		Enabled:         true,
		PollInterval:    5 * time.Second,
		EventBufferSize: 16,
	}
}

// Validate 修正无效值为默认值
func (c *WatcherConfig) Validate() {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = 16
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Lister == nil {
		c.Lister = ListInterfaces
	}
}

// NewSystemWatcher 按配置创建事件源
func NewSystemWatcher(config *WatcherConfig) SystemWatcher {
	if config == nil {
		config = DefaultWatcherConfig()
	}
	if !config.Enabled {
		return NewNoOpWatcher()
	}
	return NewPollingWatcher(config)
}
