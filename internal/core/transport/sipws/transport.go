// Package sipws 实现 SIP over WebSocket 信令传输（RFC 7118）
//
// Transport 维护一条 "sip" 子协议的 WebSocket 连接，对外暴露链路状态
// （connecting / connected / disconnected / closed），可以直接交给恢复引擎监控。
// 配置 ReconnectInterval 后，连接断开时传输层会自行重拨；
// 重新连通后由引擎的 restore 触发执行重新注册（Registrar.Register）。
package sipws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/dep2p/go-linkrecover/internal/util/listeners"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("transport/sipws")

// Subprotocol SIP WebSocket 子协议
const Subprotocol = "sip"

// 错误定义
var (
	// ErrClosed 传输已关闭
	ErrClosed = errors.New("sip transport closed")

	// ErrNotConnected 传输未连接
	ErrNotConnected = errors.New("sip transport not connected")

	// ErrSubprotocol 服务端未协商 sip 子协议
	ErrSubprotocol = errors.New("server did not negotiate sip subprotocol")
)

// Config 传输配置
type Config struct {
	// URL WebSocket 地址，如 wss://sip.example.com/ws
	URL string

	// Header 握手附加头
	Header http.Header

	// HandshakeTimeout 握手超时
	// 默认值: 10s
	HandshakeTimeout time.Duration

	// WriteTimeout 写超时
	// 默认值: 5s
	WriteTimeout time.Duration

	// ReconnectInterval 断开后自动重拨间隔，0 表示不自动重拨
	ReconnectInterval time.Duration

	// Clock 时钟
	Clock clock.Clock
}

// Validate 修正无效值为默认值
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("sip transport url is required")
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ReconnectInterval < 0 {
		c.ReconnectInterval = 0
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return nil
}

// ============================================================================
//                              Transport
// ============================================================================

// Transport SIP over WebSocket 传输
type Transport struct {
	mu sync.Mutex

	config Config
	dialer *websocket.Dialer

	conn   *websocket.Conn
	state  interfaces.LinkState
	gen    uint64
	closed bool

	redialing bool

	writeMu sync.Mutex

	subs     listeners.Registry[func(interfaces.LinkState)]
	handlers listeners.Registry[func([]byte)]
}

var _ interfaces.Connection = (*Transport)(nil)

// New 创建传输（不发起连接）
func New(config Config) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Transport{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
			Subprotocols:     []string{Subprotocol},
		},
		state: interfaces.LinkDisconnected,
	}, nil
}

// State 实现 Connection
func (t *Transport) State() interfaces.LinkState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe 实现 Connection
func (t *Transport) Subscribe(fn func(interfaces.LinkState)) func() {
	return t.subs.Add(fn)
}

// OnMessage 注册收到 SIP 消息时的回调，返回取消令牌
func (t *Transport) OnMessage(fn func([]byte)) func() {
	return t.handlers.Add(fn)
}

// Connect 建立 WebSocket 连接
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	t.setState(gen, interfaces.LinkConnecting)

	conn, resp, err := t.dialer.DialContext(ctx, t.config.URL, t.config.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err == nil && conn.Subprotocol() != Subprotocol {
		conn.Close()
		err = ErrSubprotocol
	}
	if err != nil {
		t.setState(gen, interfaces.LinkDisconnected)
		return fmt.Errorf("dial %s: %w", t.config.URL, err)
	}

	t.mu.Lock()
	if t.closed || t.gen != gen {
		t.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	t.conn = conn
	t.mu.Unlock()

	go t.readLoop(gen, conn)
	t.setState(gen, interfaces.LinkConnected)

	logger.Info("SIP 传输已连接", "url", t.config.URL)
	return nil
}

// Reconnect 断开当前连接（如有）并重新连接
//
// 签名与 ReconnectHandler 一致，可直接作为 reconnect 策略的回调。
func (t *Transport) Reconnect(ctx context.Context) (bool, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false, ErrClosed
	}
	old := t.conn
	t.conn = nil
	t.gen++
	t.mu.Unlock()

	if old != nil {
		old.Close()
	}
	if err := t.Connect(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Send 发送一条 SIP 消息
func (t *Transport) Send(ctx context.Context, msg []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	deadline := t.config.Clock.Now().Add(t.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// Close 关闭传输，之后不再重拨
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	conn := t.conn
	t.conn = nil
	t.gen++
	t.state = interfaces.LinkClosed
	t.mu.Unlock()

	var err error
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			t.config.Clock.Now().Add(time.Second))
		err = conn.Close()
	}
	t.emit(interfaces.LinkClosed)
	logger.Info("SIP 传输已关闭", "url", t.config.URL)
	return err
}

// ============================================================================
//                              内部方法
// ============================================================================

func (t *Transport) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.handleDrop(gen, err)
			return
		}
		for _, fn := range t.handlers.Snapshot() {
			fn(data)
		}
	}
}

// handleDrop 连接断开
func (t *Transport) handleDrop(gen uint64, err error) {
	t.mu.Lock()
	if t.closed || t.gen != gen {
		t.mu.Unlock()
		return
	}
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.mu.Unlock()

	logger.Warn("SIP 传输断开", "url", t.config.URL, "error", err)
	t.setState(gen, interfaces.LinkDisconnected)

	if t.config.ReconnectInterval > 0 {
		t.startRedial()
	}
}

// startRedial 按固定间隔重拨，直到成功或关闭
func (t *Transport) startRedial() {
	t.mu.Lock()
	if t.redialing || t.closed {
		t.mu.Unlock()
		return
	}
	t.redialing = true
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			t.redialing = false
			t.mu.Unlock()
		}()

		for {
			t.config.Clock.Sleep(t.config.ReconnectInterval)

			t.mu.Lock()
			done := t.closed || t.conn != nil
			t.mu.Unlock()
			if done {
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.config.HandshakeTimeout)
			err := t.Connect(ctx)
			cancel()
			if err == nil || errors.Is(err, ErrClosed) {
				return
			}
			logger.Debug("SIP 传输重拨失败", "error", err)
		}
	}()
}

func (t *Transport) setState(gen uint64, s interfaces.LinkState) {
	t.mu.Lock()
	if t.closed || t.gen != gen || t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	t.mu.Unlock()

	t.emit(s)
}

func (t *Transport) emit(s interfaces.LinkState) {
	for _, fn := range t.subs.Snapshot() {
		fn(s)
	}
}
