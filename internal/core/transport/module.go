package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-linkrecover/internal/core/transport/sipws"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// Config 信令配置
type Config struct {
	// URL SIP WebSocket 地址
	URL string

	// Header 握手附加头
	Header http.Header

	// Server 注册服务器 URI
	Server string

	// AOR 注册地址
	AOR string

	// RegisterExpires 注册有效期（秒）
	RegisterExpires int

	// RegisterTimeout 等待 REGISTER 响应的超时
	RegisterTimeout time.Duration

	// RedialInterval 断开后传输层自动重拨间隔，0 表示交给恢复引擎
	RedialInterval time.Duration

	// DialTimeout 握手超时
	DialTimeout time.Duration
}

// NewConfig 创建默认配置
func NewConfig() Config {
	return Config{
		RegisterExpires: 600,
		RegisterTimeout: 10 * time.Second,
		RedialInterval:  2 * time.Second,
		DialTimeout:     10 * time.Second,
	}
}

// ============================================================================
//                              Signaling
// ============================================================================

// Signaling 信令链路：WebSocket 传输 + 注册器
type Signaling struct {
	config    Config
	transport *sipws.Transport
	registrar *sipws.Registrar

	mu     sync.Mutex
	closed bool
}

// NewSignaling 创建信令链路（不发起连接）
func NewSignaling(cfg Config, clk clock.Clock) (*Signaling, error) {
	if cfg.URL == "" {
		return nil, ErrNoSignaling
	}
	defaults := NewConfig()
	if cfg.RegisterExpires <= 0 {
		cfg.RegisterExpires = defaults.RegisterExpires
	}
	if cfg.RegisterTimeout <= 0 {
		cfg.RegisterTimeout = defaults.RegisterTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}

	t, err := sipws.New(sipws.Config{
		URL:               cfg.URL,
		Header:            cfg.Header,
		HandshakeTimeout:  cfg.DialTimeout,
		ReconnectInterval: cfg.RedialInterval,
		Clock:             clk,
	})
	if err != nil {
		return nil, err
	}

	r, err := sipws.NewRegistrar(t, sipws.RegistrarConfig{
		Server:  cfg.Server,
		AOR:     cfg.AOR,
		Expires: cfg.RegisterExpires,
		Timeout: cfg.RegisterTimeout,
	})
	if err != nil {
		t.Close()
		return nil, err
	}

	logger.Debug("创建信令链路", "url", cfg.URL, "aor", cfg.AOR)
	return &Signaling{config: cfg, transport: t, registrar: r}, nil
}

// Transport 返回被监控的传输
func (s *Signaling) Transport() *sipws.Transport {
	return s.transport
}

// Connection 返回被监控的连接
func (s *Signaling) Connection() interfaces.Connection {
	return s.transport
}

// Start 连接并完成首次注册
func (s *Signaling) Start(ctx context.Context) error {
	if err := s.transport.Connect(ctx); err != nil {
		return err
	}
	if _, err := s.registrar.Register(ctx); err != nil {
		return err
	}
	logger.Info("信令链路已就绪", "url", s.config.URL)
	return nil
}

// Reregister 重新注册
//
// 传输未连通时先重拨。签名与 ReconnectHandler 一致。
func (s *Signaling) Reregister(ctx context.Context) (bool, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false, ErrSignalingClosed
	}

	if !s.transport.State().IsHealthy() {
		logger.Debug("信令传输未连通，先重拨")
		if ok, err := s.transport.Reconnect(ctx); !ok {
			return false, err
		}
	}
	return s.registrar.Register(ctx)
}

// Close 关闭注册器和传输
func (s *Signaling) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.registrar.Close()
	return s.transport.Close()
}

// ============================================================================
//                              Fx 模块
// ============================================================================

// SignalingOutput Fx 输出
type SignalingOutput struct {
	fx.Out

	Signaling        *Signaling
	ReconnectHandler interfaces.ReconnectHandler
}

// signalingParams Signaling 依赖参数
type signalingParams struct {
	fx.In

	Config *Config     `optional:"true"`
	Clock  clock.Clock `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideSignaling),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideSignaling 提供信令链路和重新注册回调
func ProvideSignaling(p signalingParams) (SignalingOutput, error) {
	if p.Config == nil {
		return SignalingOutput{}, ErrNoSignaling
	}
	sig, err := NewSignaling(*p.Config, p.Clock)
	if err != nil {
		return SignalingOutput{}, err
	}
	return SignalingOutput{
		Signaling:        sig,
		ReconnectHandler: sig.Reregister,
	}, nil
}

// registerLifecycle 注册生命周期钩子
//
// 首次连接失败不阻止启动：链路保持断开，由恢复引擎或传输重拨接手。
func registerLifecycle(lc fx.Lifecycle, sig *Signaling) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := sig.Start(ctx); err != nil {
				if errors.Is(err, sipws.ErrClosed) {
					return err
				}
				logger.Warn("信令链路首次连接失败", "error", err)
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return multierr.Append(nil, sig.Close())
		},
	})
}
