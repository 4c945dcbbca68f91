package netmon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pion/stun"
)

// ============================================================================
//                              RTT 探测
// ============================================================================

// 错误定义
var (
	// ErrNoServers 未配置探测服务器
	ErrNoServers = errors.New("no STUN servers configured")

	// ErrNoResponse 所有服务器均无有效响应
	ErrNoResponse = errors.New("no STUN server responded")
)

// Prober 往返时延探测器
type Prober interface {
	// Probe 执行一次探测，返回往返时延
	Probe(ctx context.Context) (time.Duration, error)
}

// ProberFunc 函数适配器
type ProberFunc func(ctx context.Context) (time.Duration, error)

// Probe 实现 Prober
func (f ProberFunc) Probe(ctx context.Context) (time.Duration, error) {
	return f(ctx)
}

// STUNProber 通过 STUN Binding 请求测量往返时延
type STUNProber struct {
	servers []string
	timeout time.Duration
	clock   clock.Clock
}

// NewSTUNProber 创建 STUN 探测器
func NewSTUNProber(servers []string, timeout time.Duration) *STUNProber {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &STUNProber{
		servers: servers,
		timeout: timeout,
		clock:   clock.New(),
	}
}

// Probe 依次尝试服务器，返回第一个成功的往返时延
func (p *STUNProber) Probe(ctx context.Context) (time.Duration, error) {
	if len(p.servers) == 0 {
		return 0, ErrNoServers
	}

	var lastErr error
	for _, server := range p.servers {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rtt, err := p.probeServer(ctx, server)
		if err == nil {
			return rtt, nil
		}
		logger.Debug("STUN 探测失败", "server", server, "error", err)
		lastErr = err
	}
	return 0, fmt.Errorf("%w: %v", ErrNoResponse, lastErr)
}

// probeServer 对单个服务器发送 Binding 请求
func (p *STUNProber) probeServer(ctx context.Context, server string) (time.Duration, error) {
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", server, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", server, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return 0, err
	}

	req, err := stun.Build(stun.TransactionID, stun.BindingRequest, stun.Fingerprint)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	start := p.clock.Now()
	if _, err := req.WriteTo(conn); err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}

	buf := make([]byte, 1500)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			return 0, fmt.Errorf("read response: %w", err)
		}

		res := new(stun.Message)
		res.Raw = append([]byte(nil), buf[:n]...)
		if err := res.Decode(); err != nil {
			continue
		}
		if res.TransactionID != req.TransactionID {
			continue
		}
		if res.Type != stun.BindingSuccess {
			return 0, fmt.Errorf("unexpected response %s", res.Type)
		}
		return p.clock.Since(start), nil
	}
}
