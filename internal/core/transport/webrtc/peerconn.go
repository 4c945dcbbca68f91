package webrtc

import (
	"context"
	"errors"
	"fmt"

	pion "github.com/pion/webrtc/v4"

	"github.com/dep2p/go-linkrecover/internal/util/listeners"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("transport/webrtc")

// ErrClosed PeerConnection 已关闭
var ErrClosed = errors.New("peer connection closed")

// PeerConnection pion PeerConnection 适配器
type PeerConnection struct {
	pc   *pion.PeerConnection
	subs listeners.Registry[func(interfaces.LinkState)]
}

var (
	_ interfaces.Connection   = (*PeerConnection)(nil)
	_ interfaces.ICERestarter = (*PeerConnection)(nil)
)

// New 使用给定配置创建 PeerConnection
func New(cfg pion.Configuration) (*PeerConnection, error) {
	pc, err := pion.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return Wrap(pc), nil
}

// Wrap 包装已有的 pion PeerConnection
//
// 会占用 pc 的 OnICEConnectionStateChange 处理器。
func Wrap(pc *pion.PeerConnection) *PeerConnection {
	p := &PeerConnection{pc: pc}
	pc.OnICEConnectionStateChange(func(s pion.ICEConnectionState) {
		state := MapICEState(s)
		logger.Debug("ICE 状态变更", "ice", s.String(), "state", state.String())
		p.notify(state)
	})
	return p
}

// Raw 返回底层 pion PeerConnection
func (p *PeerConnection) Raw() *pion.PeerConnection {
	return p.pc
}

// State 实现 Connection
func (p *PeerConnection) State() interfaces.LinkState {
	return MapICEState(p.pc.ICEConnectionState())
}

// Subscribe 实现 Connection
func (p *PeerConnection) Subscribe(fn func(interfaces.LinkState)) func() {
	return p.subs.Add(fn)
}

// RestartICE 实现 ICERestarter
//
// pion 在下一次带 ICERestart 标记的 offer 中重启 ICE，这里只校验连接仍可用。
func (p *PeerConnection) RestartICE() error {
	if p.pc.ConnectionState() == pion.PeerConnectionStateClosed {
		return ErrClosed
	}
	return nil
}

// CreateOffer 实现 ICERestarter
func (p *PeerConnection) CreateOffer(ctx context.Context, iceRestart bool) (interfaces.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.SessionDescription{}, err
	}
	offer, err := p.pc.CreateOffer(&pion.OfferOptions{ICERestart: iceRestart})
	if err != nil {
		return interfaces.SessionDescription{}, err
	}
	return interfaces.SessionDescription{Type: offer.Type.String(), SDP: offer.SDP}, nil
}

// SetLocalDescription 实现 ICERestarter
func (p *PeerConnection) SetLocalDescription(ctx context.Context, desc interfaces.SessionDescription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.pc.SetLocalDescription(pion.SessionDescription{
		Type: pion.NewSDPType(desc.Type),
		SDP:  desc.SDP,
	})
}

// Close 关闭连接并清空订阅者
func (p *PeerConnection) Close() error {
	err := p.pc.Close()
	p.subs.Clear()
	return err
}

func (p *PeerConnection) notify(s interfaces.LinkState) {
	for _, fn := range p.subs.Snapshot() {
		fn(s)
	}
}

// MapICEState 把 ICE 连接状态映射为链路状态
func MapICEState(s pion.ICEConnectionState) interfaces.LinkState {
	switch s {
	case pion.ICEConnectionStateNew, pion.ICEConnectionStateChecking:
		return interfaces.LinkConnecting
	case pion.ICEConnectionStateConnected, pion.ICEConnectionStateCompleted:
		return interfaces.LinkConnected
	case pion.ICEConnectionStateDisconnected:
		return interfaces.LinkDisconnected
	case pion.ICEConnectionStateFailed:
		return interfaces.LinkFailed
	case pion.ICEConnectionStateClosed:
		return interfaces.LinkClosed
	default:
		return interfaces.LinkUnknown
	}
}
