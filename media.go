package linkrecover

import (
	pion "github.com/pion/webrtc/v4"

	"github.com/dep2p/go-linkrecover/internal/core/transport/webrtc"
)

// ════════════════════════════════════════════════════════════════════════════
//                              媒体链路
// ════════════════════════════════════════════════════════════════════════════

// MediaLink pion PeerConnection 链路，可直接交给 Engine.Monitor
//
// 支持 ice-restart 策略：RestartICE + CreateOffer(iceRestart) + SetLocalDescription。
// 重启产生的新 offer 需要调用方经由自己的信令发给对端。
type MediaLink struct {
	*webrtc.PeerConnection
}

// NewMediaLink 创建新的 PeerConnection 并包装
func NewMediaLink(cfg pion.Configuration) (*MediaLink, error) {
	pc, err := webrtc.New(cfg)
	if err != nil {
		return nil, err
	}
	return &MediaLink{PeerConnection: pc}, nil
}

// WrapPeerConnection 包装已有的 PeerConnection
//
// 会占用 pc 的 OnICEConnectionStateChange 处理器。
func WrapPeerConnection(pc *pion.PeerConnection) *MediaLink {
	return &MediaLink{PeerConnection: webrtc.Wrap(pc)}
}
