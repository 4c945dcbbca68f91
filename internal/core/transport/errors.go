package transport

import "errors"

var (
	// ErrNoSignaling 未配置信令地址
	ErrNoSignaling = errors.New("signaling url not configured")

	// ErrSignalingClosed 信令已关闭
	ErrSignalingClosed = errors.New("signaling closed")
)
