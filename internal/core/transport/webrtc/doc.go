// Package webrtc 把 pion PeerConnection 适配为可监控、可 ICE 重启的连接
//
// pion 的 OnICEConnectionStateChange 只保留一个处理器，PeerConnection
// 注册唯一的处理器，再通过监听器注册表分发给多个订阅者。
//
// ICE 状态映射：
//
//	new / checking        → connecting
//	connected / completed → connected
//	disconnected          → disconnected
//	failed                → failed
//	closed                → closed
package webrtc
