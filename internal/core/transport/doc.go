// Package transport 组装被监控链路的传输适配器
//
// 子包提供两类链路：
//
//   - webrtc: pion PeerConnection 适配器，ICE 状态映射为 LinkState，支持 ICE 重启
//   - sipws: SIP over WebSocket 信令传输与 REGISTER 注册器
//
// 本包把 sipws 的传输与注册器组装为 Signaling，作为 reconnect 策略的回调来源。
//
// # 重新注册
//
// Signaling.Reregister 的签名与 ReconnectHandler 一致：
// 传输未连通时先重拨，再发送 REGISTER，2xx 视为恢复成功。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    fx.Supply(&transport.Config{URL: "wss://sip.example.com/ws", ...}),
//	    transport.Module(),
//	    recovery.Module(),
//	)
//
// Module 同时提供 *Signaling 和 interfaces.ReconnectHandler，
// 后者由 recovery.ProvideManager 自动注入。
package transport
