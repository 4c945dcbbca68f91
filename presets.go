package linkrecover

import (
	"github.com/dep2p/go-linkrecover/config"
)

// ════════════════════════════════════════════════════════════════════════════
//                              预设配置常量
// ════════════════════════════════════════════════════════════════════════════

// Preset 预设名称
type Preset string

const (
	// PresetMedia 媒体链路（ICE）预设
	PresetMedia Preset = "media"

	// PresetSignaling 信令链路（SIP 传输）预设
	PresetSignaling Preset = "signaling"
)

// ════════════════════════════════════════════════════════════════════════════
//                              预设配置获取
// ════════════════════════════════════════════════════════════════════════════

// GetMediaConfig 获取媒体链路配置
//
// 适用场景：WebRTC PeerConnection
// 特点：
//   - ice-restart 策略，ICE 进入 failed 时触发
//   - 指数退避 1s 起，上限 30s
//   - 最多 3 次尝试
func GetMediaConfig() *config.Config {
	cfg := config.NewConfig()
	_ = config.ApplyPreset(cfg, string(PresetMedia))
	return cfg
}

// GetSignalingConfig 获取信令链路配置
//
// 适用场景：SIP over WebSocket 注册链路
// 特点：
//   - reconnect 策略，传输断开后重新连通时触发重新注册
//   - 先等待 1s 稳定，固定 2s 间隔
//   - 最多 5 次尝试
func GetSignalingConfig() *config.Config {
	cfg := config.NewConfig()
	_ = config.ApplyPreset(cfg, string(PresetSignaling))
	return cfg
}
