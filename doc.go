// Package linkrecover 提供实时通信链路的故障检测与自动恢复
//
// 引擎监控一条长连接（WebRTC ICE 媒体链路或 SIP over WebSocket 信令链路），
// 在链路失败或断开后重新连通时，按可配置的策略、次数和退避执行恢复动作，
// 并对外报告恢复状态、尝试历史和累计指标。
//
// # 核心概念
//
//   - Connection: 被监控的链路，只需提供 State() 和 Subscribe()
//   - Strategy: 恢复动作（ice-restart / reconnect / none）
//   - Episode: 一次恢复周期，由一个或多个 Attempt 组成
//   - NetworkChangeWatcher: 主机网络变化防抖后触发恢复
//
// # 快速开始
//
//	import "github.com/dep2p/go-linkrecover"
//
//	engine, err := linkrecover.Start(ctx,
//	    linkrecover.WithPreset(linkrecover.PresetMedia),
//	    linkrecover.WithCallbacks(linkrecover.Callbacks{
//	        OnRecoveryFailed: func(msg string) { log.Println(msg) },
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	// 监控一条实现了 Connection（以及 ICERestarter）的链路
//	engine.Monitor(peerConnection)
//
// # 文件组织
//
//	linkrecover/
//	├── doc.go          # 包文档
//	├── engine.go       # Engine 结构、New()、Start()、Close() 与查询接口
//	├── fx.go           # Fx 应用组装
//	├── options.go      # WithXxx 配置选项
//	├── presets.go      # 预设配置（Media、Signaling）
//	├── types.go        # 公共类型别名
//	├── media.go        # MediaLink（pion PeerConnection 适配）
//	├── version.go      # 版本信息
//	└── errors.go       # 错误定义
//
// # 预设配置
//
//	linkrecover.PresetMedia      ICE 媒体链路：failed 时 ICE 重启，指数退避
//	linkrecover.PresetSignaling  SIP 信令链路：重新连通后重新注册，固定间隔
//
// # 架构
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  API Layer        linkrecover.New() / Start() / Engine      │
//	├─────────────────────────────────────────────────────────────┤
//	│  Recovery         Manager（状态机）、Backoff、Strategy        │
//	│                   HealthMonitor、NetworkChangeWatcher        │
//	├─────────────────────────────────────────────────────────────┤
//	│  Observability    metrics.Recorder（Prometheus Collector）    │
//	├─────────────────────────────────────────────────────────────┤
//	│  Transport        webrtc.PeerConnection、sipws.Transport      │
//	└─────────────────────────────────────────────────────────────┘
package linkrecover
