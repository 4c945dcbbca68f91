// Package netmon 监听主机网络变化
//
// # 概述
//
// ChangeWatcher 把主机的连通性变化转换为防抖后的恢复触发：
//
//	SystemWatcher 事件 / 宿主 Notify()
//	        │
//	        ▼
//	刷新 NetworkInfo（Sampler + 可选 STUN RTT 探测）
//	        │
//	        ├──► OnChange 观察者
//	        │
//	        ▼
//	防抖定时器（每个事件重置，offline 取消）
//	        │
//	        ▼
//	trigger(info)  → 通常是 Manager.RequestRecovery(CauseNetworkChange)
//
// 防抖窗口内只有最后一个事件生效；离线时不触发。
//
// # 事件源
//
//   - PollingWatcher: 基于 net.Interfaces() 的跨平台轮询
//   - NoOpWatcher: 禁用系统监听，只接受宿主 Notify()
//
// 宿主程序可以通过 Notify 注入 EventOnline / EventOffline / EventTypeChanged，
// 例如来自移动平台的连通性回调。
package netmon

import "github.com/dep2p/go-linkrecover/pkg/lib/log"

var logger = log.Logger("core/netmon")
