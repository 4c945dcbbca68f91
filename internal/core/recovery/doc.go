// Package recovery 提供链路恢复编排
//
// # 概述
//
// Manager 是一个由事件和定时器驱动的状态机（stable / recovering / failed），
// 负责把健康监控的状态转换、网络变化和手动触发转化为恢复周期（episode）：
//
//  1. 可选的稳定延迟（期间出现冲突转换则静默放弃）
//  2. 调用当前策略（ice-restart / reconnect / none）
//  3. 成功 → stable，记录 lastRecoveryAt 并回调
//  4. 失败 → 按退避策略调度下一次尝试；到期时重新检查链路状态
//  5. 尝试耗尽 → failed，回调 "Recovery failed after N attempts"
//
// 同一时刻只有一个恢复周期。每个定时器和进行中的尝试都捕获周期代号，
// 代号不匹配时结果被丢弃，不记录也不改变状态。
//
// # 触发方式
//
//   - trigger=failure: 链路进入 failed 时触发（媒体链路 ICE 重启）
//   - trigger=restore: 链路在断开后重新连通时触发（信令重新注册）
//   - TriggerRecovery(): 手动触发，取消进行中的周期并重新计数
//   - RequestRecovery(cause): 自动入口，恢复中时为空操作（网络变化使用）
//
// # 使用示例
//
//	mgr := recovery.NewManager(recovery.DefaultConfig(), recovery.Deps{
//	    Strategy: strategy.ICERestart{},
//	})
//	defer mgr.Close()
//
//	if err := mgr.Monitor(conn); err != nil {
//	    return err
//	}
//
//	mgr.SetCallbacks(interfaces.Callbacks{
//	    OnRecoveryFailed: func(msg string) { log.Warn(msg) },
//	})
package recovery
