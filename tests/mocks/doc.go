// Package mocks 提供统一的测试 Mock 实现
//
// # 核心 Mock
//
//   - MockConnection: 模拟 interfaces.Connection + interfaces.ICERestarter，
//     SetState 同步触发订阅者，记录 ICE 重启各步骤的调用次数
//   - MockStrategy: gomock 风格的 interfaces.Strategy
//
// # 设计原则
//
// 1. 函数式注入: 通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 记录调用次数，便于验证测试行为
//
// # 使用示例
//
//	conn := mocks.NewMockConnection(interfaces.LinkConnected)
//	conn.RestartICEFunc = func() error { return errors.New("boom") }
//	conn.SetState(interfaces.LinkFailed)
package mocks
