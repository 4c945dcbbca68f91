// Package interfaces 定义链路恢复引擎的公共接口
//
// 文件组织：
//   - link.go      - 被监控连接契约（Connection, ICERestarter）与健康快照
//   - recovery.go  - 恢复状态、尝试记录、指标、策略与回调
//   - network.go   - 主机网络信息
//
// 引擎只依赖这些接口；具体连接适配在 internal/core/transport/ 下。
package interfaces
