// Package metrics 记录恢复尝试历史与累计指标
//
// Recorder 是编排器写入、调用方读取的被动汇聚点：
//   - 有界的尝试历史（超过上限时淘汰最旧的记录，顺序不变）
//   - 生命周期累计计数（尝试数、成功恢复数、耗尽次数、最近成功时间）
//   - 实现 prometheus.Collector，可直接注册到任意 Registry
//
// # 快速开始
//
//	rec := metrics.NewRecorder(metrics.DefaultConfig())
//	prometheus.MustRegister(rec)
//
//	rec.RecordAttempt(attempt)
//	fmt.Println(rec.Metrics().TotalAttempts)
//
// 累计计数只会被 Reset 清零，没有单独的"仅清指标"路径。
package metrics
