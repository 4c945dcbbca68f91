package metrics

import (
	"sync"
	"time"

	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// strategyResult 按策略和结果分组的计数键
type strategyResult struct {
	strategy string
	result   string
}

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Recorder 恢复指标记录器
type Recorder struct {
	mu sync.RWMutex

	config Config

	history []interfaces.RecoveryAttempt
	totals  interfaces.RecoveryMetrics

	byStrategy map[strategyResult]int
	recovering bool

	descOnce sync.Once
	desc     descriptors
}

// NewRecorder 创建记录器
func NewRecorder(config Config) *Recorder {
	config.Validate()
	return &Recorder{
		config:     config,
		history:    make([]interfaces.RecoveryAttempt, 0, config.HistoryLimit),
		byStrategy: make(map[strategyResult]int),
	}
}

// ============================================================================
//                              写入
// ============================================================================

// RecordAttempt 追加一次尝试
func (r *Recorder) RecordAttempt(a interfaces.RecoveryAttempt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.history) >= r.config.HistoryLimit {
		copy(r.history, r.history[1:])
		r.history[len(r.history)-1] = a
	} else {
		r.history = append(r.history, a)
	}

	r.totals.TotalAttempts++
	result := resultSuccess
	if !a.Succeeded {
		r.totals.TotalFailedAttempts++
		result = resultFailure
	}
	r.byStrategy[strategyResult{strategy: a.Strategy, result: result}]++
}

// RecordRecovery 记录一个成功结束的恢复周期
func (r *Recorder) RecordRecovery(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals.TotalRecoveries++
	r.totals.LastSuccessAt = at
}

// RecordExhausted 记录一个尝试耗尽的恢复周期
func (r *Recorder) RecordExhausted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals.TotalExhausted++
}

// SetRecovering 更新是否处于恢复中（仅用于导出）
func (r *Recorder) SetRecovering(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recovering = v
}

// Reset 清空历史与累计计数
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = r.history[:0]
	r.totals = interfaces.RecoveryMetrics{}
	r.byStrategy = make(map[strategyResult]int)
	r.recovering = false
}

// ============================================================================
//                              读取
// ============================================================================

// Attempts 按尝试顺序返回历史副本
func (r *Recorder) Attempts() []interfaces.RecoveryAttempt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interfaces.RecoveryAttempt, len(r.history))
	copy(out, r.history)
	return out
}

// LastAttempt 返回最近一次尝试
func (r *Recorder) LastAttempt() (interfaces.RecoveryAttempt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.history) == 0 {
		return interfaces.RecoveryAttempt{}, false
	}
	return r.history[len(r.history)-1], true
}

// Metrics 返回累计指标
func (r *Recorder) Metrics() interfaces.RecoveryMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totals
}

// HistoryLimit 返回历史上限
func (r *Recorder) HistoryLimit() int {
	return r.config.HistoryLimit
}
