package recovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/dep2p/go-linkrecover/internal/core/metrics"
	"github.com/dep2p/go-linkrecover/internal/core/recovery/backoff"
	"github.com/dep2p/go-linkrecover/internal/core/recovery/health"
	"github.com/dep2p/go-linkrecover/internal/core/recovery/strategy"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

var logger = log.Logger("core/recovery")

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrManagerClosed 管理器已关闭
	ErrManagerClosed = errors.New("recovery manager closed")

	// ErrNotConnected 链路未连通，拒绝手动触发
	ErrNotConnected = errors.New("link not connected")
)

// NotConnectedError 手动触发时链路未连通
type NotConnectedError struct {
	Link string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("Cannot trigger recovery: %s not connected", e.Link)
}

// Is 支持 errors.Is(err, ErrNotConnected)
func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}

// ============================================================================
//                              RecoveryManager
// ============================================================================

// episode 一个恢复周期
type episode struct {
	id      string
	gen     uint64
	cause   interfaces.RecoveryCause
	attempt int

	// timer 稳定延迟或退避定时器
	timer *clock.Timer

	// cancel 取消进行中的策略调用
	cancel context.CancelFunc
}

func (e *episode) stop() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

// Deps Manager 依赖
type Deps struct {
	// Clock 时钟，测试中注入 clock.NewMock()
	Clock clock.Clock

	// Strategy 恢复策略；为 nil 时按 Config.Strategy 创建
	Strategy interfaces.Strategy

	// ReconnectHandler 按名称创建 reconnect 策略时使用
	ReconnectHandler interfaces.ReconnectHandler

	// Recorder 指标记录器；为 nil 时按 Config.HistoryLimit 创建
	Recorder *metrics.Recorder
}

// Manager 恢复管理器
type Manager struct {
	mu sync.Mutex

	config   *Config
	clock    clock.Clock
	monitor  *health.Monitor
	strategy interfaces.Strategy
	backoff  backoff.Policy
	recorder *metrics.Recorder

	callbacks interfaces.Callbacks

	// 状态
	state          interfaces.RecoveryState
	lastError      string
	lastRecoveryAt time.Time
	attempts       int
	episodeID      string

	episode *episode
	gen     uint64
	closed  bool

	detach func()
}

// NewManager 创建恢复管理器
func NewManager(config *Config, deps Deps) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	// Validate 修正无效值为默认值
	config.Validate()

	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	strat := deps.Strategy
	if strat == nil {
		// config 已校验，名称一定有效
		strat, _ = strategy.New(config.Strategy, deps.ReconnectHandler)
	}

	rec := deps.Recorder
	if rec == nil {
		mc := metrics.DefaultConfig()
		mc.HistoryLimit = config.HistoryLimit
		rec = metrics.NewRecorder(mc)
	}

	m := &Manager{
		config:   config,
		clock:    clk,
		monitor:  health.NewMonitor(clk),
		strategy: strat,
		backoff:  backoff.New(config.ExponentialBackoff, config.AttemptDelay, config.MaxBackoffDelay),
		recorder: rec,
		state:    interfaces.RecoveryStable,
	}
	m.detach = m.monitor.OnTransition(m.handleTransition)
	return m
}

// ============================================================================
//                              配置设置
// ============================================================================

// SetCallbacks 设置生命周期回调
func (m *Manager) SetCallbacks(cb interfaces.Callbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = cb
}

// SetStrategy 替换恢复策略，对下一次尝试生效
func (m *Manager) SetStrategy(s interfaces.Strategy) {
	if s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategy = s
}

// Config 返回配置副本
func (m *Manager) Config() Config {
	return *m.config
}

// Recorder 返回指标记录器
func (m *Manager) Recorder() *metrics.Recorder {
	return m.recorder
}

// HealthMonitor 返回健康监控器
func (m *Manager) HealthMonitor() *health.Monitor {
	return m.monitor
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动恢复管理器
func (m *Manager) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	logger.Info("恢复管理器已启动",
		"link", m.config.LinkName,
		"strategy", m.strategy.Name(),
		"trigger", string(m.config.Trigger))
	return nil
}

// Stop 停止恢复管理器
func (m *Manager) Stop() error {
	return m.Close()
}

// Close 取消全部定时器和进行中的尝试，解绑连接
//
// 之后的触发返回 ErrManagerClosed。重复调用是安全的。
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.cancelEpisodeLocked()
	m.state = interfaces.RecoveryStable
	detach := m.detach
	m.detach = nil
	m.mu.Unlock()

	if detach != nil {
		detach()
	}
	m.monitor.StopMonitoring()

	logger.Info("恢复管理器已停止", "link", m.config.LinkName)
	return nil
}

// ============================================================================
//                              连接绑定
// ============================================================================

// Monitor 绑定（或替换）被监控的连接
//
// 替换时先完全解绑旧连接再取消进行中的恢复周期，状态回到 stable，
// 生命周期指标保留。
func (m *Manager) Monitor(conn interfaces.Connection) error {
	if conn == nil {
		return health.ErrNilConnection
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrManagerClosed
	}

	// 旧连接的代数先失效，之后到达的旧事件被丢弃；
	// 此前已启动的周期由下面的取消清理
	m.monitor.StopMonitoring()

	m.mu.Lock()
	m.cancelEpisodeLocked()
	m.state = interfaces.RecoveryStable
	m.mu.Unlock()

	if _, err := m.monitor.Monitor(conn); err != nil {
		return err
	}
	logger.Debug("绑定连接", "link", m.config.LinkName, "state", m.monitor.LinkState().String())
	return nil
}

// StopMonitoring 解绑连接并取消进行中的恢复周期（幂等）
func (m *Manager) StopMonitoring() {
	m.monitor.StopMonitoring()

	m.mu.Lock()
	m.cancelEpisodeLocked()
	m.state = interfaces.RecoveryStable
	m.mu.Unlock()
}

// Reset 取消进行中的周期，清空尝试历史、lastError 和累计指标
//
// 健康快照从连接的实际状态重新捕获。
func (m *Manager) Reset() {
	m.mu.Lock()
	m.cancelEpisodeLocked()
	m.state = interfaces.RecoveryStable
	m.lastError = ""
	m.lastRecoveryAt = time.Time{}
	m.attempts = 0
	m.episodeID = ""
	m.recorder.Reset()
	m.mu.Unlock()

	m.monitor.Refresh()
	logger.Debug("恢复状态已重置", "link", m.config.LinkName)
}

// ============================================================================
//                              恢复触发
// ============================================================================

// TriggerRecovery 手动触发恢复
//
// 链路未连通时立即拒绝且不改变状态；否则取消进行中的周期，
// 从零开始计数并重新回调 OnRecoveryStart。
func (m *Manager) TriggerRecovery() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if !m.monitor.IsHealthy() {
		m.mu.Unlock()
		err := &NotConnectedError{Link: m.config.LinkName}
		logger.Warn("拒绝手动恢复", "error", err)
		return err
	}
	m.startEpisodeLocked(interfaces.CauseManual)
	onStart := m.callbacks.OnRecoveryStart
	m.mu.Unlock()

	safeCall("OnRecoveryStart", onStart)
	return nil
}

// RequestRecovery 自动触发入口
//
// 恢复中、已关闭或链路状态不适合时为空操作，返回是否启动了新周期。
func (m *Manager) RequestRecovery(cause interfaces.RecoveryCause) bool {
	m.mu.Lock()
	if m.closed || m.state == interfaces.RecoveryRecovering {
		m.mu.Unlock()
		return false
	}
	if !m.monitor.Monitoring() || !startCompatible(cause, m.monitor.LinkState()) {
		m.mu.Unlock()
		logger.Debug("链路状态不适合恢复，忽略请求",
			"cause", cause.String(),
			"state", m.monitor.LinkState().String())
		return false
	}
	m.startEpisodeLocked(cause)
	onStart := m.callbacks.OnRecoveryStart
	m.mu.Unlock()

	safeCall("OnRecoveryStart", onStart)
	return true
}

// ============================================================================
//                              查询
// ============================================================================

// State 返回恢复状态
func (m *Manager) State() interfaces.RecoveryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsRecovering 是否恢复中
func (m *Manager) IsRecovering() bool {
	return m.State() == interfaces.RecoveryRecovering
}

// LastError 最近一次失败的错误信息；耗尽后为 "Recovery failed after N attempts"
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// AttemptCount 当前（或最近一个）周期的尝试次数
func (m *Manager) AttemptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// LastRecoveryAt 最近一次成功恢复的时间
func (m *Manager) LastRecoveryAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRecoveryAt
}

// EpisodeID 当前（或最近一个）周期 ID
func (m *Manager) EpisodeID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.episodeID
}

// Snapshot 返回健康快照
func (m *Manager) Snapshot() interfaces.ConnectionHealthSnapshot {
	return m.monitor.Snapshot()
}

// Attempts 返回尝试历史
func (m *Manager) Attempts() []interfaces.RecoveryAttempt {
	return m.recorder.Attempts()
}

// Metrics 返回累计指标
func (m *Manager) Metrics() interfaces.RecoveryMetrics {
	return m.recorder.Metrics()
}

// ============================================================================
//                              恢复周期
// ============================================================================

// startEpisodeLocked 取消旧周期并开始新周期
func (m *Manager) startEpisodeLocked(cause interfaces.RecoveryCause) {
	m.cancelEpisodeLocked()

	m.gen++
	ep := &episode{
		id:    uuid.NewString(),
		gen:   m.gen,
		cause: cause,
	}
	m.episode = ep
	m.episodeID = ep.id
	m.attempts = 0
	m.state = interfaces.RecoveryRecovering
	m.recorder.SetRecovering(true)

	logger.Info("开始恢复",
		"link", m.config.LinkName,
		"episode", log.TruncateID(ep.id, 8),
		"cause", cause.String(),
		"strategy", m.strategy.Name())

	gen := ep.gen
	if d := m.config.StabilizationDelay; d > 0 {
		ep.timer = m.clock.AfterFunc(d, func() { m.runAttempt(gen) })
		return
	}
	go m.runAttempt(gen)
}

// cancelEpisodeLocked 取消进行中的周期（定时器与策略调用）
func (m *Manager) cancelEpisodeLocked() {
	if m.episode == nil {
		return
	}
	m.episode.stop()
	m.episode = nil
	m.gen++
	m.recorder.SetRecovering(false)
}

// currentLocked 返回代号匹配的进行中周期
func (m *Manager) currentLocked(gen uint64) *episode {
	if m.closed || m.episode == nil || m.episode.gen != gen {
		return nil
	}
	return m.episode
}

// runAttempt 执行一次尝试
//
// 由稳定延迟定时器、退避定时器或新周期的 goroutine 调用。
func (m *Manager) runAttempt(gen uint64) {
	m.mu.Lock()
	ep := m.currentLocked(gen)
	if ep == nil {
		m.mu.Unlock()
		return
	}
	ep.timer = nil

	// 到期时重新检查链路状态
	state := m.monitor.LinkState()
	if !m.monitor.Monitoring() || !retryCompatible(ep.cause, state) {
		m.endEpisodeLocked()
		m.mu.Unlock()
		logger.Info("链路状态不适合继续恢复，放弃本周期",
			"link", m.config.LinkName,
			"episode", log.TruncateID(ep.id, 8),
			"state", state.String())
		return
	}
	if ep.cause == interfaces.CauseLinkFailure && state.IsHealthy() {
		m.endEpisodeLocked()
		m.mu.Unlock()
		logger.Info("链路已自行恢复", "link", m.config.LinkName, "episode", log.TruncateID(ep.id, 8))
		return
	}

	ep.attempt++
	m.attempts = ep.attempt
	n := ep.attempt

	var ctx context.Context
	var cancel context.CancelFunc
	if m.config.AttemptTimeout > 0 {
		ctx, cancel = m.clock.WithTimeout(context.Background(), m.config.AttemptTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	ep.cancel = cancel

	strat := m.strategy
	conn := m.monitor.Connection()
	startedAt := m.clock.Now()
	m.mu.Unlock()

	logger.Debug("执行恢复尝试",
		"link", m.config.LinkName,
		"attempt", n,
		"strategy", strat.Name())

	err := invokeStrategy(ctx, strat, conn)
	cancel()

	m.mu.Lock()
	if m.currentLocked(gen) != ep {
		m.mu.Unlock()
		logger.Debug("丢弃已放弃周期的尝试结果", "attempt", n, "strategy", strat.Name())
		return
	}
	ep.cancel = nil

	now := m.clock.Now()
	attempt := interfaces.RecoveryAttempt{
		EpisodeID:     ep.id,
		AttemptNumber: n,
		Strategy:      strat.Name(),
		StartedAt:     startedAt,
		Duration:      now.Sub(startedAt),
		Succeeded:     err == nil,
	}
	if err != nil {
		attempt.ErrorMessage = errorMessage(err, strat.Name())
	}
	m.recorder.RecordAttempt(attempt)

	if err == nil {
		m.lastRecoveryAt = now
		m.lastError = ""
		m.recorder.RecordRecovery(now)
		m.endEpisodeLocked()
		onSuccess := m.callbacks.OnRecoverySuccess
		m.mu.Unlock()

		logger.Info("恢复成功",
			"link", m.config.LinkName,
			"attempt", n,
			"duration", attempt.Duration)
		if onSuccess != nil {
			safeCall("OnRecoverySuccess", func() { onSuccess(attempt) })
		}
		return
	}

	m.lastError = attempt.ErrorMessage

	if n < m.config.MaxAttempts {
		delay := m.backoff.Delay(n - 1)
		ep.timer = m.clock.AfterFunc(delay, func() { m.runAttempt(gen) })
		m.mu.Unlock()

		logger.Warn("恢复尝试失败，稍后重试",
			"link", m.config.LinkName,
			"attempt", n,
			"error", attempt.ErrorMessage,
			"retry_in", delay)
		return
	}

	m.endEpisodeLocked()
	m.state = interfaces.RecoveryFailed
	m.recorder.RecordExhausted()
	msg := fmt.Sprintf("Recovery failed after %d attempts", n)
	m.lastError = msg
	onFailed := m.callbacks.OnRecoveryFailed
	m.mu.Unlock()

	logger.Error("恢复失败", "link", m.config.LinkName, "attempts", n, "error", attempt.ErrorMessage)
	if onFailed != nil {
		safeCall("OnRecoveryFailed", func() { onFailed(msg) })
	}
}

// endEpisodeLocked 结束当前周期，状态回到 stable
func (m *Manager) endEpisodeLocked() {
	m.cancelEpisodeLocked()
	m.state = interfaces.RecoveryStable
}

// ============================================================================
//                              辅助函数
// ============================================================================

// invokeStrategy 调用策略，panic 转换为错误
func invokeStrategy(ctx context.Context, s interfaces.Strategy, conn interfaces.Connection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && e.Error() != "" {
				err = e
				return
			}
			err = fmt.Errorf("%s failed", s.Name())
		}
	}()
	return s.Recover(ctx, conn)
}

// errorMessage 提取错误信息，空信息回退为 "<strategy> failed"
func errorMessage(err error, name string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return name + " failed"
}

// safeCall 调用回调并吞掉 panic
func safeCall(name string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("回调 panic", "callback", name, "panic", r)
		}
	}()
	fn()
}
