package recovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dep2p/go-linkrecover/internal/core/recovery/strategy"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/tests/mocks"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// funcStrategy 可编程策略
type funcStrategy struct {
	name  string
	fn    func(ctx context.Context, conn interfaces.Connection) error
	calls atomic.Int32
}

func (s *funcStrategy) Name() string { return s.name }

func (s *funcStrategy) Recover(ctx context.Context, conn interfaces.Connection) error {
	s.calls.Add(1)
	if s.fn == nil {
		return nil
	}
	return s.fn(ctx, conn)
}

func failing(msg string) *funcStrategy {
	return &funcStrategy{
		name: "ice-restart",
		fn: func(context.Context, interfaces.Connection) error {
			return errors.New(msg)
		},
	}
}

// callbackRecorder 记录生命周期回调
type callbackRecorder struct {
	mu        sync.Mutex
	starts    int
	successes []interfaces.RecoveryAttempt
	failures  []string
}

func (r *callbackRecorder) callbacks() interfaces.Callbacks {
	return interfaces.Callbacks{
		OnRecoveryStart: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.starts++
		},
		OnRecoverySuccess: func(a interfaces.RecoveryAttempt) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.successes = append(r.successes, a)
		},
		OnRecoveryFailed: func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.failures = append(r.failures, msg)
		},
	}
}

func (r *callbackRecorder) counts() (starts, successes, failures int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, len(r.successes), len(r.failures)
}

func (r *callbackRecorder) failureMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failures...)
}

type fixture struct {
	m     *Manager
	clock *clock.Mock
	conn  *mocks.MockConnection
	cb    *callbackRecorder
}

func newFixture(t *testing.T, cfg *Config, s interfaces.Strategy) *fixture {
	t.Helper()

	mock := clock.NewMock()
	conn := mocks.NewMockConnection(interfaces.LinkConnected)
	m := NewManager(cfg, Deps{Clock: mock, Strategy: s})
	t.Cleanup(func() { _ = m.Close() })

	cb := &callbackRecorder{}
	m.SetCallbacks(cb.callbacks())
	require.NoError(t, m.Monitor(conn))

	return &fixture{m: m, clock: mock, conn: conn, cb: cb}
}

// waitAttempts 等待第 n 次尝试被记录
//
// 记录与调度下一个定时器在同一临界区内完成，之后再取一次锁，
// 保证推进时钟前定时器已注册。
func (f *fixture) waitAttempts(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.m.Attempts()) >= n
	}, time.Second, time.Millisecond)
	_ = f.m.State()
	require.Len(t, f.m.Attempts(), n)
}

func (f *fixture) waitState(t *testing.T, s interfaces.RecoveryState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.m.State() == s
	}, time.Second, time.Millisecond)
}

// settle 给异步回调留出运行时间
func settle() {
	time.Sleep(20 * time.Millisecond)
}

// ============================================================================
//                              基本状态
// ============================================================================

func TestManager_InitialState(t *testing.T) {
	f := newFixture(t, DefaultConfig(), failing("x"))

	assert.Equal(t, interfaces.RecoveryStable, f.m.State())
	assert.False(t, f.m.IsRecovering())
	assert.Empty(t, f.m.LastError())
	assert.Zero(t, f.m.AttemptCount())
	assert.True(t, f.m.LastRecoveryAt().IsZero())
	assert.True(t, f.m.Snapshot().IsHealthy)
	assert.Equal(t, 1, f.conn.Listeners())
}

func TestManager_DefaultStrategyFromConfig(t *testing.T) {
	cfg := DefaultConfig().WithStrategy(strategy.NameNone)
	m := NewManager(cfg, Deps{Clock: clock.NewMock()})
	defer m.Close()

	assert.Equal(t, "none", m.strategy.Name())
}

func TestManager_MonitorNil(t *testing.T) {
	m := NewManager(nil, Deps{Clock: clock.NewMock()})
	defer m.Close()

	assert.Error(t, m.Monitor(nil))
}

// ============================================================================
//                              failure 触发
// ============================================================================

func TestManager_FailureTriggersICERestart(t *testing.T) {
	f := newFixture(t, DefaultConfig(), strategy.ICERestart{})

	f.conn.SetState(interfaces.LinkFailed)
	assert.True(t, f.m.IsRecovering())

	f.waitState(t, interfaces.RecoveryStable)
	f.waitAttempts(t, 1)

	attempts := f.m.Attempts()
	assert.True(t, attempts[0].Succeeded)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, "ice-restart", attempts[0].Strategy)
	assert.Equal(t, f.m.EpisodeID(), attempts[0].EpisodeID)

	assert.EqualValues(t, 1, f.conn.RestartICECalls.Load())
	assert.True(t, f.conn.LastOfferRestartFlag.Load())

	assert.Equal(t, f.clock.Now(), f.m.LastRecoveryAt())
	metrics := f.m.Metrics()
	assert.Equal(t, 1, metrics.TotalRecoveries)
	assert.Equal(t, f.clock.Now(), metrics.LastSuccessAt)

	starts, successes, failures := f.cb.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, successes)
	assert.Zero(t, failures)

	// 成功后不再调度
	f.clock.Add(time.Minute)
	settle()
	assert.Len(t, f.m.Attempts(), 1)
}

func TestManager_DisconnectAloneDoesNotTrigger(t *testing.T) {
	s := failing("x")
	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkDisconnected)
	settle()

	assert.Equal(t, interfaces.RecoveryStable, f.m.State())
	assert.False(t, f.m.Snapshot().IsHealthy)
	assert.Zero(t, s.calls.Load())
}

func TestManager_AutoRecoverDisabled(t *testing.T) {
	s := failing("x")
	f := newFixture(t, DefaultConfig().WithAutoRecover(false), s)

	f.conn.SetState(interfaces.LinkFailed)
	settle()

	assert.Equal(t, interfaces.RecoveryStable, f.m.State())
	assert.Zero(t, s.calls.Load())
}

func TestManager_SecondAutoTriggerIsNoop(t *testing.T) {
	cfg := DefaultConfig().WithStabilizationDelay(time.Second)
	f := newFixture(t, cfg, failing("x"))

	f.conn.SetState(interfaces.LinkFailed)
	id := f.m.EpisodeID()
	f.conn.SetState(interfaces.LinkConnecting)
	f.conn.SetState(interfaces.LinkFailed)

	assert.Equal(t, id, f.m.EpisodeID())
	assert.False(t, f.m.RequestRecovery(interfaces.CauseLinkFailure))

	starts, _, _ := f.cb.counts()
	assert.Equal(t, 1, starts)
}

// ============================================================================
//                              重试与耗尽
// ============================================================================

func TestManager_ExhaustsAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStrategy(ctrl)
	s.EXPECT().Name().Return("ice-restart").AnyTimes()
	s.EXPECT().Recover(gomock.Any(), gomock.Any()).Return(errors.New("ice failed")).Times(3)

	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)
	assert.Equal(t, "ice failed", f.m.LastError())
	assert.True(t, f.m.IsRecovering())

	f.clock.Add(time.Second)
	f.waitAttempts(t, 2)

	f.clock.Add(time.Second)
	f.waitAttempts(t, 3)
	f.waitState(t, interfaces.RecoveryFailed)

	assert.Equal(t, []string{"Recovery failed after 3 attempts"}, f.cb.failureMessages())
	assert.Equal(t, "Recovery failed after 3 attempts", f.m.LastError())
	assert.Equal(t, 3, f.m.AttemptCount())
	for i, a := range f.m.Attempts() {
		assert.Equal(t, i+1, a.AttemptNumber)
		assert.False(t, a.Succeeded)
	}

	metrics := f.m.Metrics()
	assert.Equal(t, 3, metrics.TotalAttempts)
	assert.Equal(t, 3, metrics.TotalFailedAttempts)
	assert.Equal(t, 1, metrics.TotalExhausted)

	// 不再有尝试，失败回调只有一次
	f.clock.Add(time.Minute)
	settle()
	assert.Len(t, f.m.Attempts(), 3)
	assert.Len(t, f.cb.failureMessages(), 1)
}

func TestManager_ExponentialBackoffSchedule(t *testing.T) {
	cfg := DefaultConfig().
		WithMaxAttempts(4).
		WithBackoff(time.Second, true, 30*time.Second)
	s := failing("x")
	f := newFixture(t, cfg, s)

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)

	f.clock.Add(time.Second)
	f.waitAttempts(t, 2)

	// 第二次之后等待 2s
	f.clock.Add(time.Second)
	settle()
	assert.Len(t, f.m.Attempts(), 2)
	f.clock.Add(time.Second)
	f.waitAttempts(t, 3)

	// 第三次之后等待 4s
	f.clock.Add(3 * time.Second)
	settle()
	assert.Len(t, f.m.Attempts(), 3)
	f.clock.Add(time.Second)
	f.waitAttempts(t, 4)
	f.waitState(t, interfaces.RecoveryFailed)
}

func TestManager_SuccessAfterRetry(t *testing.T) {
	var n atomic.Int32
	s := &funcStrategy{name: "reconnect", fn: func(context.Context, interfaces.Connection) error {
		if n.Add(1) == 1 {
			return errors.New("first try")
		}
		return nil
	}}
	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)
	f.clock.Add(time.Second)
	f.waitAttempts(t, 2)
	f.waitState(t, interfaces.RecoveryStable)

	assert.Empty(t, f.m.LastError())
	_, successes, failures := f.cb.counts()
	assert.Equal(t, 1, successes)
	assert.Zero(t, failures)
}

func TestManager_NoReconnectHandler(t *testing.T) {
	cfg := DefaultConfig().WithStrategy(strategy.NameReconnect).WithMaxAttempts(2)
	mock := clock.NewMock()
	conn := mocks.NewMockConnection(interfaces.LinkConnected)
	m := NewManager(cfg, Deps{Clock: mock})
	defer m.Close()
	require.NoError(t, m.Monitor(conn))

	f := &fixture{m: m, clock: mock, conn: conn}
	conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)
	assert.Equal(t, "No reconnect handler configured", m.LastError())

	mock.Add(time.Second)
	f.waitAttempts(t, 2)
	f.waitState(t, interfaces.RecoveryFailed)
}

func TestManager_StrategyPanic(t *testing.T) {
	t.Run("non-error value", func(t *testing.T) {
		s := &funcStrategy{name: "ice-restart", fn: func(context.Context, interfaces.Connection) error {
			panic(42)
		}}
		f := newFixture(t, DefaultConfig().WithMaxAttempts(1), s)

		f.conn.SetState(interfaces.LinkFailed)
		f.waitState(t, interfaces.RecoveryFailed)
		assert.Equal(t, "ice-restart failed", f.m.LastError())
	})

	t.Run("error value", func(t *testing.T) {
		s := &funcStrategy{name: "ice-restart", fn: func(context.Context, interfaces.Connection) error {
			panic(errors.New("pc closed"))
		}}
		f := newFixture(t, DefaultConfig().WithMaxAttempts(1), s)

		f.conn.SetState(interfaces.LinkFailed)
		f.waitState(t, interfaces.RecoveryFailed)
		assert.Equal(t, "pc closed", f.m.LastError())
	})
}

func TestManager_CallbackPanicContained(t *testing.T) {
	f := newFixture(t, DefaultConfig(), strategy.ICERestart{})
	f.m.SetCallbacks(interfaces.Callbacks{
		OnRecoveryStart:   func() { panic("start") },
		OnRecoverySuccess: func(interfaces.RecoveryAttempt) { panic("success") },
	})

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)
	f.waitState(t, interfaces.RecoveryStable)
}

func TestManager_AttemptTimeout(t *testing.T) {
	cfg := DefaultConfig().WithMaxAttempts(1).WithAttemptTimeout(5 * time.Second)
	started := make(chan struct{})
	s := &funcStrategy{name: "reconnect", fn: func(ctx context.Context, _ interfaces.Connection) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	f := newFixture(t, cfg, s)

	f.conn.SetState(interfaces.LinkFailed)
	<-started
	f.clock.Add(5 * time.Second)

	f.waitState(t, interfaces.RecoveryFailed)
	assert.Equal(t, context.DeadlineExceeded.Error(), f.m.LastError())
}

// ============================================================================
//                              取消
// ============================================================================

func TestManager_DisconnectCancelsPendingRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStrategy(ctrl)
	s.EXPECT().Name().Return("ice-restart").AnyTimes()
	s.EXPECT().Recover(gomock.Any(), gomock.Any()).Return(errors.New("ice failed")).Times(1)

	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)

	f.conn.SetState(interfaces.LinkDisconnected)
	assert.Equal(t, interfaces.RecoveryStable, f.m.State())

	f.clock.Add(time.Minute)
	settle()
	assert.Len(t, f.m.Attempts(), 1)

	_, _, failures := f.cb.counts()
	assert.Zero(t, failures)
}

func TestManager_LateResultDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	cancelled := make(chan struct{})
	s := &funcStrategy{name: "ice-restart", fn: func(ctx context.Context, _ interfaces.Connection) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		<-release
		return nil
	}}
	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkFailed)
	<-started

	f.conn.SetState(interfaces.LinkClosed)
	assert.Equal(t, interfaces.RecoveryStable, f.m.State())

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight attempt context not cancelled")
	}

	close(release)
	settle()

	assert.Empty(t, f.m.Attempts())
	assert.True(t, f.m.LastRecoveryAt().IsZero())
	_, successes, _ := f.cb.counts()
	assert.Zero(t, successes)
}

func TestManager_SelfHealDuringBackoff(t *testing.T) {
	s := failing("x")
	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)

	f.conn.SetState(interfaces.LinkConnected)
	assert.Equal(t, interfaces.RecoveryStable, f.m.State())

	f.clock.Add(time.Minute)
	settle()
	assert.EqualValues(t, 1, s.calls.Load())
}

func TestManager_RetryChecksLinkWhenTimerFires(t *testing.T) {
	s := failing("x")
	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)

	// 静默变化不经过监听器，只能在定时器到期时发现
	f.conn.SetStateSilently(interfaces.LinkClosed)
	f.m.HealthMonitor().Refresh()

	f.clock.Add(time.Second)
	f.waitState(t, interfaces.RecoveryStable)
	assert.EqualValues(t, 1, s.calls.Load())
	assert.Len(t, f.m.Attempts(), 1)
}

// ============================================================================
//                              restore 触发与稳定延迟
// ============================================================================

func signalingConfig() *Config {
	return DefaultConfig().
		WithStrategy(strategy.NameReconnect).
		WithTrigger(TriggerRestore).
		WithStabilizationDelay(time.Second).
		WithBackoff(2*time.Second, false, 30*time.Second).
		WithMaxAttempts(5).
		WithLinkName("SIP transport")
}

func TestManager_RestoreTriggersAfterStabilization(t *testing.T) {
	var calls atomic.Int32
	s := &strategy.Reconnect{Handler: func(context.Context) (bool, error) {
		calls.Add(1)
		return true, nil
	}}
	f := newFixture(t, signalingConfig(), s)

	f.conn.SetState(interfaces.LinkDisconnected)
	assert.False(t, f.m.IsRecovering())

	f.conn.SetState(interfaces.LinkConnected)
	assert.True(t, f.m.IsRecovering())

	f.clock.Add(999 * time.Millisecond)
	settle()
	assert.Zero(t, calls.Load())

	f.clock.Add(time.Millisecond)
	f.waitAttempts(t, 1)
	f.waitState(t, interfaces.RecoveryStable)
	assert.EqualValues(t, 1, calls.Load())
}

func TestManager_RestoreIgnoresConnectWithoutBreak(t *testing.T) {
	f := newFixture(t, signalingConfig(), failing("x"))

	f.conn.SetState(interfaces.LinkConnecting)
	f.conn.SetState(interfaces.LinkConnected)

	assert.False(t, f.m.IsRecovering())
}

func TestManager_StabilizationAbortedByConflict(t *testing.T) {
	s := failing("x")
	f := newFixture(t, signalingConfig(), s)

	f.conn.SetState(interfaces.LinkDisconnected)
	f.conn.SetState(interfaces.LinkRegistered)
	require.True(t, f.m.IsRecovering())

	f.conn.SetState(interfaces.LinkFailed)
	assert.Equal(t, interfaces.RecoveryStable, f.m.State())

	f.clock.Add(time.Minute)
	settle()
	assert.Zero(t, s.calls.Load())
	assert.Empty(t, f.m.Attempts())
}

// ============================================================================
//                              手动触发
// ============================================================================

func TestManager_TriggerRejectedWhenNotConnected(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStrategy(ctrl)
	s.EXPECT().Name().Return("reconnect").AnyTimes()

	f := newFixture(t, signalingConfig(), s)
	f.conn.SetState(interfaces.LinkDisconnected)

	err := f.m.TriggerRecovery()
	require.Error(t, err)
	assert.Equal(t, "Cannot trigger recovery: SIP transport not connected", err.Error())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, interfaces.RecoveryStable, f.m.State())

	starts, _, _ := f.cb.counts()
	assert.Zero(t, starts)
}

func TestManager_ManualTriggerRestartsEpisode(t *testing.T) {
	cfg := DefaultConfig().WithStabilizationDelay(time.Second)
	s := failing("x")
	f := newFixture(t, cfg, s)

	require.NoError(t, f.m.TriggerRecovery())
	first := f.m.EpisodeID()
	f.clock.Add(time.Second)
	f.waitAttempts(t, 1)
	assert.Equal(t, 1, f.m.AttemptCount())

	require.NoError(t, f.m.TriggerRecovery())
	assert.NotEqual(t, first, f.m.EpisodeID())
	assert.Zero(t, f.m.AttemptCount())
	assert.True(t, f.m.IsRecovering())

	starts, _, _ := f.cb.counts()
	assert.Equal(t, 2, starts)

	// 旧周期的退避定时器与新周期的稳定延迟同时到期，只执行新周期
	f.clock.Add(time.Second)
	f.waitAttempts(t, 2)
	settle()
	assert.EqualValues(t, 2, s.calls.Load())
	assert.Equal(t, 1, f.m.AttemptCount())
	assert.Equal(t, f.m.EpisodeID(), f.m.Attempts()[1].EpisodeID)
}

func TestManager_TriggerFromFailedState(t *testing.T) {
	f := newFixture(t, DefaultConfig().WithMaxAttempts(1), failing("x"))

	f.conn.SetState(interfaces.LinkFailed)
	f.waitState(t, interfaces.RecoveryFailed)

	f.conn.SetState(interfaces.LinkConnected)
	require.NoError(t, f.m.TriggerRecovery())
	f.waitAttempts(t, 2)
	f.waitState(t, interfaces.RecoveryFailed)
	assert.Len(t, f.cb.failureMessages(), 2)
}

func TestManager_RequestRecovery(t *testing.T) {
	cfg := DefaultConfig().WithStabilizationDelay(time.Second)
	f := newFixture(t, cfg, failing("x"))

	assert.True(t, f.m.RequestRecovery(interfaces.CauseNetworkChange))
	assert.False(t, f.m.RequestRecovery(interfaces.CauseNetworkChange))

	f.m.StopMonitoring()
	assert.False(t, f.m.IsRecovering())
	assert.False(t, f.m.RequestRecovery(interfaces.CauseNetworkChange))
}

func TestManager_FailureDuringManualEpisodeStartsFailureRecovery(t *testing.T) {
	cfg := DefaultConfig().WithStabilizationDelay(time.Second)
	s := failing("x")
	f := newFixture(t, cfg, s)

	require.NoError(t, f.m.TriggerRecovery())
	manual := f.m.EpisodeID()
	f.clock.Add(time.Second)
	f.waitAttempts(t, 1)

	// 手动周期被 failed 取消后，由 failure 触发新的周期
	f.conn.SetState(interfaces.LinkConnecting)
	f.conn.SetState(interfaces.LinkFailed)

	assert.True(t, f.m.IsRecovering())
	assert.NotEqual(t, manual, f.m.EpisodeID())
	assert.Zero(t, f.m.AttemptCount())
	starts, _, _ := f.cb.counts()
	assert.Equal(t, 2, starts)

	f.clock.Add(time.Second)
	f.waitAttempts(t, 2)
	assert.Equal(t, f.m.EpisodeID(), f.m.Attempts()[1].EpisodeID)
	assert.EqualValues(t, 2, s.calls.Load())
}

// ============================================================================
//                              Reset / Monitor / Close
// ============================================================================

func TestManager_ResetRestoresActualState(t *testing.T) {
	f := newFixture(t, DefaultConfig(), failing("x"))

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)
	require.NotEmpty(t, f.m.LastError())

	f.conn.SetStateSilently(interfaces.LinkConnected)
	f.m.Reset()

	assert.Equal(t, interfaces.RecoveryStable, f.m.State())
	assert.Empty(t, f.m.Attempts())
	assert.Empty(t, f.m.LastError())
	assert.Zero(t, f.m.AttemptCount())
	assert.Equal(t, interfaces.RecoveryMetrics{}, f.m.Metrics())
	assert.Equal(t, interfaces.LinkConnected, f.m.Snapshot().LinkState)
	assert.True(t, f.m.Snapshot().IsHealthy)

	f.clock.Add(time.Minute)
	settle()
	assert.Empty(t, f.m.Attempts())
}

func TestManager_MonitorSwapKeepsMetrics(t *testing.T) {
	f := newFixture(t, DefaultConfig(), failing("x"))

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)

	next := mocks.NewMockConnection(interfaces.LinkConnecting)
	require.NoError(t, f.m.Monitor(next))

	assert.Equal(t, 0, f.conn.Listeners())
	assert.Equal(t, 1, next.Listeners())
	assert.Equal(t, interfaces.RecoveryStable, f.m.State())
	assert.Equal(t, interfaces.LinkConnecting, f.m.Snapshot().LinkState)
	assert.Equal(t, 1, f.m.Metrics().TotalAttempts)

	// 旧连接的事件不再生效
	f.conn.SetState(interfaces.LinkFailed)
	assert.False(t, f.m.IsRecovering())

	f.clock.Add(time.Minute)
	settle()
	assert.Len(t, f.m.Attempts(), 1)
}

func TestManager_LateTransitionFromReplacedConnectionIgnored(t *testing.T) {
	s := failing("x")
	f := newFixture(t, DefaultConfig(), s)
	stale := f.m.HealthMonitor().Generation()

	next := mocks.NewMockConnection(interfaces.LinkConnected)
	require.NoError(t, f.m.Monitor(next))

	// 旧连接的 failed 已通过监控检查、在替换之后才到达
	f.m.handleTransition(interfaces.LinkTransition{
		Previous:   interfaces.LinkConnected,
		Current:    interfaces.LinkFailed,
		Generation: stale,
	})
	assert.False(t, f.m.IsRecovering())

	f.clock.Add(time.Minute)
	settle()
	assert.Zero(t, s.calls.Load())

	// 新连接的事件照常生效
	next.SetState(interfaces.LinkFailed)
	assert.True(t, f.m.IsRecovering())
	f.waitAttempts(t, 1)
}

func TestManager_Close(t *testing.T) {
	s := failing("x")
	f := newFixture(t, DefaultConfig(), s)

	f.conn.SetState(interfaces.LinkFailed)
	f.waitAttempts(t, 1)

	require.NoError(t, f.m.Close())
	require.NoError(t, f.m.Close())

	assert.Equal(t, 0, f.conn.Listeners())
	assert.ErrorIs(t, f.m.TriggerRecovery(), ErrManagerClosed)
	assert.ErrorIs(t, f.m.Monitor(f.conn), ErrManagerClosed)
	assert.False(t, f.m.RequestRecovery(interfaces.CauseManual))

	f.clock.Add(time.Minute)
	settle()
	assert.EqualValues(t, 1, s.calls.Load())
}
