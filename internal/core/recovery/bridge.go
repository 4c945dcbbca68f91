package recovery

import (
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/pkg/lib/log"
)

// ============================================================================
//                              监控与恢复桥接
// ============================================================================

// handleTransition 处理健康监控分发的状态转换
//
// 在原生回调上下文中同步执行，只改状态和定时器，不阻塞。
// 持有 m.mu 时读取 monitor 代数，锁顺序为 Manager.mu → Monitor.mu。
func (m *Manager) handleTransition(tr interfaces.LinkTransition) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if tr.Generation != m.monitor.Generation() {
		// 已被替换的连接迟到的事件
		m.mu.Unlock()
		logger.Debug("丢弃旧连接的状态转换", "link", m.config.LinkName, "state", tr.Current.String())
		return
	}

	if m.state == interfaces.RecoveryRecovering && m.episode != nil {
		ep := m.episode
		switch {
		case abortsEpisode(ep.cause, tr.Current):
			// 取消后继续判断是否启动新的自动周期
			m.endEpisodeLocked()
			logger.Info("链路断开，取消恢复",
				"link", m.config.LinkName,
				"episode", log.TruncateID(ep.id, 8),
				"state", tr.Current.String())

		case ep.cause == interfaces.CauseLinkFailure && tr.Current.IsHealthy() && ep.cancel == nil:
			// 等待重试期间自行恢复
			m.endEpisodeLocked()
			m.mu.Unlock()
			logger.Info("链路已自行恢复", "link", m.config.LinkName, "episode", log.TruncateID(ep.id, 8))
			return

		default:
			m.mu.Unlock()
			return
		}
	}

	if !m.config.AutoRecover {
		m.mu.Unlock()
		return
	}

	cause, ok := m.autoCause(tr)
	if !ok {
		m.mu.Unlock()
		return
	}
	m.startEpisodeLocked(cause)
	onStart := m.callbacks.OnRecoveryStart
	m.mu.Unlock()

	safeCall("OnRecoveryStart", onStart)
}

// autoCause 按触发模式判断转换是否启动恢复
func (m *Manager) autoCause(tr interfaces.LinkTransition) (interfaces.RecoveryCause, bool) {
	switch m.config.Trigger {
	case TriggerFailure:
		if tr.Current == interfaces.LinkFailed {
			return interfaces.CauseLinkFailure, true
		}
	case TriggerRestore:
		if tr.Current.IsHealthy() && tr.AfterBreak {
			return interfaces.CauseLinkRestored, true
		}
	}
	return 0, false
}

// abortsEpisode 转换到该状态是否取消进行中的周期
//
// disconnected / closed 总是取消；failed 只在非 failure 触发的周期中取消。
func abortsEpisode(cause interfaces.RecoveryCause, s interfaces.LinkState) bool {
	if s.IsGone() {
		return true
	}
	return s == interfaces.LinkFailed && cause != interfaces.CauseLinkFailure
}

// startCompatible 自动请求时链路状态是否允许启动
func startCompatible(cause interfaces.RecoveryCause, s interfaces.LinkState) bool {
	if cause == interfaces.CauseLinkFailure {
		return s == interfaces.LinkFailed
	}
	return s.IsHealthy()
}

// retryCompatible 尝试即将开始时链路状态是否允许继续
func retryCompatible(cause interfaces.RecoveryCause, s interfaces.LinkState) bool {
	if abortsEpisode(cause, s) {
		return false
	}
	if cause == interfaces.CauseLinkFailure {
		return true
	}
	return s.IsHealthy()
}
