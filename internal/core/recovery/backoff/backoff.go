// Package backoff 计算恢复重试之间的等待时间
//
// 支持两种模式：
//   - Fixed: 固定间隔
//   - Exponential: 第 k 次（从 0 开始）延迟 = min(Base * 2^k, Max)
//
// 失败尝试无论是返回错误还是 panic，都使用同一套延迟表。
package backoff

import (
	"math"
	"time"
)

// Policy 退避策略
type Policy interface {
	// Delay 返回第 k 次重试（从 0 开始）前的等待时间
	Delay(k int) time.Duration
}

// Fixed 固定间隔
type Fixed struct {
	Interval time.Duration
}

// Delay 实现 Policy
func (f Fixed) Delay(int) time.Duration {
	if f.Interval < 0 {
		return 0
	}
	return f.Interval
}

// Exponential 指数退避，Max 为上限（<= 0 表示不封顶）
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

// Delay 实现 Policy
func (e Exponential) Delay(k int) time.Duration {
	if e.Base <= 0 {
		return 0
	}
	if k < 0 {
		k = 0
	}

	d := e.Base
	for i := 0; i < k; i++ {
		// 翻倍前检查溢出和上限
		if e.Max > 0 && d >= e.Max {
			return e.Max
		}
		if d > time.Duration(math.MaxInt64/2) {
			break
		}
		d *= 2
	}

	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// New 根据配置创建退避策略
func New(exponential bool, base, max time.Duration) Policy {
	if exponential {
		return Exponential{Base: base, Max: max}
	}
	return Fixed{Interval: base}
}

// Schedule 返回前 n 次重试的延迟表，便于日志和诊断
func Schedule(p Policy, n int) []time.Duration {
	out := make([]time.Duration, 0, n)
	for k := 0; k < n; k++ {
		out = append(out, p.Delay(k))
	}
	return out
}
