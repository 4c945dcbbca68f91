// Package listeners 提供显式的监听器注册表
//
// 每次 Add 返回一个移除令牌（remove func），不依赖函数引用相等性移除监听器。
// 令牌可重复调用，只有第一次生效。
package listeners

import (
	"sort"
	"sync"
)

// Registry 监听器注册表
//
// 并发安全。Snapshot 按注册顺序返回副本，调用方在锁外回调。
type Registry[T any] struct {
	mu    sync.RWMutex
	next  uint64
	items map[uint64]T
}

// New 创建注册表
func New[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[uint64]T)}
}

// Add 注册监听器，返回移除令牌
func (r *Registry[T]) Add(fn T) (remove func()) {
	r.mu.Lock()
	if r.items == nil {
		r.items = make(map[uint64]T)
	}
	r.next++
	id := r.next
	r.items[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.items, id)
			r.mu.Unlock()
		})
	}
}

// Snapshot 返回按注册顺序排列的监听器副本
func (r *Registry[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id])
	}
	return out
}

// Len 返回当前监听器数量
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear 移除全部监听器
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	r.items = make(map[uint64]T)
	r.mu.Unlock()
}
