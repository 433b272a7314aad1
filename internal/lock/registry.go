package lock

import (
	"context"
	"sync"
	"time"
)

// Registry 按行程 id 互斥，后台检查与前台编辑共用同一把锁。
// 互斥只隔离应用层的推理过程，存储层自身的写冲突由数据库保证。
type Registry struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		held: make(map[int64]struct{}),
	}
}

// Lock 尝试获取行程锁，原子的检查并置位。
// 返回 false 表示锁已被他人持有，调用方应跳过本次处理而非等待。
func (r *Registry) Lock(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.held[id]; ok {
		return false
	}
	r.held[id] = struct{}{}
	return true
}

// Unlock 释放行程锁，必须放在 defer 中保证异常路径也能释放
func (r *Registry) Unlock(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, id)
}

// IsLocked 查询某个行程当前是否被锁定
func (r *Registry) IsLocked(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.held[id]
	return ok
}

// LockForUpdating 前台编辑路径的有界等待获取。
// 锁被占用时按 pollInterval 轮询直到释放或超时，
// 超时返回 false，调用方应向用户返回"忙，请稍后重试"而不是继续修改。
func (r *Registry) LockForUpdating(ctx context.Context, id int64, maxWait, pollInterval time.Duration) bool {
	deadline := time.Now().Add(maxWait)

	for {
		if r.Lock(id) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}
}
