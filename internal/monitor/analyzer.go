package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"TripWatch/internal/lock"
	"TripWatch/pkg/logger"
	"TripWatch/pkg/metrics"
)

// analyzerPollInterval 队列空轮询间隔，保证空闲 worker 能及时看到结束标志
const analyzerPollInterval = 200 * time.Millisecond

// Analyzer 消费行程 id 队列的 worker。
// 处理前重新取一次行程记录（入队后可能已变化），
// 拿不到锁就跳过，本 tick 漏掉的行程下个调度周期会重试。
type Analyzer struct {
	queue    <-chan int64
	finished *atomic.Bool
	engine   *Engine
	trips    TripStore
	locks    *lock.Registry

	idle      atomic.Bool
	processed *atomic.Int64
}

func NewAnalyzer(queue <-chan int64, finished *atomic.Bool, processed *atomic.Int64,
	engine *Engine, trips TripStore, locks *lock.Registry) *Analyzer {

	a := &Analyzer{
		queue:     queue,
		finished:  finished,
		engine:    engine,
		trips:     trips,
		locks:     locks,
		processed: processed,
	}
	a.idle.Store(true)
	return a
}

// Idle worker 当前是否空闲，调度器靠它区分
// "队列空了但还有 worker 在处理最后一条"与"彻底排空"
func (a *Analyzer) Idle() bool {
	return a.idle.Load()
}

// Run 循环消费队列直到结束标志置位
func (a *Analyzer) Run(ctx context.Context) {
	for !a.finished.Load() {
		select {
		case id, ok := <-a.queue:
			if !ok {
				return
			}
			a.idle.Store(false)
			a.process(ctx, id)
			a.idle.Store(true)
			a.processed.Add(1)
		case <-time.After(analyzerPollInterval):
			// 空转一圈，回头检查结束标志
		case <-ctx.Done():
			return
		}
	}
}

func (a *Analyzer) process(ctx context.Context, id int64) {
	start := time.Now()
	result := "checked"

	// 检查引擎 panic 不能拖垮 worker，恢复后当作本条失败继续消费
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("Trip check panicked",
				zap.Int64("trip_id", id), zap.Any("panic", r))
			metrics.RecordTripCheck(ctx, "error", time.Since(start).Seconds())
		}
	}()

	trip, err := a.trips.GetTrip(ctx, id)
	if err != nil {
		logger.Logger.Error("Failed to load trip for check",
			zap.Int64("trip_id", id), zap.Error(err))
		metrics.RecordTripCheck(ctx, "error", time.Since(start).Seconds())
		return
	}
	if trip == nil {
		// 入队后被删除了，正常跳过
		metrics.RecordTripCheck(ctx, "skipped", time.Since(start).Seconds())
		return
	}

	if !a.locks.Lock(id) {
		// 其他 worker 或前台编辑正持有锁，不等待
		logger.Logger.Debug("Trip is locked, skipping this cycle", zap.Int64("trip_id", id))
		metrics.RecordTripCheck(ctx, "skipped", time.Since(start).Seconds())
		return
	}
	defer a.locks.Unlock(id)

	if err := a.engine.Check(ctx, trip); err != nil {
		logger.Logger.Error("Trip check failed",
			zap.Int64("trip_id", id), zap.Error(err))
		result = "error"
	}

	metrics.RecordTripCheck(ctx, result, time.Since(start).Seconds())
}
