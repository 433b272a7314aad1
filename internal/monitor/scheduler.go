package monitor

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"TripWatch/internal/lock"
	"TripWatch/pkg/logger"
	"TripWatch/pkg/metrics"
)

// drainPollInterval 排空等待的轮询间隔
const drainPollInterval = 200 * time.Millisecond

// Scheduler 周期性扫描全部激活行程并分发给 worker 池，
// 每个 tick 排空后才返回，外部的定时触发保证同一时刻至多一个 tick 在跑。
type Scheduler struct {
	trips  TripStore
	engine *Engine
	locks  *lock.Registry

	workers     int
	enqueueWait time.Duration

	mu      sync.Mutex
	running bool
}

func NewScheduler(trips TripStore, engine *Engine, locks *lock.Registry, workers int, enqueueWait time.Duration) *Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scheduler{
		trips:       trips,
		engine:      engine,
		locks:       locks,
		workers:     workers,
		enqueueWait: enqueueWait,
	}
}

// MonitorAllTrips 执行一个完整的监控 tick：
// 取全部激活行程 id，分发给 worker 池，等队列排空且所有 worker 空闲后返回。
// 定时触发异常重入时直接返回，不会出现两个 tick 并行。
func (s *Scheduler) MonitorAllTrips(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Logger.Warn("Previous monitor tick still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()

	ids, err := s.trips.ActiveTripIDs(ctx)
	if err != nil {
		logger.Logger.Error("Failed to load active trip ids", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}

	queue := make(chan int64, s.workers)
	finished := &atomic.Bool{}
	processed := &atomic.Int64{}

	analyzers := make([]*Analyzer, 0, s.workers)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		a := NewAnalyzer(queue, finished, processed, s.engine, s.trips, s.locks)
		analyzers = append(analyzers, a)
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Run(ctx)
		}()
	}

	defer func() {
		finished.Store(true)
		wg.Wait()
	}()

	enqueued := 0
	for _, id := range ids {
		select {
		case queue <- id:
			enqueued++
		case <-time.After(s.enqueueWait):
			// 队列长时间打满说明 worker 卡死或容量失配，放弃本 tick
			logger.Logger.Error("Trip queue saturated, aborting monitor tick",
				zap.Int("enqueued", enqueued), zap.Int("total", len(ids)))
			return
		case <-ctx.Done():
			return
		}
	}

	// 排空等待：队列空且每个 worker 都报告空闲才算完成，
	// 只看队列长度会漏掉正在处理最后一条的 worker
	lastProgress := time.Now()
	for {
		if processed.Load() >= int64(enqueued) && len(queue) == 0 && s.allIdle(analyzers) {
			break
		}
		if ctx.Err() != nil {
			return
		}

		time.Sleep(drainPollInterval)

		if time.Since(lastProgress) >= time.Minute {
			logger.Logger.Info("Monitor tick in progress",
				zap.Int64("processed", processed.Load()),
				zap.Int("enqueued", enqueued))
			lastProgress = time.Now()
		}
	}

	elapsed := time.Since(start)
	metrics.RecordMonitorTick(ctx, enqueued, elapsed.Seconds())
	logger.Logger.Info("Monitor tick complete",
		zap.Int("trips", enqueued),
		zap.Duration("elapsed", elapsed))
}

func (s *Scheduler) allIdle(analyzers []*Analyzer) bool {
	for _, a := range analyzers {
		if !a.Idle() {
			return false
		}
	}
	return true
}

// Start 按固定间隔驱动监控 tick，直到 ctx 取消。
// MonitorAllTrips 自身排空后才返回，所以 tick 之间天然不重叠。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	logger.Logger.Info("Trip monitor started",
		zap.Duration("interval", interval),
		zap.Int("workers", s.workers))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info("Trip monitor stopped")
			return
		case <-ticker.C:
			s.MonitorAllTrips(ctx)
		}
	}
}
