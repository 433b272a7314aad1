package clock

import (
	"sync"
	"time"
)

// Clock 抽象当前时间来源，监控引擎的时间窗口判定依赖注入的时钟，
// 测试时换成 Fixed 即可得到确定性的结果。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Real 返回系统时钟。
func Real() Clock {
	return realClock{}
}

// Fixed 是可手动拨动的时钟。
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
