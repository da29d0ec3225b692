// Package sched 提供 UI 调度上下文实现。
//
// Main 模拟宿主 UI 主线程：任务按提交顺序串行执行，Async 永不阻塞调用方。
// 底层使用容量为 1 的 ants 协程池，任务队列由单个 drainer 顺序消费，
// 任务内再次调用 Async 只会入队，不会等待自身所在的 worker。
package sched

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ErrDrainTimeout Drain 超时
var ErrDrainTimeout = eris.New("sched: drain timed out")

// Main 串行 UI 调度器（实现 core.Scheduler）
type Main struct {
	pool *ants.Pool
	log  zerolog.Logger

	mu      sync.Mutex
	queue   []func()
	running bool // 是否已有 drainer 在池中

	wg     sync.WaitGroup
	closed atomic.Bool
	panics atomic.Int64
}

// NewMain 创建串行调度器
func NewMain(logger zerolog.Logger) (*Main, error) {
	m := &Main{log: logger.With().Str("component", "sched").Logger()}
	pool, err := ants.NewPool(1,
		ants.WithLogger(&m.log),
		ants.WithPanicHandler(func(r any) {
			m.panics.Add(1)
			m.log.Error().Str("panic", fmt.Sprint(r)).Msg("scheduler worker panic")
		}),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sched: create pool")
	}
	m.pool = pool
	return m, nil
}

// Async 投递任务（FIFO，非阻塞）。Drain 之后的投递被丢弃。
func (m *Main) Async(fn func()) {
	if fn == nil {
		return
	}
	if m.closed.Load() {
		m.log.Debug().Msg("scheduler closed, task dropped")
		return
	}
	m.wg.Add(1)

	m.mu.Lock()
	m.queue = append(m.queue, fn)
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	if err := m.pool.Submit(m.drain); err != nil {
		m.log.Warn().Err(err).Msg("scheduler submit failed, queue dropped")
		m.mu.Lock()
		dropped := len(m.queue)
		m.queue = nil
		m.running = false
		m.mu.Unlock()
		m.wg.Add(-dropped)
	}
}

// drain 顺序消费队列直至为空
func (m *Main) drain() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.running = false
			m.mu.Unlock()
			return
		}
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.run(fn)
	}
}

// run 执行单个任务，panic 不影响后续任务
func (m *Main) run(fn func()) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.panics.Add(1)
			m.log.Error().Str("panic", fmt.Sprint(r)).Msg("scheduled task panic")
		}
	}()
	fn()
}

// Panics 返回已恢复的任务 panic 次数
func (m *Main) Panics() int64 {
	return m.panics.Load()
}

// Drain 停止接收新任务，等待已投递任务执行完毕后释放协程池。
// timeout <= 0 时无限等待。
func (m *Main) Drain(timeout time.Duration) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		m.pool.Release()
		return nil
	}
	select {
	case <-done:
		m.pool.Release()
		return nil
	case <-time.After(timeout):
		m.pool.Release()
		return eris.Wrapf(ErrDrainTimeout, "after %v", timeout)
	}
}

// Release 立即停止调度器（不等待排队任务）
func (m *Main) Release() {
	m.closed.Store(true)
	m.pool.Release()
}

// Immediate 同步调度器：Async 在调用方 goroutine 内立即执行（测试用）
type Immediate struct{}

// Async 立即执行 fn
func (Immediate) Async(fn func()) {
	if fn != nil {
		fn()
	}
}
