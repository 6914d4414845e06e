// Package worker 固定数量的后台协程池，用于即发即忘的刷新任务
package worker

import (
	"sync"

	"go.uber.org/zap"
)

// Pool 后台任务池
// 通道满时降级为在调用方协程同步执行；Close 会等待已提交的任务全部执行完
type Pool struct {
	name  string
	tasks chan func()

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	idle     *sync.Cond // inflight 归零时广播
	inflight int
}

// NewPool 创建并启动任务池
// workerNum: 后台协程数量（至少 1）
// bufferSize: 通道缓冲区大小
func NewPool(name string, workerNum, bufferSize int) *Pool {
	if workerNum < 1 {
		workerNum = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	p := &Pool{
		name:  name,
		tasks: make(chan func(), bufferSize),
	}
	p.idle = sync.NewCond(&sync.Mutex{})
	p.wg.Add(workerNum)
	for i := 0; i < workerNum; i++ {
		go p.startWorker()
	}
	zap.L().Debug("worker pool started",
		zap.String("pool", name), zap.Int("workers", workerNum), zap.Int("buffer", bufferSize))
	return p
}

// Submit 提交任务，池已关闭时丢弃并返回 false
// 使用示例:
//
//	pool.Submit(func() {
//	    dir.RefreshChats(ctx, userID)
//	})
func (p *Pool) Submit(task func()) bool {
	if task == nil {
		return false
	}
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		zap.L().Debug("worker pool closed, task dropped", zap.String("pool", p.name))
		return false
	}
	p.track(1)
	select {
	case p.tasks <- task:
		// 成功放入
		p.mu.RUnlock()
		return true
	default:
	}
	p.mu.RUnlock()

	// 降级：同步执行
	// 为什么：刷新任务不能静默丢失，宁可让调用方多等一次请求
	zap.L().Warn("worker pool channel full, executing synchronously", zap.String("pool", p.name))
	defer p.track(-1)
	p.safeRun(task)
	return true
}

// Drain 等待已提交的任务全部完成，池仍可继续使用
func (p *Pool) Drain() {
	p.idle.L.Lock()
	for p.inflight > 0 {
		p.idle.Wait()
	}
	p.idle.L.Unlock()
}

func (p *Pool) track(delta int) {
	p.idle.L.Lock()
	p.inflight += delta
	if p.inflight == 0 {
		p.idle.Broadcast()
	}
	p.idle.L.Unlock()
}

// Close 停止接收新任务并等待队列中的任务执行完毕，可重复调用
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// startWorker 单个 worker 的消费循环，panic 后重启
func (p *Pool) startWorker() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("worker panic", zap.String("pool", p.name), zap.Any("recover", r))
			// 重启，先 Add 再 Done，保证 Close 的 Wait 不会提前返回
			p.wg.Add(1)
			go p.startWorker()
		}
		p.wg.Done()
	}()

	for task := range p.tasks {
		p.run(task)
	}
}

// run 任务 panic 时先归还计数再向上抛出，由 startWorker 重启
func (p *Pool) run(task func()) {
	defer p.track(-1)
	task()
}

func (p *Pool) safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("synchronous task panic", zap.String("pool", p.name), zap.Any("recover", r))
		}
	}()
	task()
}
