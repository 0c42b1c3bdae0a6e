// Package loop 提供单协程事件循环：房间状态的所有读写都在这里串行执行，因此房间数据不需要加锁
package loop

import (
	"context"
	"errors"

	"github.com/palemoky/draw-and-guess/internal/logger"
)

// ErrStopped 事件循环已退出
var ErrStopped = errors.New("loop: stopped")

// Loop 串行执行投递的任务
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// New 创建事件循环，buffer 为任务队列长度
func New(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run 执行任务直到 ctx 取消，应在独立协程中调用且只调用一次
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			l.run(task)
		}
	}
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
	}()
	task()
}

// Post 投递任务，队列满时等待；循环已退出时丢弃并返回 false
func (l *Loop) Post(task func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- task:
		return true
	case <-l.done:
		return false
	}
}

// Call 投递任务并等待其执行完毕，用于其他协程读取房间状态
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done 循环退出后关闭
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
