// Package worker provides the bounded task pool shared by the tile manager
// and the backbuffer redraw engine.
package worker

import (
	"context"
	"time"
)

// Task is one unit of background work. Work runs on a pool worker; if Ctx
// is cancelled before the work is picked up, the task is dropped.
type Task struct {
	Ctx  context.Context
	Work func()
}

// Pool runs submitted tasks on at most maxWorkers goroutines. Submission
// never blocks the caller: when the queue is full the task is retried after
// a short delay.
type Pool struct {
	workers chan struct{}
	tasks   chan Task
	quit    chan struct{}
}

const resubmitDelay = 100 * time.Millisecond

// NewPool creates a pool with the given worker limit.
func NewPool(maxWorkers int) *Pool {
	p := &Pool{
		workers: make(chan struct{}, maxWorkers),
		tasks:   make(chan Task, 128),
		quit:    make(chan struct{}),
	}
	go p.dispatcher()
	return p
}

func (p *Pool) dispatcher() {
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			if task.Ctx != nil && task.Ctx.Err() != nil {
				continue
			}
			select {
			case p.workers <- struct{}{}:
				go func() {
					defer func() { <-p.workers }()
					task.Work()
				}()
			default:
				// All workers busy, try again shortly.
				go func() {
					time.Sleep(resubmitDelay)
					p.Submit(task)
				}()
			}
		}
	}
}

// Submit queues a task for execution.
func (p *Pool) Submit(task Task) {
	select {
	case <-p.quit:
	case p.tasks <- task:
	default:
		go func() {
			time.Sleep(resubmitDelay)
			p.Submit(task)
		}()
	}
}

// Shutdown stops the dispatcher. Already running tasks finish on their own.
func (p *Pool) Shutdown() {
	close(p.quit)
}
