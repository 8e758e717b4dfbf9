/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package workerpool reuses goroutines across short-lived tasks. The actor
// runtime submits one drain task per busy actor, so many actors share the
// goroutines parked here instead of owning one each.
package workerpool

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

const defaultPassivateAfter = time.Second

// WorkerPool runs submitted tasks on a set of goroutines that grows on demand.
// A worker idle for longer than the passivation delay exits.
type WorkerPool struct {
	passivateAfter time.Duration

	mu      sync.RWMutex
	running bool
	stopped bool
	done    chan struct{}

	// tasks hands a task to a parked worker
	tasks chan func()
	// idle counts the parked workers no submitter has claimed yet
	idle    atomic.Int64
	workers atomic.Int64
}

// New creates a worker pool. Workers idle for more than a second exit unless
// WithPassivateAfter says otherwise.
func New(opts ...Option) *WorkerPool {
	pool := &WorkerPool{
		passivateAfter: defaultPassivateAfter,
		tasks:          make(chan func()),
	}
	for _, opt := range opts {
		opt(pool)
	}
	if pool.passivateAfter <= 0 {
		pool.passivateAfter = defaultPassivateAfter
	}
	return pool
}

// Workers returns the count of live workers
func (p *WorkerPool) Workers() int {
	return int(p.workers.Load())
}

// Start opens the pool for submissions. A stopped pool stays stopped.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.stopped {
		return
	}
	p.done = make(chan struct{})
	p.running = true
}

// Stop refuses new submissions and releases the parked workers. Running tasks
// complete, then their workers exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.stopped = true
	close(p.done)
}

// Submit runs task on a parked worker or on a new one. It returns false,
// without running task, when the pool is not running.
func (p *WorkerPool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return false
	}

	for n := p.idle.Load(); n > 0; n = p.idle.Load() {
		if p.idle.CompareAndSwap(n, n-1) {
			// the claimed worker is bound to receive
			p.tasks <- task
			return true
		}
	}

	p.workers.Inc()
	go p.work(task)
	return true
}

func (p *WorkerPool) work(task func()) {
	defer p.workers.Dec()

	timer := time.NewTimer(p.passivateAfter)
	defer timer.Stop()

	for task != nil {
		task()
		task = nil

		timer.Reset(p.passivateAfter)
		p.idle.Inc()
		select {
		case task = <-p.tasks:
		case <-p.done:
			p.retire()
			return
		case <-timer.C:
			if p.retire() {
				return
			}
			// a submitter claimed this worker before it could leave
			select {
			case task = <-p.tasks:
			case <-p.done:
				return
			}
		}
	}
}

// retire withdraws a parked worker. It fails when every parked worker has
// been claimed by a submitter.
func (p *WorkerPool) retire() bool {
	for n := p.idle.Load(); n > 0; n = p.idle.Load() {
		if p.idle.CompareAndSwap(n, n-1) {
			return true
		}
	}
	return false
}
