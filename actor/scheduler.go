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

package actor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/log"
)

const schedulerStopTimeout = 5 * time.Second

// Scheduler posts messages to actors in the future. Every schedule call
// returns a key that cancels the schedule.
type Scheduler struct {
	mu              sync.Mutex
	quartzScheduler quartz.Scheduler
	started         atomic.Bool
	logger          log.Logger
}

func newScheduler(logger log.Logger) *Scheduler {
	// quartz logs go nowhere, the scheduler logs on its own
	quartzScheduler, _ := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	return &Scheduler{
		quartzScheduler: quartzScheduler,
		logger:          logger,
	}
}

func (x *Scheduler) start(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.quartzScheduler == nil {
		return errors.ErrSchedulerNotStarted
	}
	x.quartzScheduler.Start(context.WithoutCancel(ctx))
	x.started.Store(x.quartzScheduler.IsStarted())
	x.logger.Debug("messages scheduler started")
	return nil
}

func (x *Scheduler) stop(ctx context.Context) {
	if !x.started.Load() {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	_ = x.quartzScheduler.Clear()
	x.quartzScheduler.Stop()
	x.started.Store(x.quartzScheduler.IsStarted())

	ctx, cancel := context.WithTimeout(ctx, schedulerStopTimeout)
	defer cancel()
	x.quartzScheduler.Wait(ctx)
	x.logger.Debug("messages scheduler stopped")
}

// ScheduleOnce posts message to ref once after delay
func (x *Scheduler) ScheduleOnce(message any, ref *ActorRef, delay time.Duration) (string, error) {
	return x.schedule(message, ref, quartz.NewRunOnceTrigger(delay))
}

// Schedule posts message to ref at every interval
func (x *Scheduler) Schedule(message any, ref *ActorRef, interval time.Duration) (string, error) {
	return x.schedule(message, ref, quartz.NewSimpleTrigger(interval))
}

// ScheduleWithCron posts message to ref following a cron expression
func (x *Scheduler) ScheduleWithCron(message any, ref *ActorRef, expression string) (string, error) {
	trigger, err := quartz.NewCronTriggerWithLoc(expression, time.Now().Location())
	if err != nil {
		return "", err
	}
	return x.schedule(message, ref, trigger)
}

// Cancel removes the schedule registered under key
func (x *Scheduler) Cancel(key string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.started.Load() {
		return errors.ErrSchedulerNotStarted
	}
	return x.quartzScheduler.DeleteJob(quartz.NewJobKey(key))
}

func (x *Scheduler) schedule(message any, ref *ActorRef, trigger quartz.Trigger) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.started.Load() {
		return "", errors.ErrSchedulerNotStarted
	}

	key := uuid.NewString()
	postJob := job.NewFunctionJob[bool](
		func(ctx context.Context) (bool, error) {
			if err := ref.Post(ctx, message); err != nil {
				x.logger.Warnf("scheduled message to %s not delivered: %v", ref, err)
				return false, err
			}
			return true, nil
		},
	)

	detail := quartz.NewJobDetail(postJob, quartz.NewJobKey(key))
	if err := x.quartzScheduler.ScheduleJob(detail, trigger); err != nil {
		return "", err
	}
	return key, nil
}
