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
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/atom"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/internal/validation"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
)

const (
	// idle means there are no messages to process
	idle int32 = iota
	// busy means a goroutine is processing the mailbox
	busy
)

// number of messages processed before the processing goroutine yields
const throughput = 256

// identity is the naming state of an actor. It only changes before the
// actor is started.
type identity struct {
	path      string
	address   address.Address
	logger    log.Logger
	renamed   bool
	published bool
}

// PID is the handle of a live actor owned by the system that spawned it.
// It exposes the lifecycle operations; messaging goes through an ActorRef.
type PID struct {
	system  *System
	mailbox Mailbox
	receive stepper

	identity *atom.Atom[identity]

	status     atomic.Int32
	processing atomic.Int32
	stopping   atomic.Bool
	started    *atom.Latch
	finished   *atom.Latch
	done       chan struct{}
	err        atomic.Error
}

// enforces compilation error
var _ Manager = (*PID)(nil)

// Manager is the lifecycle surface of an actor
type Manager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Publish(ctx context.Context, protocol string) (*ActorRef, error)
}

func newPID(system *System, path string, mailbox Mailbox, receive stepper) *PID {
	pid := &PID{
		system:   system,
		mailbox:  mailbox,
		receive:  receive,
		started:  atom.NewLatch(),
		finished: atom.NewLatch(),
		done:     make(chan struct{}),
	}

	pid.identity = atom.New(identity{
		path:    path,
		address: address.NewLocal(system.id, path),
		logger:  system.logger.With("actor", path),
	})
	pid.status.Store(int32(StatusIdle))
	pid.processing.Store(idle)
	return pid
}

// Path returns the name of the actor within its system
func (pid *PID) Path() string {
	return pid.identity.Load().path
}

// Address returns the current address of the actor
func (pid *PID) Address() address.Address {
	return pid.identity.Load().address
}

// Ref returns a transferable reference to the actor
func (pid *PID) Ref() *ActorRef {
	return newActorRef(pid.Address(), pid.system)
}

// Status returns the lifecycle state of the actor
func (pid *PID) Status() Status {
	return Status(pid.status.Load())
}

// IsRunning reports whether the actor processes messages
func (pid *PID) IsRunning() bool {
	return pid.Status() == StatusRunning && !pid.stopping.Load()
}

// Done is closed once the actor stopped and its mailbox was drained
func (pid *PID) Done() <-chan struct{} {
	return pid.done
}

// Err returns the failure that terminated the actor, nil when it stopped
// normally or is still alive.
func (pid *PID) Err() error {
	return pid.err.Load()
}

// MailboxSize returns a snapshot of the number of pending messages
func (pid *PID) MailboxSize() int64 {
	return pid.mailbox.Len()
}

// Rename changes the name of the actor. It is allowed once and only before
// the actor is started or published.
func (pid *PID) Rename(name string) error {
	if err := validation.NewPathValidator(name).Validate(); err != nil {
		return err
	}

	if pid.started.IsTriggered() || pid.Status() != StatusIdle {
		return errors.ErrRenameNotAllowed
	}

	var oldPath string
	renamed, err := atom.Transact(pid.identity, func(current identity) (identity, error) {
		if current.renamed {
			return current, errors.ErrAlreadyRenamed
		}
		if current.published {
			return current, errors.ErrRenameNotAllowed
		}
		oldPath = current.path
		current.path = name
		current.address = address.NewLocal(pid.system.id, name)
		current.logger = pid.system.logger.With("actor", name)
		current.renamed = true
		return current, nil
	})
	if err != nil {
		return err
	}

	if err := pid.system.rekey(pid, oldPath, name); err != nil {
		// a rejected rename does not count
		pid.identity.Store(identity{
			path:    oldPath,
			address: address.NewLocal(pid.system.id, oldPath),
			logger:  pid.system.logger.With("actor", oldPath),
		})
		return err
	}

	renamed.logger.Debugf("actor renamed from %s", oldPath)
	return nil
}

// Publish exposes the actor over protocol and returns the reference remote
// peers use to reach it. An actor is published at most once.
func (pid *PID) Publish(ctx context.Context, protocol string) (*ActorRef, error) {
	if pid.stopping.Load() || pid.Status() == StatusStopped {
		return nil, errors.ErrDead
	}

	transport, ok := pid.system.transport(protocol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrProtocolNotListening, protocol)
	}

	published, err := atom.Transact(pid.identity, func(current identity) (identity, error) {
		if current.published {
			return current, errors.ErrAlreadyPublished
		}
		current.address = transport.endpoint.WithPath(current.path)
		current.published = true
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	if binder, ok := transport.protocol.(remote.Binder); ok {
		if err := binder.Bind(ctx, published.path); err != nil {
			return nil, errors.NewErrDeliveryFailure(err)
		}
	}

	published.logger.Infof("actor published at %s", published.address)
	return newActorRef(published.address, pid.system), nil
}

// Start moves the actor from Idle to Running. Messages enqueued while the
// actor was idle are processed from then on.
func (pid *PID) Start(context.Context) error {
	if pid.stopping.Load() || pid.Status() == StatusStopped {
		return errors.ErrDead
	}

	if !pid.started.Trigger() {
		return errors.ErrAlreadyStarted
	}

	if !pid.status.CompareAndSwap(int32(StatusIdle), int32(StatusRunning)) {
		return errors.ErrDead
	}

	pid.logger().Debug("actor started")
	pid.schedule()
	return nil
}

// Stop terminates the actor. The message being processed completes, pending
// Sync messages are failed with ErrDead and pending Async messages are
// recorded as dead letters. Stop waits until the mailbox is drained or ctx
// is done.
func (pid *PID) Stop(ctx context.Context) error {
	if pid.stopping.CompareAndSwap(false, true) {
		pid.status.Store(int32(StatusStopped))
		pid.schedule()
	}

	select {
	case <-pid.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (pid *PID) logger() log.Logger {
	return pid.identity.Load().logger
}

// enqueue hands an envelope to the actor
func (pid *PID) enqueue(envelope *Envelope) error {
	if pid.stopping.Load() || pid.Status() == StatusStopped {
		return errors.ErrDead
	}

	if err := pid.mailbox.Enqueue(envelope); err != nil {
		return err
	}

	if pid.Status() != StatusIdle {
		pid.schedule()
	}
	return nil
}

// schedule starts a processing goroutine unless one is running
func (pid *PID) schedule() {
	if !pid.processing.CompareAndSwap(idle, busy) {
		return
	}

	if pool := pid.system.pool; pool != nil && pool.Submit(pid.process) {
		return
	}
	go pid.process()
}

// process drains the mailbox. Only one goroutine runs it at a time.
func (pid *PID) process() {
	handled := 0
	for {
		if pid.Status() == StatusStopped {
			pid.drain()
			if pid.finished.Trigger() {
				pid.finalize()
			}
		} else if envelope := pid.mailbox.Dequeue(); envelope != nil {
			pid.handle(envelope)
			if handled++; handled < throughput {
				continue
			}
		}

		pid.processing.Store(idle)

		if pid.hasWork() && pid.processing.CompareAndSwap(idle, busy) {
			if handled >= throughput {
				// let other actors run before carrying on
				pid.processing.Store(idle)
				pid.schedule()
				return
			}
			continue
		}
		return
	}
}

func (pid *PID) hasWork() bool {
	if pid.Status() == StatusStopped {
		return !pid.finished.IsTriggered() || !pid.mailbox.IsEmpty()
	}
	return !pid.mailbox.IsEmpty()
}

// handle runs the behavior against one envelope
func (pid *PID) handle(envelope *Envelope) {
	rctx := newReceiveContext(pid, envelope)
	start := time.Now()

	err := pid.invoke(rctx)
	pid.system.recordProcessed(rctx.ctx, pid.Path(), time.Since(start), err)

	switch {
	case err != nil && envelope.reply != nil:
		// the caller receives the failure and the actor carries on with
		// its previous state. Once replied, the failure has nowhere to go.
		if !envelope.reply.Write(Result{Failure: errors.FromError(err)}) {
			pid.terminate(err)
			return
		}
	case err != nil:
		pid.terminate(err)
		return
	}

	if rctx.stop {
		pid.terminate(nil)
	}
}

// invoke calls the behavior, turning a panic into an error
func (pid *PID) invoke(rctx *ReceiveContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewPanicErrorAt(r, 2)
		}
	}()
	return pid.receive(rctx)
}

// terminate stops the actor from within its processing goroutine
func (pid *PID) terminate(cause error) {
	if cause != nil {
		pid.err.Store(cause)
		pid.logger().Errorf("actor terminated: %v", cause)
	}
	pid.stopping.Store(true)
	pid.status.Store(int32(StatusStopped))
}

// drain empties the mailbox of a stopped actor
func (pid *PID) drain() {
	for envelope := pid.mailbox.Dequeue(); envelope != nil; envelope = pid.mailbox.Dequeue() {
		if envelope.reply != nil {
			envelope.reply.Write(Result{Failure: errors.FromError(errors.ErrDead)})
			continue
		}
		pid.system.deadLetter(pid, envelope.message, errors.ErrDead)
	}
}

// finalize runs once after the actor stopped
func (pid *PID) finalize() {
	current := pid.identity.Load()
	pid.system.unregister(pid)

	if current.published {
		if transport, ok := pid.system.transport(current.address.Protocol()); ok {
			if binder, ok := transport.protocol.(remote.Binder); ok {
				ctx, cancel := context.WithTimeout(context.Background(), pid.system.replyTimeout)
				if err := binder.Unbind(ctx, current.path); err != nil {
					current.logger.Warnf("failed to unbind: %v", err)
				}
				cancel()
			}
		}
	}

	pid.mailbox.Dispose()
	current.logger.Debug("actor stopped")
	close(pid.done)
}
