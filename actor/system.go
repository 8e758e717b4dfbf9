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
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/atom"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/internal/metric"
	"github.com/tochemey/troupe/internal/validation"
	"github.com/tochemey/troupe/internal/workerpool"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
)

const (
	meterName           = "github.com/tochemey/troupe"
	defaultReplyTimeout = 5 * time.Second
	repliesPath         = "replies"
)

// transport is a protocol the system listens with
type transport struct {
	protocol remote.Protocol
	host     string
	port     int
	endpoint address.Address
	replyTo  address.Address
}

// System hosts actors. It owns their registry, the goroutines processing
// their mailboxes and the transports connecting it to other systems.
type System struct {
	name   string
	id     string
	logger log.Logger

	actors  *atom.Atom[map[string]*PID]
	pending *atom.Atom[map[string]*ReplyChannel]

	transports   map[string]*transport
	codec        *remote.Codec
	replyTimeout time.Duration

	pool        *workerpool.WorkerPool
	poolOptions []workerpool.Option
	scheduler   *Scheduler

	meter        otelmetric.Meter
	metrics      *metric.SystemMetric
	registration otelmetric.Registration

	processedCount   atomic.Int64
	failuresCount    atomic.Int64
	deadlettersCount atomic.Int64

	started atomic.Bool
	locker  sync.Mutex
}

// NewSystem creates an actor system
func NewSystem(name string, opts ...Option) (*System, error) {
	if err := validation.NewNameValidator(name).Validate(); err != nil {
		return nil, err
	}

	system := &System{
		name:         name,
		id:           uuid.NewString(),
		logger:       log.DefaultLogger,
		actors:       atom.New(map[string]*PID{}),
		pending:      atom.New(map[string]*ReplyChannel{}),
		transports:   make(map[string]*transport),
		codec:        remote.NewCodec(),
		replyTimeout: defaultReplyTimeout,
	}

	for _, opt := range opts {
		opt.Apply(system)
	}

	if system.replyTimeout <= 0 {
		return nil, errors.ErrInvalidTimeout
	}

	system.logger = system.logger.With("system", name)
	system.scheduler = newScheduler(system.logger)
	return system, nil
}

// Name returns the system name
func (s *System) Name() string {
	return s.name
}

// ID returns the unique identifier of the system instance
func (s *System) ID() string {
	return s.id
}

// Logger returns the system logger
func (s *System) Logger() log.Logger {
	return s.logger
}

// Scheduler returns the message scheduler of the system
func (s *System) Scheduler() *Scheduler {
	return s.scheduler
}

// IsStarted reports whether the system runs
func (s *System) IsStarted() bool {
	return s.started.Load()
}

// Endpoint returns the address the system listens on with protocol
func (s *System) Endpoint(protocol string) (address.Address, bool) {
	t, ok := s.transport(protocol)
	if !ok {
		return address.Address{}, false
	}
	return t.endpoint, true
}

// Actors returns a snapshot of the live actors
func (s *System) Actors() []*PID {
	return slices.Collect(maps.Values(s.actors.Load()))
}

// ActorOf returns the actor registered under path
func (s *System) ActorOf(path string) (*PID, bool) {
	pid, ok := s.actors.Load()[normalizePath(path)]
	return pid, ok
}

// LocalRef returns a reference to the actor registered under path
func (s *System) LocalRef(path string) (*ActorRef, error) {
	pid, ok := s.ActorOf(path)
	if !ok {
		return nil, errors.NewErrActorNotFound(path)
	}
	return newActorRef(pid.Address(), s), nil
}

// Ref returns a reference to addr whose messages are sent from the system
func (s *System) Ref(addr address.Address) *ActorRef {
	return newActorRef(addr, s)
}

// ProcessedCount returns the number of messages processed so far
func (s *System) ProcessedCount() int64 {
	return s.processedCount.Load()
}

// FailuresCount returns the number of messages whose processing failed
func (s *System) FailuresCount() int64 {
	return s.failuresCount.Load()
}

// DeadlettersCount returns the number of messages that reached no actor
func (s *System) DeadlettersCount() int64 {
	return s.deadlettersCount.Load()
}

// Start starts the system and its transports
func (s *System) Start(ctx context.Context) error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if s.started.Load() {
		return errors.ErrAlreadyStarted
	}

	s.pool = workerpool.New(s.poolOptions...)
	s.pool.Start()

	if err := s.scheduler.start(ctx); err != nil {
		s.pool.Stop()
		return err
	}

	var listening []*transport
	for _, t := range s.transports {
		if err := s.listen(ctx, t); err != nil {
			for _, opened := range listening {
				_ = opened.protocol.Close(ctx)
			}
			s.scheduler.stop(ctx)
			s.pool.Stop()
			return err
		}
		listening = append(listening, t)
	}

	if s.meter != nil {
		if err := s.registerMetrics(); err != nil {
			s.logger.Warnf("failed to register metrics: %v", err)
		}
	}

	s.started.Store(true)
	registerSystem(s)
	s.logger.Infof("actor system started with id %s", s.id)
	return nil
}

// Stop stops every actor then the transports of the system
func (s *System) Stop(ctx context.Context) error {
	s.locker.Lock()
	defer s.locker.Unlock()

	if !s.started.Load() {
		return errors.ErrSystemNotStarted
	}

	var err error
	for _, pid := range s.Actors() {
		err = multierr.Append(err, pid.Stop(ctx))
	}

	s.scheduler.stop(ctx)
	s.started.Store(false)
	unregisterSystem(s)

	// callers still waiting on remote replies will not get any
	_, orphans := atom.Transact(s.pending, func(current map[string]*ReplyChannel) (map[string]*ReplyChannel, map[string]*ReplyChannel) {
		return map[string]*ReplyChannel{}, current
	})
	for _, reply := range orphans {
		reply.Write(Result{Failure: errors.FromError(errors.ErrDead)})
	}

	for _, t := range s.transports {
		err = multierr.Append(err, t.protocol.Close(ctx))
	}

	if s.registration != nil {
		err = multierr.Append(err, s.registration.Unregister())
		s.registration = nil
	}

	s.pool.Stop()
	s.logger.Info("actor system stopped")
	return err
}

func (s *System) listen(ctx context.Context, t *transport) error {
	if err := t.protocol.Listen(ctx, t.host, t.port, s); err != nil {
		return errors.NewErrDeliveryFailure(fmt.Errorf("failed to listen with %s: %w", t.protocol.Name(), err))
	}

	host, port := t.protocol.Addr()
	t.endpoint = address.New(t.protocol.Name(), host, port, "")
	t.replyTo = t.endpoint.WithPath(repliesPath + "/" + s.id)

	if binder, ok := t.protocol.(remote.Binder); ok {
		if err := binder.Bind(ctx, t.replyTo.Path()); err != nil {
			_ = t.protocol.Close(ctx)
			return errors.NewErrDeliveryFailure(err)
		}
	}

	s.logger.Infof("listening on %s", t.endpoint)
	return nil
}

func (s *System) registerMetrics() error {
	metrics, err := metric.NewSystemMetric(s.meter)
	if err != nil {
		return err
	}

	registration, err := s.meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(metrics.ActorsCount(), int64(len(s.actors.Load())))
		observer.ObserveInt64(metrics.DeadlettersCount(), s.deadlettersCount.Load())
		observer.ObserveInt64(metrics.ProcessedCount(), s.processedCount.Load())
		observer.ObserveInt64(metrics.FailuresCount(), s.failuresCount.Load())
		return nil
	}, metrics.Observables()...)
	if err != nil {
		return err
	}

	s.metrics = metrics
	s.registration = registration
	return nil
}

func (s *System) transport(protocol string) (*transport, bool) {
	t, ok := s.transports[strings.ToLower(protocol)]
	if !ok || t.endpoint.IsZero() {
		return nil, false
	}
	return t, true
}

// owns reports whether addr designates an actor hosted by the system
func (s *System) owns(addr address.Address) bool {
	if addr.IsLocal() {
		return addr.Host() == s.id
	}
	t, ok := s.transport(addr.Protocol())
	if !ok || !t.endpoint.Equals(addr.Endpoint()) {
		return false
	}
	// systems sharing a broker share its endpoint
	if _, brokered := t.protocol.(remote.Binder); brokered {
		pid, found := s.actors.Load()[normalizePath(addr.Path())]
		return found && pid.Address().Equals(addr)
	}
	return true
}

func (s *System) register(pid *PID) error {
	path := pid.Path()
	_, err := atom.Transact(s.actors, func(current map[string]*PID) (map[string]*PID, error) {
		if _, ok := current[path]; ok {
			return current, fmt.Errorf("%w: %s", errors.ErrActorAlreadyExists, path)
		}
		next := maps.Clone(current)
		next[path] = pid
		return next, nil
	})
	return err
}

func (s *System) rekey(pid *PID, from, to string) error {
	_, err := atom.Transact(s.actors, func(current map[string]*PID) (map[string]*PID, error) {
		if _, ok := current[to]; ok {
			return current, fmt.Errorf("%w: %s", errors.ErrActorAlreadyExists, to)
		}
		next := maps.Clone(current)
		if next[from] == pid {
			delete(next, from)
		}
		next[to] = pid
		return next, nil
	})
	return err
}

func (s *System) unregister(pid *PID) {
	path := pid.Path()
	s.actors.Swap(func(current map[string]*PID) map[string]*PID {
		if current[path] != pid {
			return current
		}
		next := maps.Clone(current)
		delete(next, path)
		return next
	})
}

// post routes an Async message
func (s *System) post(ctx context.Context, to address.Address, message any) error {
	if !s.IsStarted() {
		return errors.ErrSystemNotStarted
	}

	if s.owns(to) {
		pid, err := s.localActor(to)
		if err != nil {
			return err
		}
		return pid.enqueue(newAsyncEnvelope(ctx, message))
	}

	if to.IsLocal() {
		// an in-process address of another system
		other, err := lookupSystem(to)
		if err != nil || other == s {
			return errors.NewErrActorNotFound(to.String())
		}
		return other.post(ctx, to, message)
	}

	return s.remotePost(ctx, to, message)
}

// postAndReply routes a Sync message and waits for its reply
func (s *System) postAndReply(ctx context.Context, to address.Address, message any, timeout time.Duration) (any, error) {
	if !s.IsStarted() {
		return nil, errors.ErrSystemNotStarted
	}

	if s.owns(to) {
		pid, err := s.localActor(to)
		if err != nil {
			return nil, err
		}

		reply, results := newLocalReplyChannel()
		if err := pid.enqueue(newSyncEnvelope(ctx, message, reply)); err != nil {
			return nil, err
		}
		return await(ctx, results, timeout)
	}

	if to.IsLocal() {
		other, err := lookupSystem(to)
		if err != nil || other == s {
			return nil, errors.NewErrActorNotFound(to.String())
		}
		return other.postAndReply(ctx, to, message, timeout)
	}

	return s.remoteRequest(ctx, to, message, timeout)
}

func (s *System) localActor(to address.Address) (*PID, error) {
	pid, ok := s.actors.Load()[normalizePath(to.Path())]
	if !ok {
		return nil, errors.NewErrActorNotFound(to.String())
	}
	return pid, nil
}

// await waits for the result of a request
func await(ctx context.Context, results <-chan Result, timeout time.Duration) (any, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case result := <-results:
		if result.Failure != nil {
			return nil, result.Failure
		}
		return result.Value, nil
	case <-expired:
		return nil, errors.ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *System) recordProcessed(ctx context.Context, path string, latency time.Duration, err error) {
	s.processedCount.Inc()
	if err != nil {
		s.failuresCount.Inc()
	}
	if s.metrics != nil {
		s.metrics.ReceivedDuration().Record(ctx, latency.Milliseconds(),
			otelmetric.WithAttributes(attribute.String("actor.path", path)))
	}
}

func (s *System) deadLetter(pid *PID, message any, reason error) {
	s.deadlettersCount.Inc()
	logger := s.logger
	if pid != nil {
		logger = pid.logger()
	}
	logger.Warnf("dead letter %T: %v", message, reason)
}

func normalizePath(path string) string {
	return strings.Trim(path, "/")
}
