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
	"time"

	"github.com/google/uuid"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/remote"
)

// enforce compilation error
var _ remote.Handler = (*System)(nil)

func (s *System) remotePost(ctx context.Context, to address.Address, message any) error {
	t, ok := s.transport(to.Protocol())
	if !ok {
		return errors.NewErrDeliveryFailure(errors.NewErrProtocolNotFound(to.Protocol()))
	}

	frame := &remote.Frame{Kind: remote.KindPost, To: to.String()}
	if err := s.codec.Encode(frame, message); err != nil {
		return err
	}

	if err := t.protocol.Send(ctx, to, frame); err != nil {
		return errors.NewErrDeliveryFailure(err)
	}
	return nil
}

func (s *System) remoteRequest(ctx context.Context, to address.Address, message any, timeout time.Duration) (any, error) {
	t, ok := s.transport(to.Protocol())
	if !ok {
		return nil, errors.NewErrDeliveryFailure(errors.NewErrProtocolNotFound(to.Protocol()))
	}

	frame := &remote.Frame{
		Kind:          remote.KindRequest,
		To:            to.String(),
		CorrelationID: uuid.NewString(),
	}
	if !remote.IsDuplex(t.protocol) {
		frame.ReplyTo = t.replyTo.String()
	}

	if err := s.codec.Encode(frame, message); err != nil {
		return nil, err
	}

	reply, results := newLocalReplyChannel()
	s.addPending(frame.CorrelationID, reply)
	defer s.removePending(frame.CorrelationID)

	if err := t.protocol.Send(ctx, to, frame); err != nil {
		return nil, errors.NewErrDeliveryFailure(err)
	}
	return await(ctx, results, timeout)
}

func (s *System) addPending(correlationID string, reply *ReplyChannel) {
	s.pending.Swap(func(current map[string]*ReplyChannel) map[string]*ReplyChannel {
		next := maps.Clone(current)
		next[correlationID] = reply
		return next
	})
}

func (s *System) removePending(correlationID string) *ReplyChannel {
	var removed *ReplyChannel
	s.pending.Swap(func(current map[string]*ReplyChannel) map[string]*ReplyChannel {
		removed = current[correlationID]
		if removed == nil {
			return current
		}
		next := maps.Clone(current)
		delete(next, correlationID)
		return next
	})
	return removed
}

// Deliver implements remote.Handler. It is called by the transports for
// every frame received from another system.
func (s *System) Deliver(ctx context.Context, frame *remote.Frame, replier remote.Replier) error {
	switch frame.Kind {
	case remote.KindReply:
		s.completeRequest(frame)
		return nil
	case remote.KindPost, remote.KindRequest:
	default:
		return fmt.Errorf("%w: unexpected %s frame", errors.ErrDeliveryFailure, frame.Kind)
	}

	var reply *ReplyChannel
	if frame.Kind == remote.KindRequest {
		reply = newReplyChannel(&remoteWriter{system: s, replier: replier, request: frame})
	}

	err := s.deliverRemote(ctx, frame, reply)
	if err != nil && reply != nil {
		// the requester learns about the failure through its reply
		reply.Write(Result{Failure: errors.FromError(err)})
		return nil
	}
	return err
}

func (s *System) deliverRemote(ctx context.Context, frame *remote.Frame, reply *ReplyChannel) error {
	if !s.IsStarted() {
		return errors.ErrDead
	}

	to, err := address.Parse(frame.To)
	if err != nil {
		return errors.NewErrDeliveryFailure(err)
	}

	pid, err := s.localActor(to)
	if err != nil {
		return err
	}

	// only published actors are reachable from other systems, and only
	// through the protocol they were published with
	if !pid.Address().Equals(to) {
		return errors.NewErrActorNotFound(frame.To)
	}

	message, err := s.codec.Decode(frame)
	if err != nil {
		return err
	}

	if reply == nil {
		return pid.enqueue(newAsyncEnvelope(ctx, message))
	}
	return pid.enqueue(newSyncEnvelope(ctx, message, reply))
}

func (s *System) completeRequest(frame *remote.Frame) {
	reply := s.removePending(frame.CorrelationID)
	if reply == nil {
		s.logger.Debugf("dropping reply %s: no pending request", frame.CorrelationID)
		return
	}

	if frame.Failure != nil {
		reply.Write(Result{Failure: frame.Failure})
		return
	}

	value, err := s.codec.Decode(frame)
	if err != nil {
		reply.Write(Result{Failure: errors.FromError(err)})
		return
	}
	reply.Write(Result{Value: value})
}

// remoteWriter sends the result of a request back to the requesting system
type remoteWriter struct {
	system  *System
	replier remote.Replier
	request *remote.Frame
}

func (w *remoteWriter) write(result Result) {
	frame := &remote.Frame{
		Kind:          remote.KindReply,
		To:            w.request.ReplyTo,
		CorrelationID: w.request.CorrelationID,
		Failure:       result.Failure,
	}

	if frame.Failure == nil {
		if err := w.system.codec.Encode(frame, result.Value); err != nil {
			frame.Failure = errors.FromError(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.system.replyTimeout)
	defer cancel()
	if err := w.replier.Reply(ctx, frame); err != nil {
		w.system.logger.Warnf("failed to reply to %s: %v", w.request.CorrelationID, err)
	}
}
