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

	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/log"
)

// ReceiveContext carries the message being processed together with the
// means to answer it. It is only valid during the behavior call it was
// handed to.
type ReceiveContext struct {
	ctx     context.Context
	message any
	reply   *ReplyChannel
	self    *PID
	stop    bool
	become  any
}

func newReceiveContext(self *PID, envelope *Envelope) *ReceiveContext {
	return &ReceiveContext{
		ctx:     envelope.ctx,
		message: envelope.message,
		reply:   envelope.reply,
		self:    self,
	}
}

// Context returns the context the message was sent with
func (rctx *ReceiveContext) Context() context.Context {
	return rctx.ctx
}

// Message returns the message being processed
func (rctx *ReceiveContext) Message() any {
	return rctx.message
}

// IsSync reports whether the sender is waiting for a reply
func (rctx *ReceiveContext) IsSync() bool {
	return rctx.reply != nil
}

// ReplyChannel returns the reply channel of a Sync message. The channel may
// be handed to another actor to answer on this actor's behalf.
func (rctx *ReceiveContext) ReplyChannel() *ReplyChannel {
	return rctx.reply
}

// Reply answers a Sync message
func (rctx *ReceiveContext) Reply(value any) error {
	if rctx.reply == nil {
		return errors.ErrNoReplyChannel
	}
	return rctx.reply.Reply(value)
}

// Fail answers a Sync message with a failure
func (rctx *ReceiveContext) Fail(err error) error {
	if rctx.reply == nil {
		return errors.ErrNoReplyChannel
	}
	return rctx.reply.Fail(err)
}

// Replied reports whether the reply channel was written
func (rctx *ReceiveContext) Replied() bool {
	return rctx.reply != nil && rctx.reply.Written()
}

// Unhandled marks the message as not understood. A Sync sender receives an
// ErrUnhandled failure; an Async message is recorded as a dead letter.
func (rctx *ReceiveContext) Unhandled() {
	if rctx.reply != nil {
		_ = rctx.reply.Fail(fmt.Errorf("%w: %T", errors.ErrUnhandled, rctx.message))
		return
	}
	rctx.self.system.deadLetter(rctx.self, rctx.message, errors.ErrUnhandled)
}

// Self returns the actor processing the message
func (rctx *ReceiveContext) Self() *PID {
	return rctx.self
}

// Stop terminates the actor once the current message is handled
func (rctx *ReceiveContext) Stop() {
	rctx.stop = true
}

// System returns the actor system hosting the actor
func (rctx *ReceiveContext) System() *System {
	return rctx.self.system
}

// Logger returns the actor logger
func (rctx *ReceiveContext) Logger() log.Logger {
	return rctx.self.logger()
}
