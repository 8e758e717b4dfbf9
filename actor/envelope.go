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
	"time"
)

// Envelope is a message waiting in a mailbox. It is Async when it carries
// no reply channel and Sync otherwise.
type Envelope struct {
	ctx        context.Context
	message    any
	reply      *ReplyChannel
	enqueuedAt time.Time
}

func newAsyncEnvelope(ctx context.Context, message any) *Envelope {
	return &Envelope{
		ctx:        context.WithoutCancel(ctx),
		message:    message,
		enqueuedAt: time.Now(),
	}
}

func newSyncEnvelope(ctx context.Context, message any, reply *ReplyChannel) *Envelope {
	return &Envelope{
		ctx:        context.WithoutCancel(ctx),
		message:    message,
		reply:      reply,
		enqueuedAt: time.Now(),
	}
}

// Message returns the payload
func (e *Envelope) Message() any {
	return e.message
}

// IsSync reports whether the sender waits for a reply
func (e *Envelope) IsSync() bool {
	return e.reply != nil
}

// ReplyChannel returns the reply channel of a Sync envelope, nil otherwise
func (e *Envelope) ReplyChannel() *ReplyChannel {
	return e.reply
}

// EnqueuedAt returns the time the message entered the mailbox
func (e *Envelope) EnqueuedAt() time.Time {
	return e.enqueuedAt
}
