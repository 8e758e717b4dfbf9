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
	"github.com/tochemey/troupe/internal/queue"
)

// UnboundedMailbox is a lock-free multi-producer, single-consumer mailbox.
// It never rejects an envelope: memory grows when producers outpace the actor.
type UnboundedMailbox struct {
	underlying *queue.Mpsc[*Envelope]
}

// enforces compilation error
var _ Mailbox = (*UnboundedMailbox)(nil)

// NewUnboundedMailbox creates an UnboundedMailbox
func NewUnboundedMailbox() *UnboundedMailbox {
	return &UnboundedMailbox{underlying: queue.NewMpsc[*Envelope]()}
}

// Enqueue implements Mailbox
func (m *UnboundedMailbox) Enqueue(envelope *Envelope) error {
	m.underlying.Push(envelope)
	return nil
}

// Dequeue implements Mailbox
func (m *UnboundedMailbox) Dequeue() *Envelope {
	envelope, ok := m.underlying.Pop()
	if !ok {
		return nil
	}
	return envelope
}

// IsEmpty implements Mailbox
func (m *UnboundedMailbox) IsEmpty() bool {
	return m.underlying.IsEmpty()
}

// Len implements Mailbox
func (m *UnboundedMailbox) Len() int64 {
	return m.underlying.Len()
}

// Dispose implements Mailbox
func (m *UnboundedMailbox) Dispose() {}
