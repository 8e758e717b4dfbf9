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
	gods "github.com/Workiva/go-datastructures/queue"

	"github.com/tochemey/troupe/errors"
)

// BoundedMailbox is a fixed-capacity mailbox backed by a ring buffer.
// Enqueue fails with ErrMailboxFull rather than blocking the sender.
type BoundedMailbox struct {
	underlying *gods.RingBuffer
}

// enforce compilation error
var _ Mailbox = (*BoundedMailbox)(nil)

// NewBoundedMailbox creates a BoundedMailbox. The ring buffer rounds the
// capacity up to the next power of two.
func NewBoundedMailbox(capacity int) *BoundedMailbox {
	if capacity < 1 {
		capacity = 1
	}
	return &BoundedMailbox{
		underlying: gods.NewRingBuffer(uint64(capacity)),
	}
}

// Enqueue implements Mailbox
func (mailbox *BoundedMailbox) Enqueue(envelope *Envelope) error {
	ok, err := mailbox.underlying.Offer(envelope)
	if err != nil {
		return errors.ErrDead
	}
	if !ok {
		return errors.ErrMailboxFull
	}
	return nil
}

// Dequeue implements Mailbox
func (mailbox *BoundedMailbox) Dequeue() *Envelope {
	if mailbox.underlying.Len() == 0 {
		return nil
	}

	item, err := mailbox.underlying.Get()
	if err != nil {
		return nil
	}

	envelope, _ := item.(*Envelope)
	return envelope
}

// IsEmpty implements Mailbox
func (mailbox *BoundedMailbox) IsEmpty() bool {
	return mailbox.underlying.Len() == 0
}

// Len implements Mailbox
func (mailbox *BoundedMailbox) Len() int64 {
	return int64(mailbox.underlying.Len())
}

// Dispose implements Mailbox
func (mailbox *BoundedMailbox) Dispose() {
	mailbox.underlying.Dispose()
}

// Cap returns the capacity of the mailbox
func (mailbox *BoundedMailbox) Cap() int64 {
	return int64(mailbox.underlying.Cap())
}
