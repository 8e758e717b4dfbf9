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
	"github.com/tochemey/troupe/atom"
	"github.com/tochemey/troupe/errors"
)

// Result is what travels through a ReplyChannel: a value or a failure
type Result struct {
	Value   any
	Failure *errors.Failure
}

// Err returns the failure as an error, nil on success
func (r Result) Err() error {
	return r.Failure.Err()
}

type replyWriter interface {
	write(result Result)
}

// chanWriter hands the result to a caller waiting in-process. The channel is
// buffered so that a write after the caller gave up does not block.
type chanWriter chan Result

func (w chanWriter) write(result Result) {
	w <- result
}

// ReplyChannel is the write-once handle correlated with one request
type ReplyChannel struct {
	latch  *atom.Latch
	writer replyWriter
}

func newReplyChannel(writer replyWriter) *ReplyChannel {
	return &ReplyChannel{latch: atom.NewLatch(), writer: writer}
}

func newLocalReplyChannel() (*ReplyChannel, <-chan Result) {
	ch := make(chan Result, 1)
	return newReplyChannel(chanWriter(ch)), ch
}

// Write delivers result. Only the first write succeeds; later writes are
// dropped and reported as false.
func (rc *ReplyChannel) Write(result Result) bool {
	if !rc.latch.Trigger() {
		return false
	}
	rc.writer.write(result)
	return true
}

// Reply writes a success value
func (rc *ReplyChannel) Reply(value any) error {
	if !rc.Write(Result{Value: value}) {
		return errors.ErrReplyAlreadySent
	}
	return nil
}

// Fail writes a failure
func (rc *ReplyChannel) Fail(err error) error {
	if !rc.Write(Result{Failure: errors.FromError(err)}) {
		return errors.ErrReplyAlreadySent
	}
	return nil
}

// Written reports whether the channel was already used
func (rc *ReplyChannel) Written() bool {
	return rc.latch.IsTriggered()
}
