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

package errors

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrDead is returned when the target actor is stopped or stopping
	ErrDead = errors.New("actor is not alive")
	// ErrRequestTimeout is returned when PostAndReply gives up waiting for a reply
	ErrRequestTimeout = errors.New("request timed out")
	// ErrDeliveryFailure is returned when the target cannot be reached or resolved
	ErrDeliveryFailure = errors.New("delivery failed")
	// ErrSerialization is returned when a payload cannot be encoded or decoded
	ErrSerialization = errors.New("serialization failed")
	// ErrProcessing is the default kind of a failure raised by an actor behavior
	ErrProcessing = errors.New("processing failed")
	// ErrMailboxFull is returned when a bounded mailbox rejects a message
	ErrMailboxFull = errors.New("mailbox is full")
	// ErrActorNotFound is returned when an address does not name a local actor
	ErrActorNotFound = errors.New("actor not found")
	// ErrActorAlreadyExists is returned when a name is already taken on the system
	ErrActorAlreadyExists = errors.New("actor already exists")
	// ErrAlreadyStarted is returned when starting an actor twice
	ErrAlreadyStarted = errors.New("actor already started")
	// ErrNotStarted is returned when an operation requires a running actor
	ErrNotStarted = errors.New("actor not started")
	// ErrAlreadyPublished is returned when publishing an actor twice
	ErrAlreadyPublished = errors.New("actor already published")
	// ErrAlreadyRenamed is returned when an actor is renamed more than once
	ErrAlreadyRenamed = errors.New("actor already renamed")
	// ErrRenameNotAllowed is returned when renaming an actor that is running or published
	ErrRenameNotAllowed = errors.New("rename is only allowed before start and publish")
	// ErrReplyAlreadySent is returned when a reply channel is written twice
	ErrReplyAlreadySent = errors.New("reply already sent")
	// ErrNoReplyChannel is returned when replying to an asynchronous message
	ErrNoReplyChannel = errors.New("message has no reply channel")
	// ErrProtocolNotFound is returned for an address whose protocol is not registered
	ErrProtocolNotFound = errors.New("protocol not found")
	// ErrProtocolNotListening is returned when the system has no listener for a protocol
	ErrProtocolNotListening = errors.New("protocol is not listening on this system")
	// ErrInvalidAddress is returned for malformed actor addresses
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidTimeout is returned when a timeout is negative
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrSystemNotStarted is returned when the actor system is not running
	ErrSystemNotStarted = errors.New("actor system is not running")
	// ErrNoSystem is returned when an unbound reference cannot find a running system
	ErrNoSystem = errors.New("no running actor system to resolve reference")
	// ErrBehaviorNotRegistered is returned when spawning an unknown named behavior
	ErrBehaviorNotRegistered = errors.New("behavior is not registered")
	// ErrInvalidState is returned when a behavior is swapped for one with another state type
	ErrInvalidState = errors.New("behavior state type mismatch")
	// ErrSchedulerNotStarted is returned when using the scheduler before the system starts
	ErrSchedulerNotStarted = errors.New("scheduler has not started")
	// ErrInvalidClusterConfig is returned when a cluster configuration does not validate
	ErrInvalidClusterConfig = errors.New("invalid cluster configuration")
	// ErrClusterNotInitialized is returned when a cluster request reaches an uninitialized node
	ErrClusterNotInitialized = errors.New("cluster is not initialized")
	// ErrClusterAlreadyInitialized is returned when InitCluster is sent twice
	ErrClusterAlreadyInitialized = errors.New("cluster is already initialized")
	// ErrClusterMismatch is returned when a request carries another cluster id
	ErrClusterMismatch = errors.New("cluster id mismatch")
	// ErrRoleLost is reported when failures exceed the configured failover factor
	ErrRoleLost = errors.New("cluster role permanently lost")
	// ErrUnhandled is returned when a behavior does not handle a message
	ErrUnhandled = errors.New("unhandled message")
)

// NewErrDeliveryFailure wraps err as a delivery failure
func NewErrDeliveryFailure(err error) error {
	return errors.Join(ErrDeliveryFailure, err)
}

// NewErrSerialization wraps err as a serialization failure
func NewErrSerialization(err error) error {
	return errors.Join(ErrSerialization, err)
}

// NewErrActorNotFound formats ErrActorNotFound with the address
func NewErrActorNotFound(address string) error {
	return fmt.Errorf("%w: %s", ErrActorNotFound, address)
}

// NewErrProtocolNotFound formats ErrProtocolNotFound with the protocol name
func NewErrProtocolNotFound(protocol string) error {
	return fmt.Errorf("%w: %s", ErrProtocolNotFound, protocol)
}

// NewErrInvalidAddress formats ErrInvalidAddress with the cause
func NewErrInvalidAddress(address string, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrInvalidAddress, address, err)
}

// PanicError wraps a value recovered from a panicking behavior
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// NewPanicErrorAt builds a PanicError from a recovered value, tagging it
// with the location of the panic site.
func NewPanicErrorAt(recovered any, skip int) *PanicError {
	var err error
	switch v := recovered.(type) {
	case error:
		err = v
	default:
		err = fmt.Errorf("%v", v)
	}

	if pc, file, line, ok := runtime.Caller(skip + 1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			err = fmt.Errorf("%w at %s[%s:%d]", err, fn.Name(), file, line)
		}
	}
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}

// InternalError defines an error that is explicit to the application
type InternalError struct {
	err error
}

// enforce compilation error
var _ error = (*InternalError)(nil)

// NewInternalError returns an instance of InternalError
func NewInternalError(err error) *InternalError {
	return &InternalError{
		err: fmt.Errorf("internal error: %w", err),
	}
}

// Error implements the standard error interface
func (i *InternalError) Error() string {
	return i.err.Error()
}

func (i *InternalError) Unwrap() error {
	return i.err
}
