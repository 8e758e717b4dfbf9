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
	"sync"
)

// Failure kinds of the runtime taxonomy
const (
	KindDelivery      = "delivery"
	KindProcessing    = "processing"
	KindTimeout       = "timeout"
	KindSerialization = "serialization"
	KindDead          = "dead"
	KindPanic         = "panic"
)

// Failure is the structured descriptor of an error written into a reply
// channel. It survives serialization: the kind is resolved back into a
// registered sentinel on the receiving side so that errors.Is keeps working
// across process boundaries.
type Failure struct {
	Kind    string   `cbor:"1,keyasint"`
	Message string   `cbor:"2,keyasint"`
	Cause   *Failure `cbor:"3,keyasint,omitempty"`
}

var (
	kindsMu sync.RWMutex
	kinds   = map[string]error{
		KindDelivery:                  ErrDeliveryFailure,
		KindProcessing:                ErrProcessing,
		KindTimeout:                   ErrRequestTimeout,
		KindSerialization:             ErrSerialization,
		KindDead:                      ErrDead,
		"mailbox_full":                ErrMailboxFull,
		"actor_not_found":             ErrActorNotFound,
		"unhandled":                   ErrUnhandled,
		"cluster_not_initialized":     ErrClusterNotInitialized,
		"cluster_already_initialized": ErrClusterAlreadyInitialized,
		"cluster_mismatch":            ErrClusterMismatch,
		"invalid_cluster_config":      ErrInvalidClusterConfig,
		"role_lost":                   ErrRoleLost,
		"behavior_not_registered":     ErrBehaviorNotRegistered,
	}
	// precedence orders the kinds when an error matches several of them,
	// the most specific first
	precedence = []string{
		"mailbox_full",
		"actor_not_found",
		"unhandled",
		"cluster_not_initialized",
		"cluster_already_initialized",
		"cluster_mismatch",
		"invalid_cluster_config",
		"role_lost",
		"behavior_not_registered",
		KindTimeout,
		KindDead,
		KindDelivery,
		KindSerialization,
		KindProcessing,
	}
)

// RegisterKind makes sentinel recognizable across the remote boundary under kind.
// Registered kinds take precedence over the runtime ones. Kinds are
// process-wide and should be registered during init.
func RegisterKind(kind string, sentinel error) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	if _, ok := kinds[kind]; !ok {
		precedence = append([]string{kind}, precedence...)
	}
	kinds[kind] = sentinel
}

func lookupKind(kind string) (error, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	sentinel, ok := kinds[kind]
	return sentinel, ok
}

func kindOf(err error) string {
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return KindPanic
	}

	kindsMu.RLock()
	defer kindsMu.RUnlock()
	for _, kind := range precedence {
		if errors.Is(err, kinds[kind]) {
			return kind
		}
	}
	return KindProcessing
}

// FromError builds the Failure describing err. It returns nil for a nil error.
func FromError(err error) *Failure {
	if err == nil {
		return nil
	}

	var failure *Failure
	if errors.As(err, &failure) {
		if failure == err {
			return failure
		}
		// keep the context added around the failure
		return &Failure{Kind: failure.Kind, Message: err.Error(), Cause: failure}
	}

	f := &Failure{
		Kind:    kindOf(err),
		Message: err.Error(),
	}

	if cause := errors.Unwrap(err); cause != nil && cause.Error() != err.Error() {
		f.Cause = FromError(cause)
	}
	return f
}

// Error implements the standard error interface
func (f *Failure) Error() string {
	return f.Message
}

// Is reports whether the failure kind maps to target
func (f *Failure) Is(target error) bool {
	if f == nil {
		return false
	}
	if sentinel, ok := lookupKind(f.Kind); ok && sentinel == target {
		return true
	}
	if other, ok := target.(*Failure); ok {
		return other.Kind == f.Kind && other.Message == f.Message
	}
	return false
}

// Unwrap returns the nested cause
func (f *Failure) Unwrap() error {
	if f == nil || f.Cause == nil {
		return nil
	}
	return f.Cause
}

// Err turns the descriptor back into an error at the point where the caller
// asked for synchronous semantics. Nil descriptors give a nil error.
func (f *Failure) Err() error {
	if f == nil {
		return nil
	}
	return f
}
