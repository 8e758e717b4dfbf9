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

	"github.com/fxamacker/cbor/v2"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/remote"
)

func init() {
	remote.RegisterSerializableTypes(new(ActorRef))
}

// ActorRef is the transferable handle used to message an actor. It can be
// copied, embedded in messages and sent to other systems. A reference
// decoded from the wire binds lazily to a running system of the process.
type ActorRef struct {
	addr   address.Address
	system *System
}

func newActorRef(addr address.Address, system *System) *ActorRef {
	return &ActorRef{addr: addr, system: system}
}

// NewActorRef creates a reference from an address. The reference binds to a
// running system of the process when it is first used.
func NewActorRef(addr address.Address) *ActorRef {
	return &ActorRef{addr: addr}
}

// ParseActorRef creates a reference from an address string
func ParseActorRef(s string) (*ActorRef, error) {
	addr, err := address.Parse(s)
	if err != nil {
		return nil, err
	}
	return NewActorRef(addr), nil
}

// Address returns the address of the actor
func (ref *ActorRef) Address() address.Address {
	return ref.addr
}

// Post sends message without waiting for it to be processed
func (ref *ActorRef) Post(ctx context.Context, message any) error {
	system, err := ref.resolve()
	if err != nil {
		return err
	}
	return system.post(ctx, ref.addr, message)
}

// PostAndReply sends message and waits for the reply. A timeout of zero or
// less waits until ctx is done.
func (ref *ActorRef) PostAndReply(ctx context.Context, message any, timeout time.Duration) (any, error) {
	system, err := ref.resolve()
	if err != nil {
		return nil, err
	}
	return system.postAndReply(ctx, ref.addr, message, timeout)
}

// Ask is the typed flavor of PostAndReply
func Ask[R any](ctx context.Context, ref *ActorRef, message any, timeout time.Duration) (R, error) {
	var zero R
	reply, err := ref.PostAndReply(ctx, message, timeout)
	if err != nil {
		return zero, err
	}

	typed, ok := reply.(R)
	if !ok {
		return zero, fmt.Errorf("%w: unexpected reply %T, expected %T", errors.ErrInvalidState, reply, zero)
	}
	return typed, nil
}

// Equals reports whether both references point at the same actor
func (ref *ActorRef) Equals(other *ActorRef) bool {
	if ref == nil || other == nil {
		return ref == other
	}
	return ref.addr.Equals(other.addr)
}

// String returns the address of the actor
func (ref *ActorRef) String() string {
	if ref == nil {
		return ""
	}
	return ref.addr.String()
}

// MarshalCBOR encodes the reference as its address
func (ref *ActorRef) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(ref.addr.String())
}

// UnmarshalCBOR decodes a reference encoded by MarshalCBOR
func (ref *ActorRef) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	return ref.UnmarshalText([]byte(s))
}

// MarshalText implements encoding.TextMarshaler
func (ref *ActorRef) MarshalText() ([]byte, error) {
	return []byte(ref.addr.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (ref *ActorRef) UnmarshalText(text []byte) error {
	addr, err := address.Parse(string(text))
	if err != nil {
		return err
	}
	ref.addr = addr
	ref.system = nil
	return nil
}

func (ref *ActorRef) resolve() (*System, error) {
	if ref.system != nil && ref.system.IsStarted() {
		return ref.system, nil
	}
	return lookupSystem(ref.addr)
}
