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
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/errors"
)

type envelopeWithRef struct {
	Owner *ActorRef `cbor:"1,keyasint"`
	Note  string    `cbor:"2,keyasint"`
}

func TestActorRef(t *testing.T) {
	t.Run("With a CBOR round trip", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 1, WithAutoStart())

		bytea, err := cbor.Marshal(&envelopeWithRef{Owner: pid.Ref(), Note: "hello"})
		require.NoError(t, err)

		var decoded envelopeWithRef
		require.NoError(t, cbor.Unmarshal(bytea, &decoded))
		require.NotNil(t, decoded.Owner)
		assert.True(t, decoded.Owner.Equals(pid.Ref()))
		assert.Nil(t, decoded.Owner.system)

		// the decoded reference reaches the very same mailbox
		require.NoError(t, decoded.Owner.Post(ctx, &add{N: 2}))
		total, err := Ask[int](ctx, pid.Ref(), new(get), time.Second)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})
	t.Run("With a text round trip", func(t *testing.T) {
		ref := NewActorRef(address.New("utcp", "127.0.0.1", 9000, "adder"))
		text, err := ref.MarshalText()
		require.NoError(t, err)

		parsed, err := ParseActorRef(string(text))
		require.NoError(t, err)
		assert.True(t, parsed.Equals(ref))
		assert.Equal(t, ref.String(), parsed.String())
	})
	t.Run("With equality", func(t *testing.T) {
		a := NewActorRef(address.New("utcp", "127.0.0.1", 9000, "a"))
		b := NewActorRef(address.New("utcp", "127.0.0.1", 9000, "b"))
		var none *ActorRef
		assert.False(t, a.Equals(b))
		assert.False(t, a.Equals(none))
		assert.True(t, none.Equals(nil))
	})
	t.Run("With a missing actor", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		ref := NewActorRef(address.NewLocal(system.ID(), "ghost"))
		assert.ErrorIs(t, ref.Post(ctx, &add{N: 1}), errors.ErrActorNotFound)
		_, err := ref.PostAndReply(ctx, new(get), time.Second)
		assert.ErrorIs(t, err, errors.ErrActorNotFound)
	})
	t.Run("With a reply of the wrong type", func(t *testing.T) {
		ctx := context.Background()
		system := newTestSystem(t)
		pid := spawnAdder(t, system, "adder", 1, WithAutoStart())
		_, err := Ask[string](ctx, pid.Ref(), new(get), time.Second)
		assert.ErrorIs(t, err, errors.ErrInvalidState)
	})
	t.Run("With an address of another local system", func(t *testing.T) {
		ctx := context.Background()
		first := newTestSystem(t)
		second := newTestSystem(t)
		pid := spawnAdder(t, second, "adder", 1, WithAutoStart())

		ref := newActorRef(pid.Address(), first)
		require.NoError(t, ref.Post(ctx, &add{N: 1}))
		total, err := Ask[int](ctx, ref, new(get), time.Second)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})
}
