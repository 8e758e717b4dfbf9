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
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDivideByZero = errors.New("division by zero")

func TestFailure(t *testing.T) {
	t.Run("With nil error", func(t *testing.T) {
		assert.Nil(t, FromError(nil))
		var f *Failure
		assert.NoError(t, f.Err())
	})
	t.Run("With a runtime sentinel", func(t *testing.T) {
		f := FromError(NewErrDeliveryFailure(errors.New("connection refused")))
		require.NotNil(t, f)
		assert.Equal(t, KindDelivery, f.Kind)
		assert.ErrorIs(t, f.Err(), ErrDeliveryFailure)
		assert.Contains(t, f.Error(), "connection refused")
	})
	t.Run("With the most specific kind winning", func(t *testing.T) {
		err := fmt.Errorf("%w: %w", ErrDeliveryFailure, ErrMailboxFull)
		f := FromError(err)
		assert.Equal(t, "mailbox_full", f.Kind)
	})
	t.Run("With an application error", func(t *testing.T) {
		f := FromError(fmt.Errorf("divide 10: %w", errDivideByZero))
		assert.Equal(t, KindProcessing, f.Kind)
		require.NotNil(t, f.Cause)
		assert.Equal(t, "division by zero", f.Cause.Message)
		assert.ErrorIs(t, f.Err(), ErrProcessing)
	})
	t.Run("With a registered application kind across the wire", func(t *testing.T) {
		RegisterKind("divide_by_zero", errDivideByZero)
		f := FromError(errDivideByZero)
		assert.Equal(t, "divide_by_zero", f.Kind)

		bytea, err := cbor.Marshal(f)
		require.NoError(t, err)

		decoded := new(Failure)
		require.NoError(t, cbor.Unmarshal(bytea, decoded))
		assert.ErrorIs(t, decoded.Err(), errDivideByZero)
		assert.Equal(t, f.Message, decoded.Error())
	})
	t.Run("With a panic", func(t *testing.T) {
		f := FromError(NewPanicErrorAt("boom", 0))
		assert.Equal(t, KindPanic, f.Kind)
		assert.Contains(t, f.Message, "boom")
	})
	t.Run("With a Failure already built", func(t *testing.T) {
		original := &Failure{Kind: KindTimeout, Message: "late"}
		assert.Same(t, original, FromError(original))
	})
	t.Run("With a wrapped Failure keeping the outer context", func(t *testing.T) {
		original := &Failure{Kind: KindTimeout, Message: "late"}
		wrapped := fmt.Errorf("node utcp://127.0.0.1:4000/nodeManager: %w", original)

		f := FromError(wrapped)
		assert.Equal(t, KindTimeout, f.Kind)
		assert.Equal(t, "node utcp://127.0.0.1:4000/nodeManager: late", f.Message)
		assert.Same(t, original, f.Cause)
		assert.ErrorIs(t, f.Err(), ErrRequestTimeout)
	})
	t.Run("With several specific kinds resolved in a fixed order", func(t *testing.T) {
		err := fmt.Errorf("%w: %w: %w", ErrDead, ErrActorNotFound, ErrMailboxFull)
		for range 50 {
			assert.Equal(t, "mailbox_full", FromError(err).Kind)
		}

		err = errors.Join(ErrDead, ErrRequestTimeout)
		for range 50 {
			assert.Equal(t, KindTimeout, FromError(err).Kind)
		}
	})
}

func TestPanicError(t *testing.T) {
	err := NewPanicError(errors.New("test"))
	assert.EqualError(t, err, "panic: test")
	assert.EqualError(t, errors.Unwrap(err), "test")
}

func TestInternalError(t *testing.T) {
	err := NewInternalError(errors.New("test"))
	assert.EqualError(t, err, "internal error: test")
}
