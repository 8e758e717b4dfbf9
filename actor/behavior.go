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
	"fmt"

	"github.com/tochemey/troupe/errors"
)

// Behavior is the message-handling function of an actor. It receives the
// current state and returns the next one. When it returns an error the
// state is left untouched.
type Behavior[S any] func(rctx *ReceiveContext, state S) (S, error)

// Stateless adapts a function that keeps no state into a Behavior
func Stateless(fn func(rctx *ReceiveContext) error) Behavior[struct{}] {
	return func(rctx *ReceiveContext, state struct{}) (struct{}, error) {
		return state, fn(rctx)
	}
}

// Become replaces the behavior of the actor for the messages after the
// current one. The new behavior must operate on the same state type.
func Become[S any](rctx *ReceiveContext, behavior Behavior[S]) {
	rctx.become = behavior
}

// stepper drives one message through the behavior and owns the state.
// It is only ever called by the goroutine processing the mailbox.
type stepper func(rctx *ReceiveContext) error

func newStepper[S any](initial S, behavior Behavior[S]) stepper {
	state := initial
	current := behavior
	return func(rctx *ReceiveContext) error {
		next, err := current(rctx, state)
		if err != nil {
			return err
		}

		if rctx.become == nil {
			state = next
			return nil
		}

		swapped, ok := rctx.become.(Behavior[S])
		if !ok || swapped == nil {
			return fmt.Errorf("%w: become %T on state %T", errors.ErrInvalidState, rctx.become, state)
		}
		state = next
		current = swapped
		return nil
	}
}
