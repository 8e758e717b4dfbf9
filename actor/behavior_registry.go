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
	"maps"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/tochemey/troupe/atom"
	"github.com/tochemey/troupe/errors"
)

// Constructor spawns an actor from a serialized configuration. Registered
// constructors let a remote system ask for an actor by behavior name, since
// behaviors themselves are code and never travel over the wire.
type Constructor func(ctx context.Context, system *System, name string, config []byte) (*PID, error)

var behaviors = atom.New(map[string]Constructor{})

// RegisterBehavior makes a behavior spawnable by name. It is meant to be
// called from init functions.
func RegisterBehavior(name string, constructor Constructor) {
	behaviors.Swap(func(current map[string]Constructor) map[string]Constructor {
		next := maps.Clone(current)
		next[name] = constructor
		return next
	})
}

// RegisteredBehaviors returns the names of the registered behaviors
func RegisteredBehaviors() []string {
	return slices.Sorted(maps.Keys(behaviors.Load()))
}

// SpawnNamed spawns an actor running the behavior registered under behavior
func SpawnNamed(ctx context.Context, system *System, behavior, name string, config []byte) (*PID, error) {
	constructor, ok := behaviors.Load()[behavior]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrBehaviorNotRegistered, behavior)
	}
	return constructor(ctx, system, name, config)
}

// NewConstructor builds a Constructor decoding a CBOR configuration of type C
// and deriving the initial state and behavior from it.
func NewConstructor[C, S any](build func(config C) (S, Behavior[S]), opts ...SpawnOption) Constructor {
	return func(ctx context.Context, system *System, name string, data []byte) (*PID, error) {
		var config C
		if len(data) > 0 {
			if err := cbor.Unmarshal(data, &config); err != nil {
				return nil, errors.NewErrSerialization(err)
			}
		}
		state, behavior := build(config)
		return Spawn(ctx, system, name, state, behavior, opts...)
	}
}
