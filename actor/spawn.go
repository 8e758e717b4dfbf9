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

	"github.com/google/uuid"

	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/internal/validation"
)

// Spawn creates an actor running behavior from the initial state. The actor
// is Idle until started: messages sent to it wait in its mailbox. An empty
// name gives the actor a generated one that can be changed once with Rename.
func Spawn[S any](ctx context.Context, system *System, name string, state S, behavior Behavior[S], opts ...SpawnOption) (*PID, error) {
	if !system.IsStarted() {
		return nil, errors.ErrSystemNotStarted
	}

	if behavior == nil {
		return nil, errors.ErrInvalidState
	}

	name = normalizePath(name)
	if name == "" {
		name = uuid.NewString()
	}

	if err := validation.NewPathValidator(name).Validate(); err != nil {
		return nil, err
	}

	config := newSpawnConfig(opts...)
	pid := newPID(system, name, config.mailbox, newStepper(state, behavior))
	if err := system.register(pid); err != nil {
		return nil, err
	}

	if config.protocol != "" {
		if _, err := pid.Publish(ctx, config.protocol); err != nil {
			_ = pid.Stop(ctx)
			return nil, err
		}
	}

	if config.autoStart {
		if err := pid.Start(ctx); err != nil {
			_ = pid.Stop(ctx)
			return nil, err
		}
	}

	return pid, nil
}
