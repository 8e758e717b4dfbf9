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

	"github.com/tochemey/troupe/errors"
)

type adderConfig struct {
	Initial int `cbor:"1,keyasint"`
}

func init() {
	RegisterBehavior("test.adder", NewConstructor(func(config adderConfig) (int, Behavior[int]) {
		return config.Initial, adder
	}, WithAutoStart()))
}

func TestSpawnNamed(t *testing.T) {
	ctx := context.Background()
	system := newTestSystem(t)

	config, err := cbor.Marshal(adderConfig{Initial: 40})
	require.NoError(t, err)

	pid, err := SpawnNamed(ctx, system, "test.adder", "answer", config)
	require.NoError(t, err)

	require.NoError(t, pid.Ref().Post(ctx, &add{N: 2}))
	total, err := Ask[int](ctx, pid.Ref(), new(get), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	assert.Contains(t, RegisteredBehaviors(), "test.adder")

	t.Run("With an unknown behavior", func(t *testing.T) {
		_, err := SpawnNamed(ctx, system, "unknown", "x", nil)
		assert.ErrorIs(t, err, errors.ErrBehaviorNotRegistered)
	})
	t.Run("With a broken configuration", func(t *testing.T) {
		_, err := SpawnNamed(ctx, system, "test.adder", "broken", []byte{0xff, 0x00})
		assert.ErrorIs(t, err, errors.ErrSerialization)
	})
}
