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

package types

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string
}

func TestRegistry(t *testing.T) {
	t.Run("With pointer and value sharing a name", func(t *testing.T) {
		registry := NewRegistry()
		name := registry.Register(new(sample))
		assert.Equal(t, "types.sample", name)
		assert.True(t, registry.Contains(sample{}))
		assert.True(t, registry.Contains(&sample{}))

		rtype, ok := registry.Lookup("types.Sample")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeOf(sample{}), rtype)
	})
	t.Run("With builtin types", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(reflect.TypeOf(0))
		rtype, ok := registry.Lookup("int")
		require.True(t, ok)
		assert.Equal(t, reflect.Int, rtype.Kind())
		assert.False(t, registry.Contains(""))
	})
	t.Run("With nil", func(t *testing.T) {
		registry := NewRegistry()
		assert.Empty(t, registry.Register(nil))
		assert.Empty(t, Name(nil))
		assert.Nil(t, Of(nil))
	})
}
