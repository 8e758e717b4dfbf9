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

// Package types keeps the mapping between wire type names and Go types
package types

import (
	"reflect"
	"strings"
	"sync"
)

// Registry maps type names to Go types. Values and pointers of a type share
// the same name. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]reflect.Type)}
}

// Register records the type of v and returns its name. Nil is ignored.
func (r *Registry) Register(v any) string {
	rtype := Of(v)
	if rtype == nil {
		return ""
	}

	name := nameOf(rtype)
	r.mu.Lock()
	r.byName[name] = rtype
	r.mu.Unlock()
	return name
}

// Lookup returns the type registered under name
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	r.mu.RLock()
	rtype, ok := r.byName[strings.ToLower(name)]
	r.mu.RUnlock()
	return rtype, ok
}

// Contains tells whether the type of v is registered
func (r *Registry) Contains(v any) bool {
	_, ok := r.Lookup(Name(v))
	return ok
}

// Of returns the type of v with one pointer level removed. v may be a reflect.Type.
func Of(v any) reflect.Type {
	rtype, ok := v.(reflect.Type)
	if !ok {
		rtype = reflect.TypeOf(v)
	}
	if rtype != nil && rtype.Kind() == reflect.Pointer {
		return rtype.Elem()
	}
	return rtype
}

// Name returns the registry name of the type of v, empty for nil
func Name(v any) string {
	rtype := Of(v)
	if rtype == nil {
		return ""
	}
	return nameOf(rtype)
}

func nameOf(rtype reflect.Type) string {
	return strings.ToLower(rtype.String())
}
