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
	"slices"

	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/atom"
	"github.com/tochemey/troupe/errors"
)

// running systems of the process, used to bind decoded references
var systems = atom.New[[]*System](nil)

func registerSystem(system *System) {
	systems.Swap(func(current []*System) []*System {
		return append(slices.Clone(current), system)
	})
}

func unregisterSystem(system *System) {
	systems.Swap(func(current []*System) []*System {
		return slices.DeleteFunc(slices.Clone(current), func(s *System) bool { return s == system })
	})
}

// lookupSystem picks the system a reference should be sent through. The
// system owning the address wins, any running system does otherwise.
func lookupSystem(addr address.Address) (*System, error) {
	running := systems.Load()
	for _, system := range running {
		if system.owns(addr) {
			return system, nil
		}
	}
	if len(running) > 0 {
		return running[0], nil
	}
	return nil, errors.ErrNoSystem
}
