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

package cluster

// Decision is what the cluster manager does about the roles of a dead node
type Decision int

const (
	// Reassign hands the roles of the dead node to surviving nodes
	Reassign Decision = iota
	// Record only removes the dead node from the holders and leaves the
	// rest to an operator
	Record
	// Lose gives up the roles the dead node held
	Lose
)

// String returns the decision name
func (d Decision) String() string {
	switch d {
	case Reassign:
		return "reassign"
	case Record:
		return "record"
	case Lose:
		return "lose"
	default:
		return "unknown"
	}
}

// FailoverPolicy decides how the cluster reacts to a node death. failures
// counts the node deaths since the cluster booted, the current one included.
type FailoverPolicy interface {
	Decide(failures, failoverFactor int) Decision
}

// FailoverFunc adapts a function to FailoverPolicy
type FailoverFunc func(failures, failoverFactor int) Decision

// Decide implements FailoverPolicy
func (f FailoverFunc) Decide(failures, failoverFactor int) Decision {
	return f(failures, failoverFactor)
}

// AutomaticFailover reassigns roles as long as the failures stay within the
// failover factor, after which the roles of dead nodes are lost
type AutomaticFailover struct{}

var _ FailoverPolicy = AutomaticFailover{}

// Decide implements FailoverPolicy
func (AutomaticFailover) Decide(failures, failoverFactor int) Decision {
	if failures <= failoverFactor {
		return Reassign
	}
	return Lose
}

// ManualFailover never reassigns roles
type ManualFailover struct{}

var _ FailoverPolicy = ManualFailover{}

// Decide implements FailoverPolicy
func (ManualFailover) Decide(int, int) Decision {
	return Record
}
