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

import (
	"github.com/tochemey/troupe/actor"
	"github.com/tochemey/troupe/remote"
)

func init() {
	remote.RegisterSerializableTypes(
		new(Configuration),
		new(InitCluster),
		new(KillClusterSync),
		new(Ack),
		new(SetupNode),
		new(TeardownNode),
		new(Ping),
		new(Pong),
		new(NodeDead),
		new(RoleAssignment),
		new(Spawn),
		new(Spawned),
		new(GetStatus),
		new(Status),
		new(GetNodeStatus),
		new(NodeStatus),
	)
}

// InitCluster asks the first node of a configuration to boot the cluster
type InitCluster struct {
	Config *Configuration `cbor:"1,keyasint"`
}

// KillClusterSync tears the cluster down. It is answered once every
// reachable node dropped its cluster state.
type KillClusterSync struct{}

// Ack acknowledges a control request
type Ack struct{}

// SetupNode hands a node the cluster parameters
type SetupNode struct {
	ClusterID         string              `cbor:"1,keyasint"`
	Manager           *actor.ActorRef     `cbor:"2,keyasint"`
	ReplicationFactor int                 `cbor:"3,keyasint"`
	FailoverFactor    int                 `cbor:"4,keyasint"`
	Roles             map[string][]string `cbor:"5,keyasint"`
}

// TeardownNode makes a node forget the cluster
type TeardownNode struct {
	ClusterID string `cbor:"1,keyasint"`
}

// Ping checks a node is alive
type Ping struct{}

// Pong answers Ping
type Pong struct {
	Address string `cbor:"1,keyasint"`
}

// NodeDead is sent to the configured notify actor for every dead node
type NodeDead struct {
	ClusterID string `cbor:"1,keyasint"`
	Address   string `cbor:"2,keyasint"`
}

// RoleAssignment tells the nodes about the role holders after a failure
type RoleAssignment struct {
	ClusterID string              `cbor:"1,keyasint"`
	Roles     map[string][]string `cbor:"2,keyasint"`
	Dead      []string            `cbor:"3,keyasint,omitempty"`
	Lost      []string            `cbor:"4,keyasint,omitempty"`
}

// Spawn asks a node to start an actor running a registered behavior.
// The actor is published with Protocol, or with the node protocol when empty.
type Spawn struct {
	Behavior string `cbor:"1,keyasint"`
	Name     string `cbor:"2,keyasint"`
	Config   []byte `cbor:"3,keyasint,omitempty"`
	Protocol string `cbor:"4,keyasint,omitempty"`
}

// Spawned answers Spawn with the reference of the new actor
type Spawned struct {
	Ref *actor.ActorRef `cbor:"1,keyasint"`
}

// GetStatus asks for the cluster state as the cluster manager sees it
type GetStatus struct{}

// Status describes the cluster
type Status struct {
	ClusterID   string              `cbor:"1,keyasint"`
	Initialized bool                `cbor:"2,keyasint"`
	Manager     *actor.ActorRef     `cbor:"3,keyasint,omitempty"`
	Members     []string            `cbor:"4,keyasint,omitempty"`
	Dead        []string            `cbor:"5,keyasint,omitempty"`
	Roles       map[string][]string `cbor:"6,keyasint,omitempty"`
	Lost        []string            `cbor:"7,keyasint,omitempty"`
	Failures    int                 `cbor:"8,keyasint"`
}

// GetNodeStatus asks a node for its own view of the cluster
type GetNodeStatus struct{}

// NodeStatus describes the cluster state of one node
type NodeStatus struct {
	ClusterID string          `cbor:"1,keyasint"`
	Manager   *actor.ActorRef `cbor:"2,keyasint,omitempty"`
	Roles     []string        `cbor:"3,keyasint,omitempty"`
}

// probeTick starts a liveness round
type probeTick struct{}

// probeResult carries the nodes that did not answer a liveness round
type probeResult struct {
	dead []string
}
