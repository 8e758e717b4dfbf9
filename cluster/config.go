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
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/troupe/actor"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/internal/validation"
)

const (
	// DefaultRole is the role assigned when the configuration names none
	DefaultRole = "primary"

	defaultProbeInterval = time.Second
	defaultProbeRetries  = 2
)

// Configuration describes a cluster. It is created once at boot and never
// changes afterwards; failover acts on the state the cluster manager derives
// from it.
type Configuration struct {
	ClusterID         string            `cbor:"1,keyasint"`
	Nodes             []*actor.ActorRef `cbor:"2,keyasint"`
	ReplicationFactor int               `cbor:"3,keyasint"`
	FailoverFactor    int               `cbor:"4,keyasint"`
	NodeDeadNotify    *actor.ActorRef   `cbor:"5,keyasint,omitempty"`
	Roles             []string          `cbor:"6,keyasint,omitempty"`
	ProbeInterval     time.Duration     `cbor:"7,keyasint"`
	ProbeRetries      int               `cbor:"8,keyasint"`
}

// Option configures a Configuration
type Option func(config *Configuration)

// WithReplicationFactor sets the number of nodes holding every role
func WithReplicationFactor(factor int) Option {
	return func(config *Configuration) {
		config.ReplicationFactor = factor
	}
}

// WithFailoverFactor sets the number of node failures the cluster
// tolerates before a role is considered lost
func WithFailoverFactor(factor int) Option {
	return func(config *Configuration) {
		config.FailoverFactor = factor
	}
}

// WithNodeDeadNotify sets the actor told about every dead node.
// See NotifyFunc to get one from a plain function.
func WithNodeDeadNotify(ref *actor.ActorRef) Option {
	return func(config *Configuration) {
		config.NodeDeadNotify = ref
	}
}

// WithRoles sets the logical roles distributed over the nodes
func WithRoles(roles ...string) Option {
	return func(config *Configuration) {
		config.Roles = roles
	}
}

// WithProbeInterval sets how often the cluster manager checks the nodes.
// It also bounds the wait for every liveness answer.
func WithProbeInterval(interval time.Duration) Option {
	return func(config *Configuration) {
		config.ProbeInterval = interval
	}
}

// WithProbeRetries sets how many times an unanswered probe is retried
// before the node is declared dead
func WithProbeRetries(retries int) Option {
	return func(config *Configuration) {
		config.ProbeRetries = retries
	}
}

// NewConfiguration creates a cluster configuration. The first node receives
// the boot request and hosts the cluster manager.
func NewConfiguration(clusterID string, nodes []*actor.ActorRef, opts ...Option) *Configuration {
	config := &Configuration{
		ClusterID:         clusterID,
		Nodes:             nodes,
		ReplicationFactor: 1,
		Roles:             []string{DefaultRole},
		ProbeInterval:     defaultProbeInterval,
		ProbeRetries:      defaultProbeRetries,
	}

	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Validate checks the configuration
func (config *Configuration) Validate() error {
	err := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("ClusterID", config.ClusterID)).
		AddAssertion(len(config.Nodes) > 0, "at least one node is required").
		AddAssertion(config.ReplicationFactor >= 1, "replication factor must be at least 1").
		AddAssertion(config.ReplicationFactor <= len(config.Nodes), "replication factor exceeds the number of nodes").
		AddAssertion(config.FailoverFactor >= 0, "failover factor must not be negative").
		AddAssertion(len(config.Roles) > 0, "at least one role is required").
		AddAssertion(config.ProbeInterval > 0, "probe interval must be positive").
		AddAssertion(config.ProbeRetries >= 0, "probe retries must not be negative").
		AddValidator(nodesValidator(config.Nodes)).
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidClusterConfig, err)
	}
	return nil
}

// members returns the node addresses in configuration order
func (config *Configuration) members() []string {
	members := make([]string, 0, len(config.Nodes))
	for _, node := range config.Nodes {
		members = append(members, node.Address().String())
	}
	return members
}

// nodesValidator rejects missing and duplicated nodes
type nodesValidator []*actor.ActorRef

func (nodes nodesValidator) Validate() error {
	seen := mapset.NewThreadUnsafeSet[string]()
	for index, node := range nodes {
		if node == nil {
			return fmt.Errorf("node %d is missing", index)
		}
		if !seen.Add(node.Address().String()) {
			return fmt.Errorf("node %s is listed twice", node)
		}
	}
	return nil
}
