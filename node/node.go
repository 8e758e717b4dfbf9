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

// Package node runs the process side of a cluster node: an actor system
// listening with one protocol and serving the node manager. A node started
// with a bootstrap address reports its node manager address there once.
package node

import (
	"context"
	"fmt"

	"github.com/tochemey/troupe/actor"
	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/cluster"
	"github.com/tochemey/troupe/internal/validation"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
	_ "github.com/tochemey/troupe/remote/btcp"
	_ "github.com/tochemey/troupe/remote/h3"
	_ "github.com/tochemey/troupe/remote/natsproto"
	_ "github.com/tochemey/troupe/remote/utcp"
)

func init() {
	remote.RegisterSerializableTypes(new(Ready))
}

// Ready is posted to the bootstrap address once the node serves its node manager
type Ready struct {
	Address string `cbor:"1,keyasint"`
}

// Config describes a node
type Config struct {
	// Name is the actor system name
	Name string `env:"NAME" envDefault:"node"`
	// Host and Port are where the node listens. For brokered protocols they
	// locate the broker.
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     int    `env:"PORT" envDefault:"0"`
	Protocol string `env:"PROTOCOL" envDefault:"utcp"`
	// BootstrapAddress receives Ready when set
	BootstrapAddress string `env:"BOOTSTRAP"`
	// Failover names the failover policy applied when the node hosts the
	// cluster manager: automatic or manual
	Failover string `env:"FAILOVER" envDefault:"automatic"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewNameValidator(c.Name)).
		AddValidator(validation.NewEmptyStringValidator("Protocol", c.Protocol)).
		AddAssertion(c.Port >= 0 && c.Port <= 65535, fmt.Sprintf("invalid port %d", c.Port)).
		AddAssertion(c.Failover == "automatic" || c.Failover == "manual", fmt.Sprintf("unknown failover policy %q", c.Failover)).
		Validate()
}

// Node is a running node
type Node struct {
	system  *actor.System
	manager *actor.PID
}

// Start starts a node. opts are added to the actor system options.
func Start(ctx context.Context, config *Config, logger log.Logger, opts ...actor.Option) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	protocol, err := remote.New(config.Protocol, logger)
	if err != nil {
		return nil, err
	}

	opts = append([]actor.Option{
		actor.WithLogger(logger),
		actor.WithTransport(protocol, config.Host, config.Port),
	}, opts...)

	system, err := actor.NewSystem(config.Name, opts...)
	if err != nil {
		return nil, err
	}

	if err := system.Start(ctx); err != nil {
		return nil, err
	}

	var policy cluster.FailoverPolicy = cluster.AutomaticFailover{}
	if config.Failover == "manual" {
		policy = cluster.ManualFailover{}
	}

	manager, err := cluster.SpawnNodeManager(ctx, system,
		cluster.WithProtocol(config.Protocol),
		cluster.WithFailoverPolicy(policy))
	if err != nil {
		_ = system.Stop(ctx)
		return nil, err
	}

	node := &Node{system: system, manager: manager}
	if config.BootstrapAddress != "" {
		if err := node.report(ctx, config.BootstrapAddress); err != nil {
			_ = system.Stop(ctx)
			return nil, err
		}
	}

	logger.Infof("node %s serving its node manager at %s", config.Name, manager.Address())
	return node, nil
}

// report tells the bootstrap actor where the node manager is served
func (n *Node) report(ctx context.Context, bootstrap string) error {
	addr, err := address.Parse(bootstrap)
	if err != nil {
		return err
	}

	ready := &Ready{Address: n.manager.Address().String()}
	if err := n.system.Ref(addr).Post(ctx, ready); err != nil {
		return fmt.Errorf("failed to report to %s: %w", bootstrap, err)
	}
	return nil
}

// Address returns the address of the node manager
func (n *Node) Address() address.Address {
	return n.manager.Address()
}

// Ref returns the reference of the node manager
func (n *Node) Ref() *actor.ActorRef {
	return n.manager.Ref()
}

// System returns the actor system of the node
func (n *Node) System() *actor.System {
	return n.system
}

// Stop stops the node
func (n *Node) Stop(ctx context.Context) error {
	return n.system.Stop(ctx)
}
