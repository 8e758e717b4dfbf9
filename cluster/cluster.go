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

// Package cluster boots a set of independently started nodes into a
// cluster. The first node of the configuration hosts the cluster manager,
// which hands the replication and failover parameters to every node,
// assigns the roles and watches the nodes for failures.
package cluster

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/tochemey/troupe/actor"
	"github.com/tochemey/troupe/errors"
)

// Cluster is the client handle of a booted cluster
type Cluster struct {
	config  *Configuration
	timeout time.Duration
}

// Boot sends the configuration to its first node and waits until every
// node acknowledged the cluster parameters. timeout bounds the whole boot;
// zero waits as long as ctx allows.
func Boot(ctx context.Context, config *Configuration, timeout time.Duration) (*Cluster, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if _, err := actor.Ask[*Ack](ctx, config.Nodes[0], &InitCluster{Config: config}, timeout); err != nil {
		return nil, err
	}

	return &Cluster{config: config, timeout: timeout}, nil
}

// ID returns the cluster id
func (c *Cluster) ID() string {
	return c.config.ClusterID
}

// Config returns the configuration the cluster was booted with
func (c *Cluster) Config() *Configuration {
	return c.config
}

// Kill tears the cluster down. It returns once the cluster manager dropped
// the cluster state of every reachable node. Node processes keep running.
func (c *Cluster) Kill(ctx context.Context) error {
	return c.each(func(node *actor.ActorRef) error {
		_, err := actor.Ask[*Ack](ctx, node, new(KillClusterSync), c.timeout)
		return err
	})
}

// Status returns the cluster state as the cluster manager sees it
func (c *Cluster) Status(ctx context.Context) (*Status, error) {
	var status *Status
	err := c.each(func(node *actor.ActorRef) error {
		var err error
		status, err = actor.Ask[*Status](ctx, node, new(GetStatus), c.timeout)
		return err
	})
	return status, err
}

// each runs request against the nodes in order until one of them is reachable
func (c *Cluster) each(request func(node *actor.ActorRef) error) error {
	var err error
	for _, node := range c.config.Nodes {
		err = request(node)
		if !unreachable(err) {
			return err
		}
	}
	return err
}

func unreachable(err error) bool {
	return err != nil && (stderrors.Is(err, errors.ErrDeliveryFailure) ||
		stderrors.Is(err, errors.ErrActorNotFound) ||
		stderrors.Is(err, errors.ErrDead))
}

// NotifyFunc spawns an actor on system calling fn for every NodeDead it
// receives and returns its reference, to be used with WithNodeDeadNotify.
// Pass actor.WithPublish when the cluster manager runs in another process.
func NotifyFunc(ctx context.Context, system *actor.System, fn func(*NodeDead), opts ...actor.SpawnOption) (*actor.ActorRef, error) {
	behavior := actor.Stateless(func(rctx *actor.ReceiveContext) error {
		if notice, ok := rctx.Message().(*NodeDead); ok {
			fn(notice)
			return nil
		}
		rctx.Unhandled()
		return nil
	})

	pid, err := actor.Spawn(ctx, system, "", struct{}{}, behavior, append(opts, actor.WithAutoStart())...)
	if err != nil {
		return nil, err
	}
	return pid.Ref(), nil
}
