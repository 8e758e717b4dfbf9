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
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tochemey/troupe/actor"
	"github.com/tochemey/troupe/errors"
)

const (
	// NodeManagerPath is the path every node serves its node manager at
	NodeManagerPath = "nodeManager"

	clusterManagerPath    = "clusterManager"
	defaultRequestTimeout = 10 * time.Second
)

// NodeManagerOption configures the node manager
type NodeManagerOption func(*nodeManager)

// WithFailoverPolicy sets the policy applied when this node hosts the
// cluster manager. AutomaticFailover is the default.
func WithFailoverPolicy(policy FailoverPolicy) NodeManagerOption {
	return func(n *nodeManager) {
		n.policy = policy
	}
}

// WithRequestTimeout sets how long the node waits for the answers of other nodes
func WithRequestTimeout(timeout time.Duration) NodeManagerOption {
	return func(n *nodeManager) {
		n.timeout = timeout
	}
}

// WithProtocol publishes the node manager, and the actors it spawns, with protocol
func WithProtocol(protocol string) NodeManagerOption {
	return func(n *nodeManager) {
		n.protocol = protocol
	}
}

// nodeManager is the state of the control-plane actor of a node
type nodeManager struct {
	policy   FailoverPolicy
	timeout  time.Duration
	protocol string

	clusterID string
	manager   *actor.ActorRef
	hosted    *actor.PID
	roles     map[string][]string
}

// clusterManagerDown tells the node manager the cluster manager it hosts
// failed to boot
type clusterManagerDown struct {
	pid *actor.PID
}

// SpawnNodeManager starts the node manager of system
func SpawnNodeManager(ctx context.Context, system *actor.System, opts ...NodeManagerOption) (*actor.PID, error) {
	state := &nodeManager{
		policy:  AutomaticFailover{},
		timeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(state)
	}

	spawnOpts := []actor.SpawnOption{actor.WithAutoStart()}
	if state.protocol != "" {
		spawnOpts = append(spawnOpts, actor.WithPublish(state.protocol))
	}
	return actor.Spawn(ctx, system, NodeManagerPath, state, manageNode, spawnOpts...)
}

// manageNode is the behavior of the node manager
func manageNode(rctx *actor.ReceiveContext, n *nodeManager) (*nodeManager, error) {
	switch msg := rctx.Message().(type) {
	case *InitCluster:
		return n, n.initCluster(rctx, msg)
	case *clusterManagerDown:
		if n.hosted == msg.pid {
			n.hosted = nil
		}
	case *KillClusterSync:
		if n.clusterID == "" {
			return n, errors.ErrClusterNotInitialized
		}
		n.delegate(rctx, rctx.System().Ref(n.manager.Address()), msg, n.timeout, nil)
	case *GetStatus:
		if n.clusterID == "" {
			return n, rctx.Reply(new(Status))
		}
		n.delegate(rctx, rctx.System().Ref(n.manager.Address()), msg, n.timeout, nil)
	case *SetupNode:
		if n.clusterID != "" && n.clusterID != msg.ClusterID {
			return n, fmt.Errorf("%w: node belongs to %s", errors.ErrClusterMismatch, n.clusterID)
		}
		n.clusterID = msg.ClusterID
		n.manager = msg.Manager
		n.roles = msg.Roles
		rctx.Logger().Infof("joined cluster %s", msg.ClusterID)
		return n, rctx.Reply(new(Ack))
	case *TeardownNode:
		if n.clusterID != "" && n.clusterID != msg.ClusterID {
			return n, fmt.Errorf("%w: node belongs to %s", errors.ErrClusterMismatch, n.clusterID)
		}
		if n.clusterID != "" {
			rctx.Logger().Infof("left cluster %s", n.clusterID)
		}
		n.clusterID = ""
		n.manager = nil
		n.hosted = nil
		n.roles = nil
		return n, rctx.Reply(new(Ack))
	case *RoleAssignment:
		if msg.ClusterID == n.clusterID {
			n.roles = msg.Roles
		}
	case *Ping:
		return n, rctx.Reply(&Pong{Address: rctx.Self().Address().String()})
	case *GetNodeStatus:
		return n, rctx.Reply(n.status(rctx))
	case *Spawn:
		return n, n.spawn(rctx, msg)
	default:
		rctx.Unhandled()
	}
	return n, nil
}

// initCluster starts the cluster manager next to the node manager and hands
// it the boot request
func (n *nodeManager) initCluster(rctx *actor.ReceiveContext, msg *InitCluster) error {
	if n.clusterID != "" || n.hosted != nil {
		return errors.ErrClusterAlreadyInitialized
	}

	if msg.Config == nil {
		return fmt.Errorf("%w: configuration is missing", errors.ErrInvalidClusterConfig)
	}

	if err := msg.Config.Validate(); err != nil {
		return err
	}

	opts := []actor.SpawnOption{actor.WithAutoStart()}
	if self := rctx.Self().Address(); !self.IsLocal() {
		opts = append(opts, actor.WithPublish(self.Protocol()))
	}

	name := clusterManagerPath + "/" + uuid.NewString()
	pid, err := actor.Spawn(rctx.Context(), rctx.System(), name, newManager(n.policy, n.timeout), manage, opts...)
	if err != nil {
		return err
	}

	n.hosted = pid
	self := rctx.Self().Ref()
	// booting waits on every node, so the wait is left to the manager
	n.delegate(rctx, pid.Ref(), msg, 0, func(err error) {
		if err != nil {
			_ = self.Post(context.Background(), &clusterManagerDown{pid: pid})
		}
	})
	return nil
}

// delegate forwards a request and answers the original caller with the
// outcome without holding the node manager
func (n *nodeManager) delegate(rctx *actor.ReceiveContext, to *actor.ActorRef, message any, timeout time.Duration, done func(error)) {
	reply := rctx.ReplyChannel()
	go func() {
		value, err := to.PostAndReply(context.Background(), message, timeout)
		if reply != nil {
			reply.Write(actor.Result{Value: value, Failure: errors.FromError(err)})
		}
		if done != nil {
			done(err)
		}
	}()
}

func (n *nodeManager) status(rctx *actor.ReceiveContext) *NodeStatus {
	self := rctx.Self().Address().String()
	status := &NodeStatus{ClusterID: n.clusterID, Manager: n.manager}
	for role, holders := range n.roles {
		if slices.Contains(holders, self) {
			status.Roles = append(status.Roles, role)
		}
	}
	slices.Sort(status.Roles)
	return status
}

func (n *nodeManager) spawn(rctx *actor.ReceiveContext, msg *Spawn) error {
	ctx := rctx.Context()
	pid, err := actor.SpawnNamed(ctx, rctx.System(), msg.Behavior, msg.Name, msg.Config)
	if err != nil {
		return err
	}

	ref := pid.Ref()
	protocol := msg.Protocol
	if protocol == "" {
		protocol = n.protocol
	}

	if protocol != "" {
		ref, err = pid.Publish(ctx, protocol)
		if err != nil {
			_ = pid.Stop(ctx)
			return err
		}
	}

	if !pid.IsRunning() {
		if err := pid.Start(ctx); err != nil {
			_ = pid.Stop(ctx)
			return err
		}
	}

	rctx.Logger().Infof("spawned %s running %s", ref, msg.Behavior)
	return rctx.Reply(&Spawned{Ref: ref})
}
