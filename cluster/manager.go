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
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/flowchartsman/retry"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/troupe/actor"
	"github.com/tochemey/troupe/errors"
	"github.com/tochemey/troupe/hash"
)

const (
	setupRetries    = 3
	setupBackoff    = 100 * time.Millisecond
	maxSetupBackoff = time.Second
)

// manager is the state of the cluster manager actor. The cluster manager is
// hosted by the first node of the configuration: it hands the parameters to
// every node, assigns the roles, and watches the nodes for failures.
type manager struct {
	policy  FailoverPolicy
	hasher  hash.Hasher
	timeout time.Duration

	self     *actor.ActorRef
	config   *Configuration
	nodes    map[string]*actor.ActorRef
	notify   *actor.ActorRef
	members  mapset.Set[string]
	dead     mapset.Set[string]
	roles    map[string][]string
	lost     []string
	failures int
	schedule string
	probing  bool
}

func newManager(policy FailoverPolicy, timeout time.Duration) *manager {
	return &manager{
		policy:  policy,
		hasher:  hash.DefaultHasher(),
		timeout: timeout,
	}
}

// manage is the behavior of the cluster manager
func manage(rctx *actor.ReceiveContext, m *manager) (*manager, error) {
	switch msg := rctx.Message().(type) {
	case *InitCluster:
		return m, m.init(rctx, msg.Config)
	case *probeTick:
		m.probe(rctx)
	case *probeResult:
		m.handleProbeResult(rctx, msg)
	case *GetStatus:
		return m, rctx.Reply(m.status())
	case *KillClusterSync:
		return m, m.kill(rctx)
	default:
		rctx.Unhandled()
	}
	return m, nil
}

func (m *manager) init(rctx *actor.ReceiveContext, config *Configuration) error {
	if m.config != nil {
		return errors.ErrClusterAlreadyInitialized
	}

	if config == nil {
		return fmt.Errorf("%w: configuration is missing", errors.ErrInvalidClusterConfig)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	ctx := rctx.Context()
	system := rctx.System()
	members := config.members()

	nodes := make(map[string]*actor.ActorRef, len(config.Nodes))
	for _, node := range config.Nodes {
		nodes[node.Address().String()] = system.Ref(node.Address())
	}

	roles := assignRoles(m.hasher, config.ClusterID, config.Roles, members, config.ReplicationFactor)
	setup := &SetupNode{
		ClusterID:         config.ClusterID,
		Manager:           rctx.Self().Ref(),
		ReplicationFactor: config.ReplicationFactor,
		FailoverFactor:    config.FailoverFactor,
		Roles:             roles,
	}

	if err := broadcast(ctx, nodes, members, setup, m.timeout, setupRetries); err != nil {
		// leave no node half configured
		_ = broadcast(ctx, nodes, members, &TeardownNode{ClusterID: config.ClusterID}, m.timeout, 1)
		rctx.Stop()
		return err
	}

	key, err := system.Scheduler().Schedule(new(probeTick), rctx.Self().Ref(), config.ProbeInterval)
	if err != nil {
		_ = broadcast(ctx, nodes, members, &TeardownNode{ClusterID: config.ClusterID}, m.timeout, 1)
		rctx.Stop()
		return err
	}

	m.self = rctx.Self().Ref()
	m.config = config
	m.nodes = nodes
	m.members = mapset.NewThreadUnsafeSet(members...)
	m.dead = mapset.NewThreadUnsafeSet[string]()
	m.roles = roles
	m.schedule = key
	if config.NodeDeadNotify != nil {
		m.notify = system.Ref(config.NodeDeadNotify.Address())
	}

	rctx.Logger().Infof("cluster %s initialized with %d nodes", config.ClusterID, len(members))
	return rctx.Reply(new(Ack))
}

// probe pings every other member in the background and reports the nodes
// that did not answer back to the manager
func (m *manager) probe(rctx *actor.ReceiveContext) {
	if m.config == nil || m.probing {
		return
	}

	// the first node hosts the manager
	host := m.config.Nodes[0].Address().String()
	targets := make(map[string]*actor.ActorRef)
	for _, member := range m.alive() {
		if member != host {
			targets[member] = m.nodes[member]
		}
	}

	if len(targets) == 0 {
		return
	}

	m.probing = true
	ref := rctx.Self().Ref()
	interval := m.config.ProbeInterval
	retries := m.config.ProbeRetries
	logger := rctx.Logger()

	go func() {
		var (
			mu   sync.Mutex
			dead []string
			eg   errgroup.Group
		)

		for member, node := range targets {
			eg.Go(func() error {
				retrier := retry.NewRetrier(retries+1, interval/10, interval)
				err := retrier.RunContext(context.Background(), func(ctx context.Context) error {
					_, err := actor.Ask[*Pong](ctx, node, new(Ping), interval)
					return err
				})
				if err != nil {
					logger.Debugf("node %s did not answer: %v", member, err)
					mu.Lock()
					dead = append(dead, member)
					mu.Unlock()
				}
				return nil
			})
		}

		_ = eg.Wait()
		if err := ref.Post(context.Background(), &probeResult{dead: dead}); err != nil {
			logger.Debugf("dropping probe result: %v", err)
		}
	}()
}

func (m *manager) handleProbeResult(rctx *actor.ReceiveContext, result *probeResult) {
	m.probing = false
	if m.config == nil {
		return
	}

	var died bool
	for _, member := range result.dead {
		if m.members.Contains(member) {
			m.nodeDead(rctx, member)
			died = true
		}
	}

	if !died {
		return
	}

	assignment := &RoleAssignment{
		ClusterID: m.config.ClusterID,
		Roles:     m.roles,
		Dead:      m.dead.ToSlice(),
		Lost:      m.lost,
	}
	slices.Sort(assignment.Dead)

	for _, member := range m.alive() {
		if err := m.nodes[member].Post(rctx.Context(), assignment); err != nil {
			rctx.Logger().Warnf("failed to send role assignment to %s: %v", member, err)
		}
	}
}

func (m *manager) nodeDead(rctx *actor.ReceiveContext, member string) {
	m.members.Remove(member)
	m.dead.Add(member)
	m.failures++

	logger := rctx.Logger()
	logger.Warnf("node %s of cluster %s is dead", member, m.config.ClusterID)

	if m.notify != nil {
		notice := &NodeDead{ClusterID: m.config.ClusterID, Address: member}
		if err := m.notify.Post(rctx.Context(), notice); err != nil {
			logger.Warnf("failed to notify the death of %s: %v", member, err)
		}
	}

	decision := m.policy.Decide(m.failures, m.config.FailoverFactor)
	logger.Infof("failover decision for %s: %s", member, decision)

	switch decision {
	case Reassign:
		roles := make([]string, 0, len(m.roles))
		for role := range m.roles {
			roles = append(roles, role)
		}
		m.roles = assignRoles(m.hasher, m.config.ClusterID, roles, m.alive(), m.config.ReplicationFactor)
	case Lose:
		for role, holders := range m.roles {
			if slices.Contains(holders, member) {
				delete(m.roles, role)
				m.lost = append(m.lost, role)
				logger.Error(fmt.Errorf("%w: %s held by %s", errors.ErrRoleLost, role, member))
			}
		}
		slices.Sort(m.lost)
	default:
		for role, holders := range m.roles {
			m.roles[role] = slices.DeleteFunc(slices.Clone(holders), func(holder string) bool {
				return holder == member
			})
		}
	}
}

func (m *manager) kill(rctx *actor.ReceiveContext) error {
	if m.config == nil {
		return errors.ErrClusterNotInitialized
	}

	system := rctx.System()
	if err := system.Scheduler().Cancel(m.schedule); err != nil {
		rctx.Logger().Warnf("failed to cancel the liveness probe: %v", err)
	}

	teardown := &TeardownNode{ClusterID: m.config.ClusterID}
	if err := broadcast(rctx.Context(), m.nodes, m.alive(), teardown, m.timeout, 1); err != nil {
		rctx.Logger().Warnf("cluster %s torn down partially: %v", m.config.ClusterID, err)
	}

	rctx.Logger().Infof("cluster %s killed", m.config.ClusterID)
	m.config = nil
	m.nodes = nil
	m.notify = nil
	rctx.Stop()
	return rctx.Reply(new(Ack))
}

func (m *manager) status() *Status {
	if m.config == nil {
		return &Status{}
	}

	dead := m.dead.ToSlice()
	slices.Sort(dead)
	return &Status{
		ClusterID:   m.config.ClusterID,
		Initialized: true,
		Manager:     m.self,
		Members:     m.alive(),
		Dead:        dead,
		Roles:       cloneRoles(m.roles),
		Lost:        slices.Clone(m.lost),
		Failures:    m.failures,
	}
}

// alive returns the live members in configuration order
func (m *manager) alive() []string {
	alive := make([]string, 0, m.members.Cardinality())
	for _, member := range m.config.members() {
		if m.members.Contains(member) {
			alive = append(alive, member)
		}
	}
	return alive
}

// broadcast sends message to every member in parallel and waits for all of
// them to acknowledge it
func broadcast(ctx context.Context, nodes map[string]*actor.ActorRef, members []string, message any, timeout time.Duration, attempts int) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, member := range members {
		node := nodes[member]
		eg.Go(func() error {
			retrier := retry.NewRetrier(attempts, setupBackoff, maxSetupBackoff)
			err := retrier.RunContext(ctx, func(ctx context.Context) error {
				_, err := actor.Ask[*Ack](ctx, node, message, timeout)
				return err
			})
			if err != nil {
				return fmt.Errorf("node %s: %w", member, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// assignRoles picks the holders of every role among members
func assignRoles(hasher hash.Hasher, clusterID string, roles, members []string, replicationFactor int) map[string][]string {
	assignment := make(map[string][]string, len(roles))
	for _, role := range roles {
		assignment[role] = hash.Rendezvous(hasher, clusterID+"/"+role, members, replicationFactor)
	}
	return assignment
}

func cloneRoles(roles map[string][]string) map[string][]string {
	clone := make(map[string][]string, len(roles))
	for role, holders := range roles {
		clone[role] = slices.Clone(holders)
	}
	return clone
}
