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

// Package launcher starts node processes and waits for them to report the
// address of their node manager
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/tochemey/troupe/actor"
	"github.com/tochemey/troupe/address"
	"github.com/tochemey/troupe/node"
)

// BootstrapFlag is the flag handing the bootstrap address to the node binary
const BootstrapFlag = "--bootstrap"

const defaultHandshakeTimeout = 30 * time.Second

// ErrExited is returned when the node process exits before reporting its address
var ErrExited = errors.New("node process exited before the handshake")

// Option configures a launch
type Option func(*launch)

// WithProtocol sets the protocol the handshake actor is published with.
// It must be one the node can reach.
func WithProtocol(protocol string) Option {
	return func(l *launch) {
		l.protocol = protocol
	}
}

// WithHandshakeTimeout bounds the wait for the node address
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(l *launch) {
		l.timeout = timeout
	}
}

// WithOutput sends the process standard output and error to w
func WithOutput(w io.Writer) Option {
	return func(l *launch) {
		l.output = w
	}
}

// WithEnv sets the environment of the process, in the os/exec format
func WithEnv(env []string) Option {
	return func(l *launch) {
		l.env = env
	}
}

type launch struct {
	protocol string
	timeout  time.Duration
	output   io.Writer
	env      []string
}

// Process is a launched node
type Process struct {
	cmd  *exec.Cmd
	ref  *actor.ActorRef
	done chan struct{}

	mu  sync.Mutex
	err error
}

// Launch runs binary with args followed by the bootstrap flag, then waits
// until the node reports its node manager address to a one-shot handshake
// actor spawned on system.
func Launch(ctx context.Context, system *actor.System, binary string, args []string, opts ...Option) (*Process, error) {
	config := &launch{timeout: defaultHandshakeTimeout}
	for _, opt := range opts {
		opt(config)
	}

	ready := make(chan string, 1)
	handshake := actor.Stateless(func(rctx *actor.ReceiveContext) error {
		if msg, ok := rctx.Message().(*node.Ready); ok {
			ready <- msg.Address
			rctx.Stop()
			return nil
		}
		rctx.Unhandled()
		return nil
	})

	spawnOpts := []actor.SpawnOption{actor.WithAutoStart()}
	if config.protocol != "" {
		spawnOpts = append(spawnOpts, actor.WithPublish(config.protocol))
	}

	pid, err := actor.Spawn(ctx, system, "", struct{}{}, handshake, spawnOpts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = pid.Stop(context.WithoutCancel(ctx)) }()

	cmd := exec.Command(binary, slices.Concat(args, []string{BootstrapFlag, pid.Address().String()})...)
	cmd.Stdout = config.output
	cmd.Stderr = config.output
	cmd.Env = config.env

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	process := &Process{cmd: cmd, done: make(chan struct{})}
	go process.wait()

	timer := time.NewTimer(config.timeout)
	defer timer.Stop()

	select {
	case reported := <-ready:
		addr, err := address.Parse(reported)
		if err != nil {
			_ = process.Kill()
			return nil, err
		}
		process.ref = system.Ref(addr)
		system.Logger().Infof("node process %d ready at %s", cmd.Process.Pid, addr)
		return process, nil
	case <-process.done:
		if err := process.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExited, err)
		}
		return nil, ErrExited
	case <-timer.C:
		_ = process.Kill()
		return nil, fmt.Errorf("node process %d did not report within %s", cmd.Process.Pid, config.timeout)
	case <-ctx.Done():
		_ = process.Kill()
		return nil, ctx.Err()
	}
}

func (p *Process) wait() {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
	close(p.done)
}

// Ref returns the reference of the node manager of the process
func (p *Process) Ref() *actor.ActorRef {
	return p.ref
}

// PID returns the operating system process id
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Done is closed when the process exits
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns how the process exited, nil while it runs
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Kill kills the process and waits for it to exit
func (p *Process) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-p.done
	return nil
}
