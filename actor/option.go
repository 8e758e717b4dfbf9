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
	"time"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/troupe/internal/workerpool"
	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/remote"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(system *System)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*System)

// Apply applies the options to System
func (f OptionFunc) Apply(system *System) {
	f(system)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(system *System) {
		system.logger = logger
	})
}

// WithReplyTimeout sets how long the system waits on its own remote
// interactions: sending replies and binding published actors.
func WithReplyTimeout(timeout time.Duration) Option {
	return OptionFunc(func(system *System) {
		system.replyTimeout = timeout
	})
}

// WithTransport makes the system listen with protocol on host and port.
// A port of zero picks a free port.
func WithTransport(protocol remote.Protocol, host string, port int) Option {
	return OptionFunc(func(system *System) {
		system.transports[protocol.Name()] = &transport{
			protocol: protocol,
			host:     host,
			port:     port,
		}
	})
}

// WithCodec sets the codec used to encode messages sent to other systems
func WithCodec(codec *remote.Codec) Option {
	return OptionFunc(func(system *System) {
		system.codec = codec
	})
}

// WithCompression sets the compression of remote payloads
func WithCompression(compression remote.Compression) Option {
	return OptionFunc(func(system *System) {
		system.codec = remote.NewCodec(remote.WithCodecCompression(compression))
	})
}

// WithMetrics enables metrics using the global OpenTelemetry meter provider
func WithMetrics() Option {
	return OptionFunc(func(system *System) {
		system.meter = otel.GetMeterProvider().Meter(meterName)
	})
}

// WithMeter enables metrics using meter
func WithMeter(meter otelmetric.Meter) Option {
	return OptionFunc(func(system *System) {
		system.meter = meter
	})
}

// WithPassivateWorkersAfter sets how long an idle worker of the pool lives
func WithPassivateWorkersAfter(d time.Duration) Option {
	return OptionFunc(func(system *System) {
		system.poolOptions = append(system.poolOptions, workerpool.WithPassivateAfter(d))
	})
}

// SpawnOption configures a spawned actor
type SpawnOption func(*spawnConfig)

type spawnConfig struct {
	mailbox   Mailbox
	protocol  string
	autoStart bool
}

func newSpawnConfig(opts ...SpawnOption) *spawnConfig {
	config := &spawnConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.mailbox == nil {
		config.mailbox = NewUnboundedMailbox()
	}
	return config
}

// WithMailbox sets the mailbox of the actor
func WithMailbox(mailbox Mailbox) SpawnOption {
	return func(config *spawnConfig) {
		config.mailbox = mailbox
	}
}

// WithPublish publishes the actor over protocol as part of spawning it
func WithPublish(protocol string) SpawnOption {
	return func(config *spawnConfig) {
		config.protocol = protocol
	}
}

// WithAutoStart starts the actor as part of spawning it
func WithAutoStart() SpawnOption {
	return func(config *spawnConfig) {
		config.autoStart = true
	}
}
