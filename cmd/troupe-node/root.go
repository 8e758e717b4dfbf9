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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tochemey/troupe/log"
	"github.com/tochemey/troupe/node"
)

const (
	envPrefix       = "TROUPE_"
	shutdownTimeout = 10 * time.Second
)

// settings gathers everything the command reads from flags and environment
type settings struct {
	node.Config
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func newRootCommand() *cobra.Command {
	var envFile string
	flagged := new(settings)

	command := &cobra.Command{
		Use:   "troupe-node",
		Short: "Run a troupe cluster node",
		Long: `Run an actor system serving a node manager so that the node can join a cluster.
Every flag falls back to a TROUPE_ prefixed environment variable, optionally loaded from a .env file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := resolve(cmd, envFile, flagged)
			if err != nil {
				return err
			}
			return run(cmd.Context(), config)
		},
	}

	flags := command.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "file to load environment variables from")
	flags.StringVar(&flagged.Name, "name", "", "actor system name")
	flags.StringVar(&flagged.Host, "host", "", "host to listen on, or broker host for brokered protocols")
	flags.IntVar(&flagged.Port, "port", 0, "port to listen on, 0 picks a free one")
	flags.StringVar(&flagged.Protocol, "protocol", "", "wire protocol: utcp, btcp, h3 or nats")
	flags.StringVar(&flagged.BootstrapAddress, "bootstrap", "", "address reporting the node manager address once started")
	flags.StringVar(&flagged.Failover, "failover", "", "failover policy when hosting the cluster manager: automatic or manual")
	flags.StringVar(&flagged.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	return command
}

// resolve reads the environment then applies the flags set on the command line
func resolve(cmd *cobra.Command, envFile string, flagged *settings) (*settings, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	config := new(settings)
	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		config.Name = flagged.Name
	}
	if flags.Changed("host") {
		config.Host = flagged.Host
	}
	if flags.Changed("port") {
		config.Port = flagged.Port
	}
	if flags.Changed("protocol") {
		config.Protocol = flagged.Protocol
	}
	if flags.Changed("bootstrap") {
		config.BootstrapAddress = flagged.BootstrapAddress
	}
	if flags.Changed("failover") {
		config.Failover = flagged.Failover
	}
	if flags.Changed("log-level") {
		config.LogLevel = flagged.LogLevel
	}

	if log.ParseLevel(config.LogLevel) == log.InvalidLevel {
		return nil, fmt.Errorf("unknown log level %q", config.LogLevel)
	}
	return config, config.Validate()
}

// run serves the node until ctx is done or the process is signaled
func run(ctx context.Context, config *settings) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.NewZap(log.ParseLevel(config.LogLevel), os.Stdout)
	defer func() { _ = logger.Flush() }()

	n, err := node.Start(ctx, &config.Config, logger)
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return n.Stop(stopCtx)
}
