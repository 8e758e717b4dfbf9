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

// Package metric defines the OpenTelemetry instruments of the actor runtime
package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetric groups the instruments describing an actor system.
//
// Instruments:
//   - actorsystem.actors.count      (Int64ObservableCounter)
//   - actorsystem.deadletters.count (Int64ObservableCounter)
//   - actorsystem.processed.count   (Int64ObservableCounter)
//   - actorsystem.failures.count    (Int64ObservableCounter)
//   - actor.received.duration       (Int64Histogram, unit: ms)
type SystemMetric struct {
	actorsCount      metric.Int64ObservableCounter
	deadlettersCount metric.Int64ObservableCounter
	processedCount   metric.Int64ObservableCounter
	failuresCount    metric.Int64ObservableCounter
	receivedDuration metric.Int64Histogram
}

// NewSystemMetric creates the instruments using the provided Meter
func NewSystemMetric(meter metric.Meter) (*SystemMetric, error) {
	var instruments SystemMetric
	var err error

	if instruments.actorsCount, err = meter.Int64ObservableCounter(
		"actorsystem.actors.count",
		metric.WithDescription("Total number of live actors in the actor system"),
	); err != nil {
		return nil, fmt.Errorf("failed to create actorsCount instrument, %w", err)
	}

	if instruments.deadlettersCount, err = meter.Int64ObservableCounter(
		"actorsystem.deadletters.count",
		metric.WithDescription("Total number of deadletters in the actor system"),
	); err != nil {
		return nil, fmt.Errorf("failed to create deadlettersCount instrument, %w", err)
	}

	if instruments.processedCount, err = meter.Int64ObservableCounter(
		"actorsystem.processed.count",
		metric.WithDescription("Total number of messages processed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create processedCount instrument, %w", err)
	}

	if instruments.failuresCount, err = meter.Int64ObservableCounter(
		"actorsystem.failures.count",
		metric.WithDescription("Total number of messages whose processing failed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failuresCount instrument, %w", err)
	}

	if instruments.receivedDuration, err = meter.Int64Histogram(
		"actor.received.duration",
		metric.WithDescription("The latency of messages processed in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create receivedDuration instrument, %w", err)
	}

	return &instruments, nil
}

// ActorsCount returns the counter observing live actors
func (x *SystemMetric) ActorsCount() metric.Int64ObservableCounter {
	return x.actorsCount
}

// DeadlettersCount returns the counter observing dead letters
func (x *SystemMetric) DeadlettersCount() metric.Int64ObservableCounter {
	return x.deadlettersCount
}

// ProcessedCount returns the counter observing processed messages
func (x *SystemMetric) ProcessedCount() metric.Int64ObservableCounter {
	return x.processedCount
}

// FailuresCount returns the counter observing failed messages
func (x *SystemMetric) FailuresCount() metric.Int64ObservableCounter {
	return x.failuresCount
}

// ReceivedDuration returns the histogram of processing latencies
func (x *SystemMetric) ReceivedDuration() metric.Int64Histogram {
	return x.receivedDuration
}

// Observables returns every observable instrument, for Meter.RegisterCallback
func (x *SystemMetric) Observables() []metric.Observable {
	return []metric.Observable{
		x.actorsCount,
		x.deadlettersCount,
		x.processedCount,
		x.failuresCount,
	}
}
