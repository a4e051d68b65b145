// Copyright © 2022 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics defines the metric types used across the engine. Metrics are
// always created through a Registry that is passed in explicitly, there is no
// process-wide registry.
package metrics

import (
	"time"
)

// Registry is an object that can create and collect metrics.
type Registry interface {
	NewCounter(name, help string, opts ...Option) Counter
	NewGauge(name, help string, opts ...Option) Gauge
	NewTimer(name, help string, opts ...Option) Timer
	NewHistogram(name, help string, opts ...Option) Histogram

	NewLabeledCounter(name, help string, labels []string, opts ...Option) LabeledCounter
	NewLabeledGauge(name, help string, labels []string, opts ...Option) LabeledGauge
	NewLabeledTimer(name, help string, labels []string, opts ...Option) LabeledTimer
	NewLabeledHistogram(name, help string, labels []string, opts ...Option) LabeledHistogram
}

// Option is an option that can be applied on a metric. Registry implementations
// can and should define their own unique Option interface and only apply
// options meant for them.
type Option interface{}

// Counter is a metric that can only increment its current count.
type Counter interface {
	// Inc adds Sum(vs) to the counter. Sum(vs) must be positive.
	//
	// If len(vs) == 0, increments the counter by 1.
	Inc(vs ...float64)
}

// LabeledCounter is a counter that must have labels populated before use.
type LabeledCounter interface {
	WithValues(vs ...string) Counter
}

// Gauge is a metric that allows incrementing and decrementing a value.
type Gauge interface {
	// Inc adds Sum(vs) to the gauge. Sum(vs) must be positive.
	//
	// If len(vs) == 0, increments the gauge by 1.
	Inc(vs ...float64)
	// Dec subtracts Sum(vs) from the gauge. Sum(vs) must be positive.
	//
	// If len(vs) == 0, decrements the gauge by 1.
	Dec(vs ...float64)

	// Set replaces the gauge's current value with the provided value
	Set(float64)
}

// LabeledGauge describes a gauge that must have values populated before use.
type LabeledGauge interface {
	// WithValues returns the Gauge for the given slice of label
	// values (same order as the label names used when creating this LabeledGauge).
	// If that combination of label values is accessed for the first time,
	// a new Gauge is created.
	WithValues(labels ...string) Gauge
}

// Timer is a metric that allows collecting the duration of an action in
// seconds.
type Timer interface {
	// Update records a duration.
	Update(time.Duration)

	// UpdateSince will add the duration from the provided starting time to the
	// timer's summary.
	UpdateSince(time.Time)
}

// LabeledTimer is a timer that must have label values populated before use.
type LabeledTimer interface {
	WithValues(labels ...string) Timer
}

// Histogram is a metric that builds a histogram from observed values.
type Histogram interface {
	Observe(float64)
}

// LabeledHistogram describes a histogram that must have labels populated before
// use.
type LabeledHistogram interface {
	WithValues(labels ...string) Histogram
}

// NewMultiRegistry returns a Registry that creates every metric in all
// supplied registries. Observations on the returned metrics are forwarded to
// each underlying metric.
func NewMultiRegistry(registries ...Registry) Registry {
	return &multiRegistry{registries: registries}
}

type multiRegistry struct {
	registries []Registry
}

func (r *multiRegistry) NewCounter(name, help string, opts ...Option) Counter {
	mt := &counter{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewCounter(name, help, opts...))
	}
	return mt
}

func (r *multiRegistry) NewGauge(name, help string, opts ...Option) Gauge {
	mt := &gauge{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewGauge(name, help, opts...))
	}
	return mt
}

func (r *multiRegistry) NewTimer(name, help string, opts ...Option) Timer {
	mt := &timer{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewTimer(name, help, opts...))
	}
	return mt
}

func (r *multiRegistry) NewHistogram(name, help string, opts ...Option) Histogram {
	mt := &histogram{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewHistogram(name, help, opts...))
	}
	return mt
}

func (r *multiRegistry) NewLabeledCounter(name, help string, labels []string, opts ...Option) LabeledCounter {
	mt := &labeledCounter{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewLabeledCounter(name, help, labels, opts...))
	}
	return mt
}

func (r *multiRegistry) NewLabeledGauge(name, help string, labels []string, opts ...Option) LabeledGauge {
	mt := &labeledGauge{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewLabeledGauge(name, help, labels, opts...))
	}
	return mt
}

func (r *multiRegistry) NewLabeledTimer(name, help string, labels []string, opts ...Option) LabeledTimer {
	mt := &labeledTimer{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewLabeledTimer(name, help, labels, opts...))
	}
	return mt
}

func (r *multiRegistry) NewLabeledHistogram(name, help string, labels []string, opts ...Option) LabeledHistogram {
	mt := &labeledHistogram{}
	for _, reg := range r.registries {
		mt.metrics = append(mt.metrics, reg.NewLabeledHistogram(name, help, labels, opts...))
	}
	return mt
}

type counter struct {
	metrics []Counter
}

func (mt *counter) Inc(vs ...float64) {
	for _, m := range mt.metrics {
		m.Inc(vs...)
	}
}

type labeledCounter struct {
	metrics []LabeledCounter
}

func (mt *labeledCounter) WithValues(vs ...string) Counter {
	c := &counter{metrics: make([]Counter, len(mt.metrics))}
	for i, m := range mt.metrics {
		c.metrics[i] = m.WithValues(vs...)
	}
	return c
}

type gauge struct {
	metrics []Gauge
}

func (mt *gauge) Inc(f ...float64) {
	for _, m := range mt.metrics {
		m.Inc(f...)
	}
}

func (mt *gauge) Dec(f ...float64) {
	for _, m := range mt.metrics {
		m.Dec(f...)
	}
}

func (mt *gauge) Set(f float64) {
	for _, m := range mt.metrics {
		m.Set(f)
	}
}

type labeledGauge struct {
	metrics []LabeledGauge
}

func (mt *labeledGauge) WithValues(vs ...string) Gauge {
	g := &gauge{metrics: make([]Gauge, len(mt.metrics))}
	for i, m := range mt.metrics {
		g.metrics[i] = m.WithValues(vs...)
	}
	return g
}

type timer struct {
	metrics []Timer
}

func (mt *timer) Update(d time.Duration) {
	for _, m := range mt.metrics {
		m.Update(d)
	}
}

func (mt *timer) UpdateSince(t time.Time) {
	for _, m := range mt.metrics {
		m.UpdateSince(t)
	}
}

type labeledTimer struct {
	metrics []LabeledTimer
}

func (mt *labeledTimer) WithValues(vs ...string) Timer {
	t := &timer{metrics: make([]Timer, len(mt.metrics))}
	for i, m := range mt.metrics {
		t.metrics[i] = m.WithValues(vs...)
	}
	return t
}

type histogram struct {
	metrics []Histogram
}

func (mt *histogram) Observe(v float64) {
	for _, m := range mt.metrics {
		m.Observe(v)
	}
}

type labeledHistogram struct {
	metrics []LabeledHistogram
}

func (mt *labeledHistogram) WithValues(vs ...string) Histogram {
	h := &histogram{metrics: make([]Histogram, len(mt.metrics))}
	for i, m := range mt.metrics {
		h.metrics[i] = m.WithValues(vs...)
	}
	return h
}
