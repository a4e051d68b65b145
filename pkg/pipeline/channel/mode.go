// Copyright © 2025 Meroxa, Inc.
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

package channel

import (
	"github.com/conduitio/conduit-flow/pkg/telemetry"
)

// Mode is the capability set of a channel mode. It ties together the sender
// and receiver types of the mode and the operations that move an endpoint
// between its raw and instrumented forms. Implementations are zero-size
// values, the mode is chosen by instantiating generic code with one of them.
type Mode[T any, S Sender[T], R Receiver[T]] interface {
	Name() string
	// New creates a bare channel with the given capacity.
	New(capacity int) (S, R)
	// SenderIntoRaw returns the bare sender and true, or s and false if s
	// already has metrics attached.
	SenderIntoRaw(s S) (S, bool)
	// ReceiverIntoRaw returns the bare receiver and true, or r and false if
	// r already has metrics attached.
	ReceiverIntoRaw(r R) (R, bool)
	AttachSenderMetrics(s S, m *SenderMetrics) S
	AttachReceiverMetrics(r R, m *ReceiverMetrics) R
}

const (
	ModeLocal  = "local"
	ModeShared = "shared"
)

// LocalMode creates channels whose endpoints are confined to one goroutine.
type LocalMode[T any] struct{}

var _ Mode[any, *LocalSender[any], *LocalReceiver[any]] = LocalMode[any]{}

func (LocalMode[T]) Name() string { return ModeLocal }

func (LocalMode[T]) New(capacity int) (*LocalSender[T], *LocalReceiver[T]) {
	return NewLocal[T](capacity)
}

func (LocalMode[T]) SenderIntoRaw(s *LocalSender[T]) (*LocalSender[T], bool) {
	return s.IntoRaw()
}

func (LocalMode[T]) ReceiverIntoRaw(r *LocalReceiver[T]) (*LocalReceiver[T], bool) {
	return r.IntoRaw()
}

func (LocalMode[T]) AttachSenderMetrics(s *LocalSender[T], m *SenderMetrics) *LocalSender[T] {
	return s.WithMetrics(m)
}

func (LocalMode[T]) AttachReceiverMetrics(r *LocalReceiver[T], m *ReceiverMetrics) *LocalReceiver[T] {
	return r.WithMetrics(m)
}

// SharedMode creates channels whose endpoints can be used from any goroutine.
type SharedMode[T any] struct{}

var _ Mode[any, *SharedSender[any], *SharedReceiver[any]] = SharedMode[any]{}

func (SharedMode[T]) Name() string { return ModeShared }

func (SharedMode[T]) New(capacity int) (*SharedSender[T], *SharedReceiver[T]) {
	return NewShared[T](capacity)
}

func (SharedMode[T]) SenderIntoRaw(s *SharedSender[T]) (*SharedSender[T], bool) {
	return s.IntoRaw()
}

func (SharedMode[T]) ReceiverIntoRaw(r *SharedReceiver[T]) (*SharedReceiver[T], bool) {
	return r.IntoRaw()
}

func (SharedMode[T]) AttachSenderMetrics(s *SharedSender[T], m *SenderMetrics) *SharedSender[T] {
	return s.WithMetrics(m)
}

func (SharedMode[T]) AttachReceiverMetrics(r *SharedReceiver[T], m *ReceiverMetrics) *SharedReceiver[T] {
	return r.WithMetrics(m)
}

// WireOptions configures Wire.
type WireOptions struct {
	// Name is stored in the channel entity, e.g. "ingress->chain-0".
	Name string
	Kind telemetry.ChannelKind
	// Entities receives the channel entity. If nil the channel gets a key
	// but is not registered anywhere.
	Entities *telemetry.Entities
	// Metrics enables instrumentation of both endpoints if not nil.
	Metrics *Metrics
}

// Wire prepares the endpoints of a freshly created channel for use in a
// pipeline. If both endpoints are bare it registers a channel entity and, if
// metrics are enabled, attaches a fresh metric set to each endpoint. If
// either endpoint is already instrumented both are returned unchanged and the
// returned key is empty, so wiring the same channel twice instruments it once.
func Wire[T any, M Mode[T, S, R], S Sender[T], R Receiver[T]](mode M, s S, r R, opts WireOptions) (S, R, telemetry.EntityKey) {
	rawS, okS := mode.SenderIntoRaw(s)
	rawR, okR := mode.ReceiverIntoRaw(r)
	if !okS || !okR {
		return s, r, ""
	}

	kind := opts.Kind
	if kind == "" {
		kind = telemetry.ChannelKindData
	}
	desc := telemetry.ChannelDescriptor{
		Name:     opts.Name,
		Kind:     kind,
		Mode:     mode.Name(),
		Capacity: rawR.Cap(),
	}
	var key telemetry.EntityKey
	if opts.Entities != nil {
		key = opts.Entities.RegisterChannel(desc)
	} else {
		key = telemetry.NewEntityKey()
	}

	if opts.Metrics == nil {
		return rawS, rawR, key
	}
	return mode.AttachSenderMetrics(rawS, opts.Metrics.Sender(key)),
		mode.AttachReceiverMetrics(rawR, opts.Metrics.Receiver(key)),
		key
}
