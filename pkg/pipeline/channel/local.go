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
	"context"

	"github.com/conduitio/conduit-flow/pkg/foundation/cchan"
)

// LocalSender is the sending half of a Local channel. It must be owned by a
// single goroutine and can not be cloned.
type LocalSender[T any] struct {
	ch      chan T
	closed  bool
	metrics *SenderMetrics
}

// LocalReceiver is the receiving half of a Local channel.
type LocalReceiver[T any] struct {
	ch      chan T
	metrics *ReceiverMetrics
}

// NewLocal creates a bare Local channel with the given capacity.
func NewLocal[T any](capacity int) (*LocalSender[T], *LocalReceiver[T]) {
	ch := make(chan T, capacity)
	return &LocalSender[T]{ch: ch}, &LocalReceiver[T]{ch: ch}
}

func (s *LocalSender[T]) Send(ctx context.Context, v T) error {
	if s.closed {
		s.metrics.observe(ErrClosed)
		return ErrClosed
	}
	select {
	case s.ch <- v:
		s.metrics.observe(nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LocalSender[T]) TrySend(v T) error {
	err := s.trySend(v)
	s.metrics.observe(err)
	return err
}

func (s *LocalSender[T]) trySend(v T) error {
	if s.closed {
		return ErrClosed
	}
	select {
	case s.ch <- v:
		return nil
	default:
		return ErrFull
	}
}

func (s *LocalSender[T]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// IntoRaw returns the sender without metrics and true, or the sender itself
// and false if metrics are attached.
func (s *LocalSender[T]) IntoRaw() (*LocalSender[T], bool) {
	return s, s.metrics == nil
}

// WithMetrics returns a sender for the same channel that records outcomes in
// m. The receiver gives up ownership of the channel.
func (s *LocalSender[T]) WithMetrics(m *SenderMetrics) *LocalSender[T] {
	return &LocalSender[T]{ch: s.ch, closed: s.closed, metrics: m}
}

func (r *LocalReceiver[T]) Recv(ctx context.Context) (T, error) {
	v, ok, err := cchan.Chan[T](r.ch).Recv(ctx)
	if err != nil {
		return v, err
	}
	if !ok {
		r.metrics.observe(ErrClosed)
		return v, ErrClosed
	}
	r.metrics.observe(nil)
	return v, nil
}

func (r *LocalReceiver[T]) TryRecv() (T, error) {
	v, err := tryRecv(r.ch)
	r.metrics.observe(err)
	return v, err
}

func tryRecv[T any](ch <-chan T) (T, error) {
	select {
	case v, ok := <-ch:
		if !ok {
			return v, ErrClosed
		}
		return v, nil
	default:
		var zero T
		return zero, ErrEmpty
	}
}

func (r *LocalReceiver[T]) Cap() int {
	return cap(r.ch)
}

// IntoRaw returns the receiver without metrics and true, or the receiver
// itself and false if metrics are attached.
func (r *LocalReceiver[T]) IntoRaw() (*LocalReceiver[T], bool) {
	return r, r.metrics == nil
}

// WithMetrics returns a receiver for the same channel that records outcomes
// in m.
func (r *LocalReceiver[T]) WithMetrics(m *ReceiverMetrics) *LocalReceiver[T] {
	return &LocalReceiver[T]{ch: r.ch, metrics: m}
}
