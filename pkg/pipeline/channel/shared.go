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
	"sync"
	"sync/atomic"
)

type sharedCore[T any] struct {
	ch chan T

	senders     atomic.Int64
	sendersDone chan struct{}

	recvDone     chan struct{}
	recvDoneOnce sync.Once
}

// sharedHandle is one reference to the sending side. Every clone owns its
// own handle.
type sharedHandle[T any] struct {
	core   *sharedCore[T]
	closed atomic.Bool
}

// SharedSender is the sending half of a Shared channel. It is safe for
// concurrent use and can be cloned; the channel is closed once every clone
// is closed.
type SharedSender[T any] struct {
	h       *sharedHandle[T]
	metrics *SenderMetrics
}

// SharedReceiver is the receiving half of a Shared channel. It is safe for
// concurrent use.
type SharedReceiver[T any] struct {
	core    *sharedCore[T]
	metrics *ReceiverMetrics
}

// NewShared creates a bare Shared channel with the given capacity.
func NewShared[T any](capacity int) (*SharedSender[T], *SharedReceiver[T]) {
	core := &sharedCore[T]{
		ch:          make(chan T, capacity),
		sendersDone: make(chan struct{}),
		recvDone:    make(chan struct{}),
	}
	core.senders.Store(1)
	return &SharedSender[T]{h: &sharedHandle[T]{core: core}},
		&SharedReceiver[T]{core: core}
}

func (s *SharedSender[T]) Send(ctx context.Context, v T) error {
	err := s.send(ctx, v)
	s.metrics.observe(err)
	return err
}

func (s *SharedSender[T]) send(ctx context.Context, v T) error {
	if s.h.closed.Load() {
		return ErrClosed
	}
	c := s.h.core
	select {
	case <-c.recvDone:
		return ErrClosed
	default:
	}
	select {
	case c.ch <- v:
		return nil
	case <-c.recvDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SharedSender[T]) TrySend(v T) error {
	err := s.trySend(v)
	s.metrics.observe(err)
	return err
}

func (s *SharedSender[T]) trySend(v T) error {
	if s.h.closed.Load() {
		return ErrClosed
	}
	c := s.h.core
	select {
	case <-c.recvDone:
		return ErrClosed
	default:
	}
	select {
	case c.ch <- v:
		return nil
	default:
		return ErrFull
	}
}

// Clone returns a new sender for the same channel. The clone carries the
// same metrics and must be closed independently.
func (s *SharedSender[T]) Clone() *SharedSender[T] {
	h := &sharedHandle[T]{core: s.h.core}
	if s.h.closed.Load() {
		h.closed.Store(true)
	} else {
		s.h.core.senders.Add(1)
	}
	return &SharedSender[T]{h: h, metrics: s.metrics}
}

// Close releases this sender. The channel is closed when the last clone is
// released.
func (s *SharedSender[T]) Close() {
	if !s.h.closed.CompareAndSwap(false, true) {
		return
	}
	if s.h.core.senders.Add(-1) == 0 {
		close(s.h.core.sendersDone)
	}
}

func (s *SharedSender[T]) IntoRaw() (*SharedSender[T], bool) {
	return s, s.metrics == nil
}

// WithMetrics returns a sender sharing this sender's reference that records
// outcomes in m. Closing either of them releases the reference.
func (s *SharedSender[T]) WithMetrics(m *SenderMetrics) *SharedSender[T] {
	return &SharedSender[T]{h: s.h, metrics: m}
}

func (r *SharedReceiver[T]) Recv(ctx context.Context) (T, error) {
	v, err := r.recv(ctx)
	r.metrics.observe(err)
	return v, err
}

func (r *SharedReceiver[T]) recv(ctx context.Context) (T, error) {
	c := r.core
	var zero T
	select {
	case <-c.recvDone:
		return zero, ErrClosed
	default:
	}
	select {
	case v := <-c.ch:
		return v, nil
	case <-c.sendersDone:
		// all senders are gone, drain what is left in the buffer
		return r.tryRecv()
	case <-c.recvDone:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (r *SharedReceiver[T]) TryRecv() (T, error) {
	v, err := r.tryRecv()
	r.metrics.observe(err)
	return v, err
}

func (r *SharedReceiver[T]) tryRecv() (T, error) {
	c := r.core
	var zero T
	select {
	case <-c.recvDone:
		return zero, ErrClosed
	default:
	}
	select {
	case v := <-c.ch:
		return v, nil
	default:
	}
	select {
	case <-c.sendersDone:
		return zero, ErrClosed
	default:
		return zero, ErrEmpty
	}
}

// Close closes the receiving side. Blocked and future sends fail with
// ErrClosed, buffered values are discarded.
func (r *SharedReceiver[T]) Close() {
	r.core.recvDoneOnce.Do(func() {
		close(r.core.recvDone)
	})
}

func (r *SharedReceiver[T]) Cap() int {
	return cap(r.core.ch)
}

func (r *SharedReceiver[T]) IntoRaw() (*SharedReceiver[T], bool) {
	return r, r.metrics == nil
}

// WithMetrics returns a receiver for the same channel that records outcomes
// in m.
func (r *SharedReceiver[T]) WithMetrics(m *ReceiverMetrics) *SharedReceiver[T] {
	return &SharedReceiver[T]{core: r.core, metrics: m}
}
