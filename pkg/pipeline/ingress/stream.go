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

// Package ingress adapts a transport connection to a pipeline. A Stream
// admits batches for reliable delivery and reports one terminal status per
// batch, the Router feeds acks and nacks from the control plane back into
// the ack registry.
package ingress

import (
	"context"
	"sync"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/pipeline/ack"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
)

// ErrStreamClosed is returned by Stream.Next once the stream was torn down.
var ErrStreamClosed = cerrors.New("stream closed")

// StatusCode is the terminal status of a batch.
type StatusCode int

const (
	StatusSuccess StatusCode = iota + 1
	StatusFailure
	StatusOverloaded
)

func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusOverloaded:
		return "overloaded"
	}
	return "unknown"
}

// Status is reported to the transport once per batch.
type Status struct {
	BatchID int64
	Code    StatusCode
	// Message is the nack reason for StatusFailure.
	Message string
}

// AttachFunc stores the ack token in the batch so the stage finishing it can
// address the ack.
type AttachFunc[B any] func(b B, t ack.Token) B

// Stream tracks the batches of one connection. Submit and Next may be called
// from different goroutines.
type Stream[B any, S channel.Sender[B]] struct {
	out      S
	registry *ack.Registry
	inflight *ack.InFlight
	attach   AttachFunc[B]
	logger   log.CtxLogger

	mu       sync.Mutex
	batchIDs map[ack.Token]int64
}

// NewStream creates a stream that sends admitted batches to out. At most
// maxInFlight batches of this stream are pending at any time, registry
// bounds the number of batches across all streams sharing it.
func NewStream[B any, S channel.Sender[B]](
	out S,
	registry *ack.Registry,
	maxInFlight int,
	attach AttachFunc[B],
	logger log.CtxLogger,
) *Stream[B, S] {
	return &Stream[B, S]{
		out:      out,
		registry: registry,
		inflight: ack.NewInFlight(maxInFlight),
		attach:   attach,
		logger:   logger.WithComponent("ingress.Stream"),
		batchIDs: make(map[ack.Token]int64),
	}
}

// Submit admits a batch. If the batch is admitted it is sent downstream and
// Submit returns a nil status, the terminal status is later returned by
// Next. If no slot is available Submit returns an Overloaded status right
// away and the batch is not sent. An error is returned only if sending
// failed, in which case the batch is not tracked.
func (s *Stream[B, S]) Submit(ctx context.Context, batchID int64, b B) (*Status, error) {
	w, ok := s.registry.Allocate()
	if !ok {
		s.logger.Debug(ctx).Int64(log.BatchIDField, batchID).Msg("no ack slot available, batch rejected")
		return &Status{BatchID: batchID, Code: StatusOverloaded}, nil
	}
	if err := s.inflight.Push(w); err != nil {
		w.Close()
		if cerrors.Is(err, ack.ErrInFlightFull) {
			s.logger.Debug(ctx).Int64(log.BatchIDField, batchID).Msg("in-flight set full, batch rejected")
			return &Status{BatchID: batchID, Code: StatusOverloaded}, nil
		}
		return nil, err
	}

	token := w.Token()
	s.mu.Lock()
	s.batchIDs[token] = batchID
	s.mu.Unlock()

	if err := s.out.Send(ctx, s.attach(b, token)); err != nil {
		s.inflight.Remove(w)
		w.Close()
		s.forget(token)
		return nil, cerrors.Errorf("failed to send batch %d: %w", batchID, err)
	}
	return nil, nil
}

// Next returns the status of the next batch that resolved. Batches resolve
// in any order. If the pending batches were cancelled Next returns
// ErrStreamClosed and the stream should be torn down.
func (s *Stream[B, S]) Next(ctx context.Context) (Status, error) {
	w, o, err := s.inflight.Next(ctx)
	if err != nil {
		if cerrors.Is(err, ack.ErrClosed) {
			return Status{}, ErrStreamClosed
		}
		return Status{}, err
	}
	batchID := s.forget(w.Token())

	switch o.Kind {
	case ack.Acked:
		return Status{BatchID: batchID, Code: StatusSuccess}, nil
	case ack.Nacked:
		return Status{BatchID: batchID, Code: StatusFailure, Message: o.Reason}, nil
	default:
		s.logger.Debug(ctx).Int64(log.BatchIDField, batchID).Msg("batch cancelled, closing stream")
		return Status{}, ErrStreamClosed
	}
}

// Pending returns the number of admitted batches without a status.
func (s *Stream[B, S]) Pending() int {
	return s.inflight.Len()
}

// Close cancels all pending batches and releases their slots.
func (s *Stream[B, S]) Close() {
	s.inflight.Close()
	s.mu.Lock()
	clear(s.batchIDs)
	s.mu.Unlock()
}

func (s *Stream[B, S]) forget(t ack.Token) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.batchIDs[t]
	delete(s.batchIDs, t)
	return id
}
