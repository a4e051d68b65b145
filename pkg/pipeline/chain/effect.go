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

package chain

import (
	"context"

	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/conduitio/conduit-flow/pkg/pipeline/control"
	"github.com/gammazero/deque"
)

// EffectHandler collects the output of a stage while it processes a signal.
// The executor hands the same handler to every stage of a chain and drains
// it after each Process call.
type EffectHandler[B Batch[B]] struct {
	hasRoute bool
	queue    deque.Deque[B]

	ctx     context.Context
	control channel.Sender[control.Msg]
}

// NewEffectHandler returns a handler. If hasRoute is false SendMessage
// fails with ErrNoRoute. ctrl may be nil, in that case acks and nacks are
// dropped.
func NewEffectHandler[B Batch[B]](hasRoute bool, ctrl channel.Sender[control.Msg]) *EffectHandler[B] {
	return &EffectHandler[B]{
		hasRoute: hasRoute,
		ctx:      context.Background(),
		control:  ctrl,
	}
}

// SendMessage queues a batch for the next stage.
func (h *EffectHandler[B]) SendMessage(b B) error {
	if !h.hasRoute {
		return ErrNoRoute
	}
	h.queue.PushBack(b)
	return nil
}

// ExecuteEffects drains the queue and returns the queued batches merged into
// one. If nothing was queued it returns the zero batch. It never blocks.
func (h *EffectHandler[B]) ExecuteEffects() B {
	b, _ := h.take()
	return b
}

// take is ExecuteEffects that also reports whether anything was queued.
func (h *EffectHandler[B]) take() (B, bool) {
	var out B
	if h.queue.Len() == 0 {
		return out, false
	}
	out = h.queue.PopFront()
	for h.queue.Len() > 0 {
		out = out.Merge(h.queue.PopFront())
	}
	return out, true
}

// SendAck routes an ack for the batch tracked under id upstream.
func (h *EffectHandler[B]) SendAck(id uint64) error {
	if h.control == nil {
		return nil
	}
	return h.control.Send(h.ctx, control.Ack{ID: id})
}

// SendNack routes a nack for the batch tracked under id upstream.
func (h *EffectHandler[B]) SendNack(id uint64, reason string) error {
	if h.control == nil {
		return nil
	}
	return h.control.Send(h.ctx, control.Nack{ID: id, Reason: reason})
}

// bind sets the context used for control sends during the current Process
// call.
func (h *EffectHandler[B]) bind(ctx context.Context) {
	h.ctx = ctx
}

func (h *EffectHandler[B]) reset() {
	h.queue.Clear()
}
