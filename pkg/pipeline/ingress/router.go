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

package ingress

import (
	"context"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/pipeline/ack"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/conduitio/conduit-flow/pkg/pipeline/control"
)

// Router resolves acks and nacks arriving on a control channel in the ack
// registry. It stops on Shutdown and cancels everything still outstanding.
type Router[R channel.Receiver[control.Msg]] struct {
	messages *control.MessageChannel[R]
	registry *ack.Registry
	logger   log.CtxLogger
}

func NewRouter[R channel.Receiver[control.Msg]](rx R, registry *ack.Registry, logger log.CtxLogger) *Router[R] {
	return &Router[R]{
		messages: control.NewMessageChannel(rx, logger),
		registry: registry,
		logger:   logger.WithComponent("ingress.Router"),
	}
}

// Run routes messages until a Shutdown is received, the control channel is
// closed or ctx is done. In the first two cases all outstanding batches are
// cancelled and Run returns nil.
func (r *Router[R]) Run(ctx context.Context) error {
	for {
		msg, err := r.messages.Recv(ctx)
		if err != nil {
			if cerrors.Is(err, channel.ErrClosed) {
				r.cancelAll(ctx, "control channel closed")
				return nil
			}
			return err
		}

		switch m := msg.(type) {
		case control.Ack:
			r.resolve(ctx, m.ID, ack.Outcome{Kind: ack.Acked})
		case control.Nack:
			r.resolve(ctx, m.ID, ack.Outcome{Kind: ack.Nacked, Reason: m.Reason})
		case control.Shutdown:
			r.cancelAll(ctx, "shutdown")
			return nil
		default:
			r.logger.Trace(ctx).Stringer(log.ControlMsgField, msg.Kind()).Msg("ignoring control message")
		}
	}
}

func (r *Router[R]) resolve(ctx context.Context, id uint64, o ack.Outcome) {
	if !r.registry.Resolve(id, o) {
		r.logger.Debug(ctx).
			Uint64(log.AckIDField, id).
			Stringer("outcome", o.Kind).
			Msg("ack for unknown or already resolved batch")
	}
}

func (r *Router[R]) cancelAll(ctx context.Context, reason string) {
	n := r.registry.CancelAll()
	r.logger.Info(ctx).
		Int("cancelled", n).
		Str("reason", reason).
		Msg("ack router stopped")
}
