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

package control

import (
	"context"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
)

// State is the state of a MessageChannel.
type State int

const (
	StateNormal State = iota
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// MessageChannel wraps the control receiver of a node. Once it receives a
// Shutdown it stops yielding messages: everything that arrives until the
// shutdown deadline is discarded, then the Shutdown is yielded exactly once.
// If the underlying channel closes while draining, the Shutdown is yielded
// right away. After that, and after the channel closes in normal operation,
// Recv fails with channel.ErrClosed.
//
// MessageChannel is not safe for concurrent use.
type MessageChannel[R channel.Receiver[Msg]] struct {
	rx     R
	closed bool

	// pending is set if and only if deadline is set.
	pending  *Shutdown
	deadline time.Time

	logger log.CtxLogger
}

func NewMessageChannel[R channel.Receiver[Msg]](rx R, logger log.CtxLogger) *MessageChannel[R] {
	return &MessageChannel[R]{
		rx:     rx,
		logger: logger.WithComponent("control.MessageChannel"),
	}
}

func (c *MessageChannel[R]) State() State {
	switch {
	case c.closed:
		return StateClosed
	case c.pending != nil:
		return StateDraining
	default:
		return StateNormal
	}
}

// Recv returns the next control message. It blocks until a message is
// available, the channel is closed or ctx is done.
func (c *MessageChannel[R]) Recv(ctx context.Context) (Msg, error) {
	for {
		if c.closed {
			return nil, channel.ErrClosed
		}
		if c.pending != nil {
			msg, done, err := c.drain(ctx)
			if err != nil || done {
				return msg, err
			}
			continue
		}

		msg, err := c.rx.Recv(ctx)
		if err != nil {
			if cerrors.Is(err, channel.ErrClosed) {
				c.close()
			}
			return nil, err
		}
		if sd, ok := msg.(Shutdown); ok {
			c.startDraining(ctx, sd)
			continue
		}
		return msg, nil
	}
}

func (c *MessageChannel[R]) startDraining(ctx context.Context, sd Shutdown) {
	deadline := sd.Deadline
	if deadline.IsZero() {
		deadline = time.Now()
	}
	c.pending = &sd
	c.deadline = deadline
	c.logger.Debug(ctx).
		Time(log.DeadlineField, deadline).
		Str("reason", sd.Reason).
		Msg("shutdown received, draining control channel")
}

// drain receives a single message while draining. It returns done=true
// together with the pending Shutdown once the deadline elapsed or the
// underlying channel closed.
func (c *MessageChannel[R]) drain(ctx context.Context) (Msg, bool, error) {
	if !time.Now().Before(c.deadline) {
		return c.emit(), true, nil
	}

	dctx, cancel := context.WithDeadline(ctx, c.deadline)
	msg, err := c.rx.Recv(dctx)
	cancel()

	switch {
	case err == nil:
		c.logger.Trace(ctx).
			Stringer(log.ControlMsgField, msg.Kind()).
			Msg("discarding control message while draining")
		return nil, false, nil
	case cerrors.Is(err, channel.ErrClosed):
		return c.emit(), true, nil
	case cerrors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return c.emit(), true, nil
	default:
		return nil, false, err
	}
}

func (c *MessageChannel[R]) emit() Msg {
	sd := *c.pending
	c.pending = nil
	c.deadline = time.Time{}
	c.close()
	return sd
}

func (c *MessageChannel[R]) close() {
	if closer, ok := any(c.rx).(interface{ Close() }); ok {
		closer.Close()
	}
	var zero R
	c.rx = zero
	c.closed = true
}
