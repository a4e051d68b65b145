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
	"testing"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/matryer/is"
)

func TestMessageChannel_Normal(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s, r := channel.NewLocal[Msg](10)
	mc := NewMessageChannel(r, log.Test(t))
	is.Equal(mc.State(), StateNormal)

	is.NoErr(s.Send(ctx, Ack{ID: 1}))
	is.NoErr(s.Send(ctx, Nack{ID: 2, Reason: "boom"}))
	is.NoErr(s.Send(ctx, TimerTick{}))

	want := []Msg{Ack{ID: 1}, Nack{ID: 2, Reason: "boom"}, TimerTick{}}
	for _, w := range want {
		got, err := mc.Recv(ctx)
		is.NoErr(err)
		is.Equal(got, w)
	}

	s.Close()
	_, err := mc.Recv(ctx)
	is.Equal(err, channel.ErrClosed)
	is.Equal(mc.State(), StateClosed)

	_, err = mc.Recv(ctx)
	is.Equal(err, channel.ErrClosed)
}

func TestMessageChannel_DrainDiscardsUntilDeadline(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s, r := channel.NewShared[Msg](200)
	mc := NewMessageChannel(r, log.Test(t))

	start := time.Now()
	deadline := start.Add(50 * time.Millisecond)
	is.NoErr(s.Send(ctx, Shutdown{Deadline: deadline, Reason: "test"}))
	for i := 0; i < 100; i++ {
		is.NoErr(s.Send(ctx, Ack{ID: uint64(i)}))
	}

	// messages keep arriving during the drain window
	go func() {
		for i := 0; i < 20; i++ {
			if s.Send(ctx, Nack{ID: uint64(i)}) != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	got, err := mc.Recv(ctx)
	is.NoErr(err)
	is.Equal(got, Shutdown{Deadline: deadline, Reason: "test"})
	is.True(!time.Now().Before(deadline))
	is.Equal(mc.State(), StateClosed)

	for i := 0; i < 3; i++ {
		_, err = mc.Recv(ctx)
		is.Equal(err, channel.ErrClosed)
	}
	// the receiver was released, senders are rejected
	is.Equal(s.TrySend(Ack{ID: 1}), channel.ErrClosed)
}

func TestMessageChannel_CloseWhileDraining(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s, r := channel.NewLocal[Msg](10)
	mc := NewMessageChannel(r, log.Test(t))

	sd := Shutdown{Deadline: time.Now().Add(time.Hour)}
	is.NoErr(s.Send(ctx, sd))
	is.NoErr(s.Send(ctx, Ack{ID: 7}))
	s.Close()

	start := time.Now()
	got, err := mc.Recv(ctx)
	is.NoErr(err)
	is.Equal(got, sd)
	is.True(time.Since(start) < time.Second)

	_, err = mc.Recv(ctx)
	is.Equal(err, channel.ErrClosed)
}

func TestMessageChannel_PastDeadline(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s, r := channel.NewLocal[Msg](10)
	mc := NewMessageChannel(r, log.Test(t))

	sd := Shutdown{Deadline: time.Now().Add(-time.Second)}
	is.NoErr(s.Send(ctx, sd))
	is.NoErr(s.Send(ctx, Ack{ID: 1}))

	got, err := mc.Recv(ctx)
	is.NoErr(err)
	is.Equal(got, sd)
}

func TestMessageChannel_DrainingState(t *testing.T) {
	is := is.New(t)

	s, r := channel.NewLocal[Msg](10)
	mc := NewMessageChannel(r, log.Test(t))
	is.NoErr(s.TrySend(Shutdown{Deadline: time.Now().Add(time.Hour)}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := mc.Recv(ctx)
	is.Equal(err, context.DeadlineExceeded)
	is.Equal(mc.State(), StateDraining)
	is.True(mc.pending != nil)
	is.True(!mc.deadline.IsZero())
}

func TestMessageChannel_ContextCanceled(t *testing.T) {
	is := is.New(t)

	_, r := channel.NewLocal[Msg](1)
	mc := NewMessageChannel(r, log.Test(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mc.Recv(ctx)
	is.Equal(err, context.Canceled)
	is.Equal(mc.State(), StateNormal)
}
