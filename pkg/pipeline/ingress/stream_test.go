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
	"testing"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/pipeline/ack"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/conduitio/conduit-flow/pkg/pipeline/control"
	"github.com/matryer/is"
)

type testBatch struct {
	Items []string
	AckID uint64
}

func attachTest(b testBatch, t ack.Token) testBatch {
	b.AckID = t.ID()
	return b
}

type testStream = Stream[testBatch, *channel.SharedSender[testBatch]]

func newTestStream(t *testing.T, capacity, maxInFlight int) (*testStream, *ack.Registry, *channel.SharedReceiver[testBatch]) {
	t.Helper()
	s, r := channel.NewShared[testBatch](10)
	reg := ack.NewRegistry(capacity)
	stream := NewStream[testBatch](s, reg, maxInFlight, attachTest, log.Test(t))
	t.Cleanup(stream.Close)
	return stream, reg, r
}

func TestStream_OverloadUntilResolved(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	stream, reg, out := newTestStream(t, 2, 10)

	status, err := stream.Submit(ctx, 1, testBatch{Items: []string{"a"}})
	is.NoErr(err)
	is.Equal(status, nil)
	status, err = stream.Submit(ctx, 2, testBatch{Items: []string{"b"}})
	is.NoErr(err)
	is.Equal(status, nil)

	// third batch is rejected and not enqueued
	status, err = stream.Submit(ctx, 3, testBatch{Items: []string{"c"}})
	is.NoErr(err)
	is.Equal(*status, Status{BatchID: 3, Code: StatusOverloaded})

	first, err := out.Recv(ctx)
	is.NoErr(err)
	second, err := out.Recv(ctx)
	is.NoErr(err)
	_, err = out.TryRecv()
	is.Equal(err, channel.ErrEmpty)
	is.True(first.AckID != 0)
	is.True(first.AckID != second.AckID)

	// still overloaded
	status, err = stream.Submit(ctx, 3, testBatch{Items: []string{"c"}})
	is.NoErr(err)
	is.Equal(status.Code, StatusOverloaded)

	is.True(reg.Resolve(second.AckID, ack.Outcome{Kind: ack.Nacked, Reason: "invalid"}))
	got, err := stream.Next(ctx)
	is.NoErr(err)
	is.Equal(got, Status{BatchID: 2, Code: StatusFailure, Message: "invalid"})

	status, err = stream.Submit(ctx, 3, testBatch{Items: []string{"c"}})
	is.NoErr(err)
	is.Equal(status, nil)
	is.Equal(stream.Pending(), 2)

	is.True(reg.Resolve(first.AckID, ack.Outcome{Kind: ack.Acked}))
	got, err = stream.Next(ctx)
	is.NoErr(err)
	is.Equal(got, Status{BatchID: 1, Code: StatusSuccess})
}

func TestStream_InFlightFull(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	stream, reg, _ := newTestStream(t, 5, 1)

	status, err := stream.Submit(ctx, 1, testBatch{})
	is.NoErr(err)
	is.Equal(status, nil)

	status, err = stream.Submit(ctx, 2, testBatch{})
	is.NoErr(err)
	is.Equal(*status, Status{BatchID: 2, Code: StatusOverloaded})

	// the slot allocated for the rejected batch was released
	is.Equal(reg.Outstanding(), 1)
	is.Equal(reg.CancelNotices(), int64(1))
}

func TestStream_SendFailure(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	stream, reg, out := newTestStream(t, 2, 2)
	out.Close()

	status, err := stream.Submit(ctx, 1, testBatch{})
	is.True(cerrors.Is(err, channel.ErrClosed))
	is.Equal(status, nil)
	is.Equal(reg.Outstanding(), 0)
	is.Equal(stream.Pending(), 0)
}

func TestStream_CloseReleasesSlots(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	stream, reg, _ := newTestStream(t, 3, 3)
	for i := int64(0); i < 3; i++ {
		_, err := stream.Submit(ctx, i, testBatch{})
		is.NoErr(err)
	}
	is.Equal(reg.Outstanding(), 3)

	stream.Close()
	is.Equal(reg.Outstanding(), 0)
	is.Equal(reg.CancelNotices(), int64(3))

	_, err := stream.Next(ctx)
	is.Equal(err, ErrStreamClosed)
}

func TestRouter_RoutesAcks(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	stream, reg, out := newTestStream(t, 4, 4)
	ctrlS, ctrlR := channel.NewShared[control.Msg](10)
	router := NewRouter(ctrlR, reg, log.Test(t))

	done := make(chan error, 1)
	go func() { done <- router.Run(ctx) }()

	for i := int64(1); i <= 3; i++ {
		_, err := stream.Submit(ctx, i, testBatch{})
		is.NoErr(err)
	}
	var ids []uint64
	for i := 0; i < 3; i++ {
		b, err := out.Recv(ctx)
		is.NoErr(err)
		ids = append(ids, b.AckID)
	}

	is.NoErr(ctrlS.Send(ctx, control.Ack{ID: ids[1]}))
	got, err := stream.Next(ctx)
	is.NoErr(err)
	is.Equal(got, Status{BatchID: 2, Code: StatusSuccess})

	is.NoErr(ctrlS.Send(ctx, control.TimerTick{}))
	is.NoErr(ctrlS.Send(ctx, control.Nack{ID: ids[0], Reason: "boom"}))
	got, err = stream.Next(ctx)
	is.NoErr(err)
	is.Equal(got, Status{BatchID: 1, Code: StatusFailure, Message: "boom"})

	// shutdown cancels the remaining batch, the stream ends
	is.NoErr(ctrlS.Send(ctx, control.Shutdown{Deadline: time.Now()}))
	select {
	case err := <-done:
		is.NoErr(err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
	_, err = stream.Next(ctx)
	is.Equal(err, ErrStreamClosed)
	is.Equal(reg.Outstanding(), 0)
}

func TestRouter_ControlChannelClosed(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	stream, reg, _ := newTestStream(t, 1, 1)
	_, err := stream.Submit(ctx, 1, testBatch{})
	is.NoErr(err)

	ctrlS, ctrlR := channel.NewLocal[control.Msg](1)
	ctrlS.Close()
	is.NoErr(NewRouter(ctrlR, reg, log.Test(t)).Run(ctx))

	_, err = stream.Next(ctx)
	is.Equal(err, ErrStreamClosed)
}

func TestStatusCode_String(t *testing.T) {
	is := is.New(t)
	is.Equal(StatusSuccess.String(), "success")
	is.Equal(StatusFailure.String(), "failure")
	is.Equal(StatusOverloaded.String(), "overloaded")
}
