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

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
)

var (
	// ErrClosed is returned when sending on a channel whose sender or
	// receiver is closed, or receiving from a closed and drained channel.
	ErrClosed = cerrors.New("channel closed")
	// ErrFull is returned by TrySend if the channel buffer is full.
	ErrFull = cerrors.New("channel full")
	// ErrEmpty is returned by TryRecv if no value is buffered.
	ErrEmpty = cerrors.New("channel empty")
)

// Sender is the sending half of a channel.
type Sender[T any] interface {
	// Send blocks until v is buffered, the channel is closed or ctx is done.
	Send(ctx context.Context, v T) error
	// TrySend buffers v without blocking or returns ErrFull.
	TrySend(v T) error
	// Close releases the sender. Calling Close more than once has no effect.
	Close()
}

// Receiver is the receiving half of a channel.
type Receiver[T any] interface {
	// Recv blocks until a value is available, the channel is closed or ctx is
	// done. Once the channel is closed and drained it returns ErrClosed.
	Recv(ctx context.Context) (T, error)
	// TryRecv returns a buffered value or ErrEmpty without blocking.
	TryRecv() (T, error)
	// Cap returns the capacity of the channel.
	Cap() int
}
