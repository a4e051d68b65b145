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
	"time"
)

// Signal is the input of a single executor iteration. Messages, TimerTick and
// Stop are understood by the executor, other implementations may be injected
// through WithSignals and are rejected with ErrUnsupportedSignal.
type Signal interface {
	SignalName() string
}

// Batch is the constraint for the payload moved through a chain. The
// executor never looks into a batch, it only clones it for fan-out and
// merges batches emitted by the same stage.
type Batch[B any] interface {
	// Clone returns a deep copy of the batch.
	Clone() B
	// Merge returns a batch containing the records of the receiver followed
	// by the records of other.
	Merge(other B) B
}

// Messages carries a batch of records.
type Messages[B any] struct {
	Batch B
}

// TimerTick is emitted by the timer registered by the stage at SourceIndex.
type TimerTick struct {
	FiredAt     time.Time
	SourceIndex int
}

// Stop tells the executor to leave its loop.
type Stop struct{}

func (Messages[B]) SignalName() string { return "messages" }
func (TimerTick) SignalName() string   { return "timer_tick" }
func (Stop) SignalName() string        { return "stop" }
