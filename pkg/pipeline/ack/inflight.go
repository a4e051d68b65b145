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

package ack

import (
	"context"
	"reflect"
	"slices"
	"sync"
)

// InFlight is a bounded set of pending waits. Waits complete in any order,
// Next returns whichever completes first.
type InFlight struct {
	capacity int

	mu     sync.Mutex
	waits  []*Wait
	closed bool

	// changed is signaled when a wait is added or the set is closed, so a
	// blocked Next picks up the new case set.
	changed chan struct{}
}

func NewInFlight(capacity int) *InFlight {
	return &InFlight{
		capacity: capacity,
		changed:  make(chan struct{}, 1),
	}
}

// Push adds w to the set. It returns ErrInFlightFull if the set already
// holds capacity waits, in that case the caller still owns w.
func (f *InFlight) Push(w *Wait) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if len(f.waits) >= f.capacity {
		return ErrInFlightFull
	}
	f.waits = append(f.waits, w)
	f.notify()
	return nil
}

// Remove takes w out of the set without closing it. It returns false if w
// is not in the set.
func (f *InFlight) Remove(w *Wait) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(w)
}

func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waits)
}

// Next blocks until one of the waits in the set resolves and returns it
// together with its outcome. The returned wait is removed from the set and
// closed. If the set is empty Next waits for a Push. It returns ErrClosed
// once the set is closed.
func (f *InFlight) Next(ctx context.Context) (*Wait, Outcome, error) {
	for {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return nil, Outcome{}, ErrClosed
		}
		waits := slices.Clone(f.waits)
		f.mu.Unlock()

		cases := make([]reflect.SelectCase, 0, len(waits)+2)
		cases = append(cases,
			reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
			reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(f.changed)},
		)
		for _, w := range waits {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(w.ch)})
		}

		chosen, value, _ := reflect.Select(cases)
		switch chosen {
		case 0:
			return nil, Outcome{}, ctx.Err()
		case 1:
			continue
		}

		w := waits[chosen-2]
		o := value.Interface().(Outcome)
		w.observe(o)
		w.Close()
		f.Remove(w)
		return w, o, nil
	}
}

// Close closes every wait still in the set, sending cancellation notices
// for those that did not resolve, and rejects further pushes.
func (f *InFlight) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	waits := f.waits
	f.waits = nil
	f.notify()
	f.mu.Unlock()

	for _, w := range waits {
		w.Close()
	}
}

// notify must be called with the lock held.
func (f *InFlight) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

// remove must be called with the lock held.
func (f *InFlight) remove(w *Wait) bool {
	i := slices.Index(f.waits, w)
	if i < 0 {
		return false
	}
	f.waits = slices.Delete(f.waits, i, i+1)
	return true
}
