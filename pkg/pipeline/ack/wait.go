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
	"sync"
	"sync/atomic"
)

// Wait is the pending result of a tracked batch. It must be closed once the
// owner is done with it, usually with defer. Closing a Wait that has not
// observed its outcome sends exactly one cancellation notice to the
// registry, which releases the slot.
type Wait struct {
	reg   *Registry
	token Token
	ch    chan Outcome

	observed  atomic.Bool
	outcome   Outcome
	closeOnce sync.Once
}

func (w *Wait) Token() Token {
	return w.token
}

// Await blocks until the outcome is available or ctx is done.
func (w *Wait) Await(ctx context.Context) (Outcome, error) {
	if w.observed.Load() {
		return w.outcome, nil
	}
	select {
	case o := <-w.ch:
		w.observe(o)
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Close releases the wait. It is safe to call Close multiple times.
func (w *Wait) Close() {
	w.closeOnce.Do(func() {
		if w.observed.Load() {
			return
		}
		select {
		case o := <-w.ch:
			// resolved but never observed, the slot is already free
			w.observe(o)
		default:
			w.reg.cancel(w.token)
		}
	})
}

func (w *Wait) observe(o Outcome) {
	w.outcome = o
	w.observed.Store(true)
}
