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

// Package ack tracks batches admitted for reliable delivery until they are
// acknowledged, negatively acknowledged or cancelled.
package ack

import (
	"sync"
	"sync/atomic"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
)

var (
	// ErrInFlightFull is returned by InFlight.Push if the set is at capacity.
	ErrInFlightFull = cerrors.New("in-flight set is full")
	// ErrClosed is returned when operating on a closed InFlight set.
	ErrClosed = cerrors.New("in-flight set closed")
)

// OutcomeKind is the kind of result a tracked batch resolves to.
type OutcomeKind int

const (
	Acked OutcomeKind = iota + 1
	Nacked
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Acked:
		return "acked"
	case Nacked:
		return "nacked"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Outcome is the result of a tracked batch. Reason is only set for Nacked.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Token identifies a tracked batch. It is attached to the batch so that the
// stage that finishes it can address the ack.
type Token struct {
	slot uint32
	gen  uint32
}

// ID encodes the token into the integer carried by control.Ack and
// control.Nack. IDs of valid tokens are never 0.
func (t Token) ID() uint64 {
	return uint64(t.gen)<<32 | uint64(t.slot)
}

// TokenFromID decodes an ID produced by Token.ID.
func TokenFromID(id uint64) Token {
	return Token{slot: uint32(id), gen: uint32(id >> 32)} //nolint:gosec // lossless split of a packed value
}

type slot struct {
	gen   uint32
	inUse bool
	ch    chan Outcome
}

// Registry hands out tokens for a bounded number of outstanding batches.
// Each token resolves exactly once, either through Resolve, CancelAll or
// when its Wait is closed before it resolved. It is safe for concurrent use,
// no operation blocks while holding the lock.
type Registry struct {
	mu          sync.Mutex
	slots       []slot
	free        []uint32
	outstanding int

	cancelNotices atomic.Int64
}

// NewRegistry creates a registry with room for capacity outstanding tokens.
func NewRegistry(capacity int) *Registry {
	r := &Registry{
		slots: make([]slot, capacity),
		free:  make([]uint32, 0, capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		r.free = append(r.free, uint32(i)) //nolint:gosec // capacity fits uint32
	}
	return r
}

// Allocate reserves a slot and returns the Wait that resolves once the batch
// is acked, nacked or cancelled. It returns false if capacity slots are
// already outstanding. The caller must Close the returned Wait.
func (r *Registry) Allocate() (*Wait, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.free) == 0 {
		return nil, false
	}
	idx := r.free[len(r.free)-1]
	r.free = r.free[:len(r.free)-1]

	s := &r.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1 // keep ids non-zero after wrap-around
	}
	s.inUse = true
	s.ch = make(chan Outcome, 1)
	r.outstanding++

	return &Wait{
		reg:   r,
		token: Token{slot: idx, gen: s.gen},
		ch:    s.ch,
	}, true
}

// Resolve delivers the outcome to the Wait of the token with the given id.
// It returns false if the id is unknown or was already resolved.
func (r *Registry) Resolve(id uint64, o Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(TokenFromID(id), o)
}

// CancelAll resolves every outstanding token with Cancelled and returns the
// number of tokens it cancelled.
func (r *Registry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.slots {
		s := &r.slots[i]
		if s.inUse && r.resolve(Token{slot: uint32(i), gen: s.gen}, Outcome{Kind: Cancelled}) { //nolint:gosec // index fits uint32
			n++
		}
	}
	return n
}

// Outstanding returns the number of allocated and unresolved tokens.
func (r *Registry) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outstanding
}

// Capacity returns the maximum number of outstanding tokens.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// CancelNotices returns how many cancellation notices were received from
// waits closed before they observed an outcome.
func (r *Registry) CancelNotices() int64 {
	return r.cancelNotices.Load()
}

// resolve must be called with the lock held.
func (r *Registry) resolve(t Token, o Outcome) bool {
	if int(t.slot) >= len(r.slots) {
		return false
	}
	s := &r.slots[t.slot]
	if !s.inUse || s.gen != t.gen {
		return false
	}
	// buffered with room for exactly this one outcome
	s.ch <- o
	r.release(t.slot)
	return true
}

// release must be called with the lock held.
func (r *Registry) release(idx uint32) {
	s := &r.slots[idx]
	s.inUse = false
	s.ch = nil
	r.free = append(r.free, idx)
	r.outstanding--
}

// cancel is the notice sent by a Wait that is closed before it observed its
// outcome. If the token is still outstanding its slot is released.
func (r *Registry) cancel(t Token) {
	r.cancelNotices.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()
	if int(t.slot) >= len(r.slots) {
		return
	}
	s := &r.slots[t.slot]
	if s.inUse && s.gen == t.gen {
		r.release(t.slot)
	}
}
