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

// Package telemetry holds the registration side of the engine's
// self-observability. Components register the entities they create (e.g.
// channels) and receive a key that identifies the entity in metrics.
package telemetry

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// EntityKey identifies a registered entity.
type EntityKey string

// NewEntityKey returns a fresh random key.
func NewEntityKey() EntityKey {
	return EntityKey(uuid.NewString())
}

// ChannelKind distinguishes data channels from control channels.
type ChannelKind string

const (
	ChannelKindData    ChannelKind = "data"
	ChannelKindControl ChannelKind = "control"
)

// ChannelDescriptor describes a wired channel.
type ChannelDescriptor struct {
	// Name is a human readable identifier, usually "<from>-><to>".
	Name     string
	Kind     ChannelKind
	Mode     string
	Capacity int
}

// ChannelEntity is a registered channel.
type ChannelEntity struct {
	Key EntityKey
	ChannelDescriptor
}

// Entities is an in-memory entity registry. It is safe for concurrent use.
// The zero value is not usable, use NewEntities.
type Entities struct {
	mu       sync.Mutex
	channels map[EntityKey]ChannelDescriptor
}

func NewEntities() *Entities {
	return &Entities{
		channels: make(map[EntityKey]ChannelDescriptor),
	}
}

// RegisterChannel stores the descriptor and returns a new key for it.
func (e *Entities) RegisterChannel(desc ChannelDescriptor) EntityKey {
	key := NewEntityKey()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.channels[key] = desc
	return key
}

// UnregisterChannel removes the channel. It returns false if the key is
// unknown.
func (e *Entities) UnregisterChannel(key EntityKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.channels[key]; !ok {
		return false
	}
	delete(e.channels, key)
	return true
}

func (e *Entities) Channel(key EntityKey) (ChannelDescriptor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	desc, ok := e.channels[key]
	return desc, ok
}

// Channels returns all registered channels sorted by name.
func (e *Entities) Channels() []ChannelEntity {
	e.mu.Lock()
	out := make([]ChannelEntity, 0, len(e.channels))
	for k, d := range e.channels {
		out = append(out, ChannelEntity{Key: k, ChannelDescriptor: d})
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Key < out[j].Key
		}
		return out[i].Name < out[j].Name
	})
	return out
}
