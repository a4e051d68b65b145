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

// Package control contains the messages exchanged on the control plane of a
// pipeline node and the channel wrapper that drains them on shutdown.
package control

import (
	"time"

	"github.com/goccy/go-json"
)

// Kind identifies the type of a control message.
type Kind int

const (
	KindShutdown Kind = iota + 1
	KindAck
	KindNack
	KindTimerTick
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindShutdown:
		return "shutdown"
	case KindAck:
		return "ack"
	case KindNack:
		return "nack"
	case KindTimerTick:
		return "timer_tick"
	case KindConfig:
		return "config"
	}
	return "unknown"
}

// Msg is a message addressed to a single node. The set of messages is closed,
// these are the only messages an actor outside the node may inject.
type Msg interface {
	Kind() Kind
}

// Shutdown asks the node to stop. Control messages that arrive before
// Deadline are drained and dropped, see MessageChannel.
type Shutdown struct {
	Deadline time.Time
	Reason   string
}

// Ack reports that the batch tracked under ID was delivered.
type Ack struct {
	ID uint64
}

// Nack reports that the batch tracked under ID could not be delivered.
type Nack struct {
	ID     uint64
	Reason string
}

// TimerTick is a periodic wakeup addressed to the node.
type TimerTick struct{}

// Config carries a new configuration for the node in JSON form.
type Config struct {
	Config json.RawMessage
}

func (Shutdown) Kind() Kind  { return KindShutdown }
func (Ack) Kind() Kind       { return KindAck }
func (Nack) Kind() Kind      { return KindNack }
func (TimerTick) Kind() Kind { return KindTimerTick }
func (Config) Kind() Kind    { return KindConfig }

// Decode unmarshals the configuration into v.
func (c Config) Decode(v any) error {
	return json.Unmarshal(c.Config, v)
}

// NewConfig marshals v into a Config message.
func NewConfig(v any) (Config, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Config{}, err
	}
	return Config{Config: raw}, nil
}
