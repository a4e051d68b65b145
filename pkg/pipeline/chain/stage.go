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
	"context"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
)

//go:generate mockgen -typed -destination=mock/stage.go -package=mock -mock_names=Stage=Stage . Stage

// Stage is a single processing step of a chain.
type Stage[B Batch[B]] interface {
	// Name identifies the stage in logs, errors and metrics.
	Name() string
	// Init is called once before the chain starts. A stage that needs
	// periodic wakeups registers a timer on cfg.
	Init(cfg *Configurator) error
	// Process handles one signal. Batches the stage produces are handed to
	// effects, whatever is queued there is passed on to the next stage once
	// Process returns.
	Process(ctx context.Context, sig Signal, effects *EffectHandler[B]) error
	// Stop is called once after the chain loop exited, also if it exited
	// because of an error.
	Stop(ctx context.Context) error
}

// Configurator is handed to Stage.Init.
type Configurator struct {
	timer time.Duration
	done  bool
}

// SetTimer registers a timer that sends a TimerTick to the stage every
// period. Only one timer per stage is supported, calling SetTimer again
// replaces the period.
func (c *Configurator) SetTimer(period time.Duration) error {
	if c.done {
		return cerrors.New("timers can only be registered during init")
	}
	if period <= 0 {
		return cerrors.Errorf("invalid timer period %v, must be positive", period)
	}
	c.timer = period
	return nil
}

// Timer returns the registered timer period or 0.
func (c *Configurator) Timer() time.Duration {
	return c.timer
}
