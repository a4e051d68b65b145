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

package builtin

import (
	"context"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/multierror"
	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/conduitio/conduit-flow/pkg/record"
)

const (
	flushType = "flush"

	flushConfigPeriod = "period"

	// nackReasonStopped is sent for batches still buffered when the stage
	// stops.
	nackReasonStopped = "pipeline stopped before batch was flushed"
)

func init() {
	processor.GlobalBuilderRegistry.MustRegister(flushType, NewFlushEvery)
}

// FlushEvery buffers incoming batches and emits them as a single batch
// every period. Batches still buffered when the stage stops are nacked.
type FlushEvery struct {
	stage
	period time.Duration

	buf     record.Batch
	effects *chain.EffectHandler[record.Batch]
}

func NewFlushEvery(cfg processor.Config) (processor.Stage, error) {
	period, err := getConfigFieldDuration(cfg, flushConfigPeriod)
	if err != nil {
		return nil, cerrors.Errorf("%s: %w", flushType, err)
	}
	return &FlushEvery{
		stage:  stage{name: cfg.Name},
		period: period,
	}, nil
}

func (f *FlushEvery) Init(cfg *chain.Configurator) error {
	return cfg.SetTimer(f.period)
}

func (f *FlushEvery) Process(_ context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	f.effects = effects
	switch s := sig.(type) {
	case chain.Messages[record.Batch]:
		if s.Batch.Len() > 0 || len(s.Batch.AckIDs) > 0 {
			f.buf = f.buf.Merge(s.Batch)
		}
	case chain.TimerTick:
		if f.buf.Len() == 0 && len(f.buf.AckIDs) == 0 {
			return nil
		}
		out := f.buf
		f.buf = record.Batch{}
		return effects.SendMessage(out)
	}
	return nil
}

func (f *FlushEvery) Stop(context.Context) error {
	if f.effects == nil {
		return nil
	}
	var errs error
	for _, id := range f.buf.AckIDs {
		errs = multierror.Append(errs, f.effects.SendNack(id, nackReasonStopped))
	}
	f.buf = record.Batch{}
	return errs
}
