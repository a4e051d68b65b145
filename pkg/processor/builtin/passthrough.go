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

// Package builtin contains stages that ship with the engine.
package builtin

import (
	"context"

	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/conduitio/conduit-flow/pkg/record"
)

const (
	passthroughType = "passthrough"
	dropAllType     = "drop"
)

func init() {
	processor.GlobalBuilderRegistry.MustRegister(passthroughType, NewPassthrough)
	processor.GlobalBuilderRegistry.MustRegister(dropAllType, NewDropAll)
}

// stage implements the parts of chain.Stage most stages don't care about.
type stage struct {
	name string
}

func (s stage) Name() string { return s.name }

func (stage) Init(*chain.Configurator) error { return nil }

func (stage) Stop(context.Context) error { return nil }

// Passthrough forwards every batch unchanged.
type Passthrough struct {
	stage
}

func NewPassthrough(cfg processor.Config) (processor.Stage, error) {
	return &Passthrough{stage: stage{name: cfg.Name}}, nil
}

func (p *Passthrough) Process(_ context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	if m, ok := sig.(chain.Messages[record.Batch]); ok {
		return effects.SendMessage(m.Batch)
	}
	return nil
}

// DropAll drops the records of every batch. The ack ids are kept so the
// dropped batches are still acked downstream.
type DropAll struct {
	stage
}

func NewDropAll(cfg processor.Config) (processor.Stage, error) {
	return &DropAll{stage: stage{name: cfg.Name}}, nil
}

func (*DropAll) Process(_ context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	m, ok := sig.(chain.Messages[record.Batch])
	if !ok || len(m.Batch.AckIDs) == 0 {
		return nil
	}
	return effects.SendMessage(record.Batch{AckIDs: m.Batch.AckIDs})
}
