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

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/conduitio/conduit-flow/pkg/record"
)

const (
	filterType = "filter"

	filterConfigKey     = "key"
	filterConfigValue   = "value"
	filterConfigExclude = "exclude"
)

func init() {
	processor.GlobalBuilderRegistry.MustRegister(filterType, NewFilter)
}

// Filter keeps the records whose metadata field key equals value. If
// exclude is set it drops them instead. Ack ids are kept even if all
// records are filtered out.
type Filter struct {
	stage
	key     string
	value   string
	exclude bool
}

func NewFilter(cfg processor.Config) (processor.Stage, error) {
	key, err := getConfigFieldString(cfg, filterConfigKey)
	if err != nil {
		return nil, cerrors.Errorf("%s: %w", filterType, err)
	}
	exclude, err := getConfigFieldBool(cfg, filterConfigExclude, false)
	if err != nil {
		return nil, cerrors.Errorf("%s: %w", filterType, err)
	}
	return &Filter{
		stage:   stage{name: cfg.Name},
		key:     key,
		value:   cfg.Settings[filterConfigValue],
		exclude: exclude,
	}, nil
}

func (f *Filter) Process(_ context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	m, ok := sig.(chain.Messages[record.Batch])
	if !ok {
		return nil
	}

	out := record.Batch{AckIDs: m.Batch.AckIDs}
	for _, r := range m.Batch.Records {
		if f.match(r) != f.exclude {
			out.Records = append(out.Records, r)
		}
	}
	return effects.SendMessage(out)
}

func (f *Filter) match(r opencdc.Record) bool {
	v, ok := r.Metadata[f.key]
	return ok && v == f.value
}
