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

package chain_test

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
)

// testBatch is a batch of strings that counts how often it was cloned.
type testBatch struct {
	Items []string

	cloned bool
	clones *atomic.Int32
}

func newTestBatch(clones *atomic.Int32, items ...string) testBatch {
	return testBatch{Items: items, clones: clones}
}

func (b testBatch) Clone() testBatch {
	if b.clones != nil {
		b.clones.Add(1)
	}
	return testBatch{Items: slices.Clone(b.Items), cloned: true, clones: b.clones}
}

func (b testBatch) Merge(other testBatch) testBatch {
	clones := b.clones
	if clones == nil {
		clones = other.clones
	}
	return testBatch{
		Items:  append(slices.Clone(b.Items), other.Items...),
		cloned: b.cloned || other.cloned,
		clones: clones,
	}
}

// funcStage is a stage assembled from functions, nil functions succeed.
type funcStage struct {
	name    string
	init    func(*chain.Configurator) error
	process func(context.Context, chain.Signal, *chain.EffectHandler[testBatch]) error
	stop    func(context.Context) error

	processed atomic.Int32
}

func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Init(cfg *chain.Configurator) error {
	if s.init == nil {
		return nil
	}
	return s.init(cfg)
}

func (s *funcStage) Process(ctx context.Context, sig chain.Signal, h *chain.EffectHandler[testBatch]) error {
	s.processed.Add(1)
	if s.process == nil {
		return nil
	}
	return s.process(ctx, sig, h)
}

func (s *funcStage) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	return s.stop(ctx)
}

func passthrough(name string) *funcStage {
	return &funcStage{
		name: name,
		process: func(_ context.Context, sig chain.Signal, h *chain.EffectHandler[testBatch]) error {
			if m, ok := sig.(chain.Messages[testBatch]); ok {
				return h.SendMessage(m.Batch)
			}
			return nil
		},
	}
}

func dropAll(name string) *funcStage {
	return &funcStage{name: name}
}

func upper(name string) *funcStage {
	return &funcStage{
		name: name,
		process: func(_ context.Context, sig chain.Signal, h *chain.EffectHandler[testBatch]) error {
			m := sig.(chain.Messages[testBatch])
			out := m.Batch
			out.Items = slices.Clone(out.Items)
			for i, v := range out.Items {
				out.Items[i] = strings.ToUpper(v)
			}
			return h.SendMessage(out)
		},
	}
}

// dropPrefix emits only items that do not start with prefix, split into one
// effect per item so the effects get merged.
func dropPrefix(name, prefix string) *funcStage {
	return &funcStage{
		name: name,
		process: func(_ context.Context, sig chain.Signal, h *chain.EffectHandler[testBatch]) error {
			m := sig.(chain.Messages[testBatch])
			for _, v := range m.Batch.Items {
				if strings.HasPrefix(v, prefix) {
					continue
				}
				if err := h.SendMessage(testBatch{Items: []string{v}}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// buffer collects batches and emits them merged on every timer tick.
func buffer(name string, period time.Duration) *funcStage {
	var buf []testBatch
	return &funcStage{
		name: name,
		init: func(cfg *chain.Configurator) error {
			return cfg.SetTimer(period)
		},
		process: func(_ context.Context, sig chain.Signal, h *chain.EffectHandler[testBatch]) error {
			switch s := sig.(type) {
			case chain.Messages[testBatch]:
				if len(s.Batch.Items) > 0 {
					buf = append(buf, s.Batch)
				}
			case chain.TimerTick:
				for _, b := range buf {
					if err := h.SendMessage(b); err != nil {
						return err
					}
				}
				buf = nil
			}
			return nil
		},
	}
}
