// Copyright © 2022 Meroxa, Inc.
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

// Package processor holds the builders of the stages that can be configured
// in a pipeline.
package processor

import (
	"slices"
	"sync"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/record"
)

// Stage is a chain stage operating on record batches.
type Stage = chain.Stage[record.Batch]

// Config describes a stage in a pipeline configuration.
type Config struct {
	// Type is the name the stage builder is registered under.
	Type string `yaml:"type"`
	// Name identifies the stage instance, defaults to Type.
	Name     string            `yaml:"name"`
	Settings map[string]string `yaml:"settings"`
	// Condition is a Go template, the stage only processes records for
	// which it evaluates to true.
	Condition string `yaml:"condition"`
}

// GlobalBuilderRegistry is a global registry of stage builders. It should be
// treated as a read only variable.
var GlobalBuilderRegistry = NewBuilderRegistry()

// Builder parses the config and if valid returns a stage, an error otherwise.
type Builder func(Config) (Stage, error)

// BuilderRegistry is a registry for registering or looking up stage
// builders. The Register and Get methods are safe for concurrent use.
type BuilderRegistry struct {
	builders map[string]Builder

	lock sync.RWMutex
}

// NewBuilderRegistry returns an empty *BuilderRegistry.
func NewBuilderRegistry() *BuilderRegistry {
	return &BuilderRegistry{
		builders: make(map[string]Builder),
	}
}

// MustRegister tries to register a builder and panics on error.
func (r *BuilderRegistry) MustRegister(typ string, b Builder) {
	err := r.Register(typ, b)
	if err != nil {
		panic(cerrors.Errorf("register stage builder failed: %w", err))
	}
}

// Register registers a stage builder under the specified type.
// If a builder is already registered under that type it returns an error.
func (r *BuilderRegistry) Register(typ string, b Builder) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.builders[typ]; ok {
		return cerrors.Errorf("stage builder %q already registered", typ)
	}
	r.builders[typ] = b

	return nil
}

// Get returns the stage builder registered under the specified type.
// If no builder is registered under that type it returns an error.
func (r *BuilderRegistry) Get(typ string) (Builder, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	b, ok := r.builders[typ]
	if !ok {
		return nil, cerrors.Errorf("stage builder %q not found", typ)
	}

	return b, nil
}

// Types returns the registered stage types in alphabetical order.
func (r *BuilderRegistry) Types() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	types := make([]string, 0, len(r.builders))
	for typ := range r.builders {
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// Build creates a fresh instance of every configured stage, in order.
func (r *BuilderRegistry) Build(configs []Config) ([]Stage, error) {
	stages := make([]Stage, 0, len(configs))
	for i, cfg := range configs {
		b, err := r.Get(cfg.Type)
		if err != nil {
			return nil, cerrors.Errorf("stage %d: %w", i, err)
		}
		if cfg.Name == "" {
			cfg.Name = cfg.Type
		}
		st, err := b(cfg)
		if err != nil {
			return nil, cerrors.Errorf("stage %d (%s): %w", i, cfg.Name, err)
		}
		cond, err := newCondition(cfg.Condition)
		if err != nil {
			return nil, cerrors.Errorf("stage %d (%s): invalid condition: %w", i, cfg.Name, err)
		}
		if cond != nil {
			st = &conditionalStage{Stage: st, cond: cond}
		}
		stages = append(stages, st)
	}
	return stages, nil
}
