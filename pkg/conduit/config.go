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

package conduit

import (
	"runtime"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/lifecycle"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/rs/zerolog"
)

type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		HTTP    struct {
			Address string `yaml:"address"`
		} `yaml:"http"`
	} `yaml:"metrics"`

	Pipeline struct {
		ID string `yaml:"id"`
		// Chains is the number of chains, defaults to one per core.
		Chains int `yaml:"chains"`
		// ChannelMode selects the channel implementation between pipeline
		// components. Components run on different goroutines, only the
		// shared mode is supported.
		ChannelMode     string             `yaml:"channel-mode"`
		ChannelCapacity int                `yaml:"channel-capacity"`
		AckCapacity     int                `yaml:"ack-capacity"`
		MaxInFlight     int                `yaml:"max-in-flight"`
		DrainTimeout    time.Duration      `yaml:"drain-timeout"`
		Stages          []processor.Config `yaml:"stages"`
	} `yaml:"pipeline"`

	Generator struct {
		Enabled   bool          `yaml:"enabled"`
		BatchSize int           `yaml:"batch-size"`
		Interval  time.Duration `yaml:"interval"`
		// Batches is the number of batches to generate, 0 means unlimited.
		Batches int `yaml:"batches"`
	} `yaml:"generator"`

	ProcessorBuilderRegistry *processor.BuilderRegistry `yaml:"-"`
}

func DefaultConfig() Config {
	var cfg Config
	cfg.Log.Level = "info"
	cfg.Log.Format = "cli"
	cfg.Metrics.Enabled = true
	cfg.Metrics.HTTP.Address = ":8080"
	cfg.Pipeline.ID = "default"
	cfg.Pipeline.Chains = runtime.NumCPU()
	cfg.Pipeline.ChannelMode = channel.ModeShared
	cfg.Pipeline.ChannelCapacity = 64
	cfg.Pipeline.AckCapacity = 1024
	cfg.Pipeline.MaxInFlight = 128
	cfg.Pipeline.DrainTimeout = 5 * time.Second
	cfg.Pipeline.Stages = []processor.Config{{Type: "passthrough"}}
	cfg.Generator.Enabled = true
	cfg.Generator.BatchSize = 10
	cfg.Generator.Interval = time.Second

	cfg.ProcessorBuilderRegistry = processor.GlobalBuilderRegistry
	return cfg
}

func (c Config) Validate() error {
	if c.Log.Level == "" {
		return requiredConfigFieldErr("log.level")
	}
	_, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return invalidConfigFieldErr("log.level")
	}

	if c.Log.Format == "" {
		return requiredConfigFieldErr("log.format")
	}
	_, err = log.ParseFormat(c.Log.Format)
	if err != nil {
		return invalidConfigFieldErr("log.format")
	}

	if c.Metrics.Enabled && c.Metrics.HTTP.Address == "" {
		return requiredConfigFieldErr("metrics.http.address")
	}

	if c.Pipeline.ID == "" {
		return requiredConfigFieldErr("pipeline.id")
	}
	if c.Pipeline.Chains < 1 {
		return invalidConfigFieldErr("pipeline.chains")
	}
	switch c.Pipeline.ChannelMode {
	case "":
		return requiredConfigFieldErr("pipeline.channel-mode")
	case channel.ModeShared:
		// all good
	default:
		return invalidConfigFieldErr("pipeline.channel-mode")
	}
	if c.Pipeline.ChannelCapacity < 1 {
		return invalidConfigFieldErr("pipeline.channel-capacity")
	}
	if c.Pipeline.AckCapacity < 1 {
		return invalidConfigFieldErr("pipeline.ack-capacity")
	}
	if c.Pipeline.MaxInFlight < 1 {
		return invalidConfigFieldErr("pipeline.max-in-flight")
	}
	if c.Pipeline.DrainTimeout < 0 {
		return invalidConfigFieldErr("pipeline.drain-timeout")
	}
	for _, st := range c.Pipeline.Stages {
		if st.Type == "" {
			return requiredConfigFieldErr("pipeline.stages.type")
		}
	}

	if c.Generator.Enabled {
		if c.Generator.BatchSize < 1 {
			return invalidConfigFieldErr("generator.batch-size")
		}
		if c.Generator.Interval < 0 {
			return invalidConfigFieldErr("generator.interval")
		}
		if c.Generator.Batches < 0 {
			return invalidConfigFieldErr("generator.batches")
		}
	}

	return nil
}

// LifecycleConfig returns the configuration of the pipeline.
func (c Config) LifecycleConfig() lifecycle.Config {
	return lifecycle.Config{
		ID:              c.Pipeline.ID,
		Chains:          c.Pipeline.Chains,
		ChannelCapacity: c.Pipeline.ChannelCapacity,
		AckCapacity:     c.Pipeline.AckCapacity,
		MaxInFlight:     c.Pipeline.MaxInFlight,
		DrainTimeout:    c.Pipeline.DrainTimeout,
		Stages:          c.Pipeline.Stages,
	}
}

func invalidConfigFieldErr(name string) error {
	return cerrors.Errorf("%q config value is invalid", name)
}

func requiredConfigFieldErr(name string) error {
	return cerrors.Errorf("%q config value is required", name)
}
