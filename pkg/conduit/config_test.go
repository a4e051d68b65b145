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
	"strings"
	"testing"
	"time"

	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
)

func TestConfig_Validate(t *testing.T) {
	is := is.New(t)

	testCases := []struct {
		name        string
		setupConfig func(Config) Config
		want        error
	}{{
		name: "valid",
		setupConfig: func(c Config) Config {
			return c
		},
		want: nil,
	}, {
		name: "required Log level",
		setupConfig: func(c Config) Config {
			c.Log.Level = ""
			return c
		},
		want: requiredConfigFieldErr("log.level"),
	}, {
		name: "invalid Log level (invalid)",
		setupConfig: func(c Config) Config {
			c.Log.Level = "who"
			return c
		},
		want: invalidConfigFieldErr("log.level"),
	}, {
		name: "required Log format",
		setupConfig: func(c Config) Config {
			c.Log.Format = ""
			return c
		},
		want: requiredConfigFieldErr("log.format"),
	}, {
		name: "invalid Log format (invalid)",
		setupConfig: func(c Config) Config {
			c.Log.Format = "someFormat"
			return c
		},
		want: invalidConfigFieldErr("log.format"),
	}, {
		name: "required metrics address",
		setupConfig: func(c Config) Config {
			c.Metrics.HTTP.Address = ""
			return c
		},
		want: requiredConfigFieldErr("metrics.http.address"),
	}, {
		name: "disabled metrics valid",
		setupConfig: func(c Config) Config {
			c.Metrics.Enabled = false
			c.Metrics.HTTP.Address = ""
			return c
		},
		want: nil,
	}, {
		name: "required pipeline ID",
		setupConfig: func(c Config) Config {
			c.Pipeline.ID = ""
			return c
		},
		want: requiredConfigFieldErr("pipeline.id"),
	}, {
		name: "invalid chains",
		setupConfig: func(c Config) Config {
			c.Pipeline.Chains = 0
			return c
		},
		want: invalidConfigFieldErr("pipeline.chains"),
	}, {
		name: "required channel mode",
		setupConfig: func(c Config) Config {
			c.Pipeline.ChannelMode = ""
			return c
		},
		want: requiredConfigFieldErr("pipeline.channel-mode"),
	}, {
		name: "invalid channel mode (local)",
		setupConfig: func(c Config) Config {
			c.Pipeline.ChannelMode = "local"
			return c
		},
		want: invalidConfigFieldErr("pipeline.channel-mode"),
	}, {
		name: "invalid channel capacity",
		setupConfig: func(c Config) Config {
			c.Pipeline.ChannelCapacity = 0
			return c
		},
		want: invalidConfigFieldErr("pipeline.channel-capacity"),
	}, {
		name: "invalid ack capacity",
		setupConfig: func(c Config) Config {
			c.Pipeline.AckCapacity = -1
			return c
		},
		want: invalidConfigFieldErr("pipeline.ack-capacity"),
	}, {
		name: "invalid max in flight",
		setupConfig: func(c Config) Config {
			c.Pipeline.MaxInFlight = 0
			return c
		},
		want: invalidConfigFieldErr("pipeline.max-in-flight"),
	}, {
		name: "invalid drain timeout",
		setupConfig: func(c Config) Config {
			c.Pipeline.DrainTimeout = -time.Second
			return c
		},
		want: invalidConfigFieldErr("pipeline.drain-timeout"),
	}, {
		name: "required stage type",
		setupConfig: func(c Config) Config {
			c.Pipeline.Stages = []processor.Config{{Name: "nameless"}}
			return c
		},
		want: requiredConfigFieldErr("pipeline.stages.type"),
	}, {
		name: "invalid generator batch size",
		setupConfig: func(c Config) Config {
			c.Generator.BatchSize = 0
			return c
		},
		want: invalidConfigFieldErr("generator.batch-size"),
	}, {
		name: "disabled generator valid",
		setupConfig: func(c Config) Config {
			c.Generator.Enabled = false
			c.Generator.BatchSize = 0
			return c
		},
		want: nil,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			underTest := tc.setupConfig(DefaultConfig())
			got := underTest.Validate()
			if got == nil {
				is.True(tc.want == nil)
			} else {
				is.Equal(tc.want.Error(), got.Error())
			}
		})
	}
}

func TestLoad(t *testing.T) {
	is := is.New(t)

	in := `
log:
  level: debug
pipeline:
  id: edge
  chains: 3
  drain-timeout: 250ms
  stages:
    - type: filter
      name: only-eu
      settings:
        key: region
        value: eu
    - type: passthrough
generator:
  enabled: false
`
	got, err := Load(strings.NewReader(in), DefaultConfig())
	is.NoErr(err)

	want := DefaultConfig()
	want.Log.Level = "debug"
	want.Pipeline.ID = "edge"
	want.Pipeline.Chains = 3
	want.Pipeline.DrainTimeout = 250 * time.Millisecond
	want.Pipeline.Stages = []processor.Config{
		{Type: "filter", Name: "only-eu", Settings: map[string]string{"key": "region", "value": "eu"}},
		{Type: "passthrough"},
	}
	want.Generator.Enabled = false

	opt := cmp.Comparer(func(a, b *processor.BuilderRegistry) bool { return a == b })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("loaded config mismatch (-want +got):\n%s", diff)
	}
	is.NoErr(got.Validate())
}

func TestLoad_Empty(t *testing.T) {
	is := is.New(t)

	got, err := Load(strings.NewReader(""), DefaultConfig())
	is.NoErr(err)
	is.Equal(got.Pipeline.ID, DefaultConfig().Pipeline.ID)
}

func TestLoad_UnknownField(t *testing.T) {
	is := is.New(t)

	_, err := Load(strings.NewReader("pipeline:\n  workers: 3\n"), DefaultConfig())
	is.True(err != nil)
}

func TestLoadFile_NotFound(t *testing.T) {
	is := is.New(t)

	_, err := LoadFile(t.TempDir()+"/missing.yaml", DefaultConfig())
	is.True(err != nil)
}
