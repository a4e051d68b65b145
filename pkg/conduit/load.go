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

package conduit

import (
	"io"
	"os"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/yaml/v3"
)

// LoadFile reads a YAML configuration file and applies it on top of cfg.
// Fields missing in the file keep their value from cfg.
func LoadFile(path string, cfg Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, cerrors.Errorf("could not open config file: %w", err)
	}
	defer f.Close()

	cfg, err = Load(f, cfg)
	if err != nil {
		return Config{}, cerrors.Errorf("could not load config file %q: %w", path, err)
	}
	return cfg, nil
}

// Load decodes a YAML configuration from r and applies it on top of cfg.
// Unknown fields are rejected.
func Load(r io.Reader, cfg Config) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&cfg)
	if err != nil {
		// an empty document leaves the configuration untouched
		if cerrors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, cerrors.Errorf("parsing error: %w", err)
	}
	return cfg, nil
}
