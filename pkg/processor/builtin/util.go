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

package builtin

import (
	"strconv"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/processor"
)

var errEmptyConfigField = cerrors.New("empty config field")

func getConfigFieldString(c processor.Config, field string) (string, error) {
	val, ok := c.Settings[field]
	if !ok || val == "" {
		return "", cerrors.Errorf("failed to retrieve config field %q: %w", field, errEmptyConfigField)
	}
	return val, nil
}

func getConfigFieldBool(c processor.Config, field string, def bool) (bool, error) {
	raw, ok := c.Settings[field]
	if !ok || raw == "" {
		return def, nil
	}

	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, cerrors.Errorf("failed to parse %q as bool: %w", field, err)
	}

	return parsed, nil
}

func getConfigFieldDuration(c processor.Config, field string) (time.Duration, error) {
	raw, err := getConfigFieldString(c, field)
	if err != nil {
		return 0, err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, cerrors.Errorf("failed to parse %q as time.Duration: %w", field, err)
	}
	if parsed <= 0 {
		return 0, cerrors.Errorf("%q must be positive, got %v", field, parsed)
	}

	return parsed, nil
}
