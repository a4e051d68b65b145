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
	"fmt"
	"sort"
	"strings"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
)

var (
	// ErrNoRoute is returned by EffectHandler.SendMessage if the chain has no
	// downstream destination.
	ErrNoRoute = cerrors.New("no downstream route")
	// ErrUnsupportedSignal is returned if the executor receives a signal it
	// can not interpret.
	ErrUnsupportedSignal = cerrors.New("unsupported signal")
)

// StageError is returned when a stage fails to initialize or to process a
// signal.
type StageError struct {
	Stage string
	// Op is either "init" or "process".
	Op      string
	Context map[string]any
	Err     error
}

func (e *StageError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "stage %q %s failed", e.Stage, e.Op)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Context[k])
		}
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func unsupportedSignal(sig Signal) error {
	name := "<nil>"
	if sig != nil {
		name = sig.SignalName()
	}
	return cerrors.Errorf("signal %s (%T): %w", name, sig, ErrUnsupportedSignal)
}
