// Copyright © 2024 Meroxa, Inc.
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

package processor

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/record"
)

// condition is a Go template evaluated against a record, the output must
// parse as a boolean.
type condition struct {
	tmpl *template.Template
}

// newCondition parses the template. It returns nil if the condition is empty.
func newCondition(text string) (*condition, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	tmpl, err := template.New("").Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return nil, err
	}
	return &condition{tmpl: tmpl}, nil
}

func (c *condition) Evaluate(r opencdc.Record) (bool, error) {
	var b bytes.Buffer
	err := c.tmpl.Execute(&b, r)
	if err != nil {
		return false, err
	}
	output, err := strconv.ParseBool(b.String())
	if err != nil {
		return false, cerrors.Errorf("error converting the condition output to boolean: %w", err)
	}
	return output, nil
}

// conditionalStage runs the wrapped stage only on the records matching the
// condition. The other records are forwarded after the output of the
// wrapped stage. Ack ids stay with the matching records if there are any.
type conditionalStage struct {
	Stage
	cond *condition
}

func (s *conditionalStage) Process(ctx context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	m, ok := sig.(chain.Messages[record.Batch])
	if !ok {
		return s.Stage.Process(ctx, sig, effects)
	}

	var matched, skipped record.Batch
	for _, r := range m.Batch.Records {
		ok, err := s.cond.Evaluate(r)
		if err != nil {
			return cerrors.Errorf("condition on record %s: %w", r.Position, err)
		}
		if ok {
			matched.Records = append(matched.Records, r)
		} else {
			skipped.Records = append(skipped.Records, r)
		}
	}
	if len(matched.Records) > 0 {
		matched.AckIDs = m.Batch.AckIDs
	} else {
		skipped.AckIDs = m.Batch.AckIDs
	}

	if len(matched.Records) > 0 {
		err := s.Stage.Process(ctx, chain.Messages[record.Batch]{Batch: matched}, effects)
		if err != nil {
			return err
		}
	}
	if len(skipped.Records) > 0 || len(skipped.AckIDs) > 0 {
		return effects.SendMessage(skipped)
	}
	return nil
}
