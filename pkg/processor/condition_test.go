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
	"context"
	"testing"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/record"
	"github.com/matryer/is"
)

// markStage tags every record it sees and forwards the batch.
type markStage struct {
	name string
}

func (s *markStage) Name() string                   { return s.name }
func (s *markStage) Init(*chain.Configurator) error { return nil }
func (s *markStage) Stop(context.Context) error     { return nil }

func (s *markStage) Process(_ context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	m, ok := sig.(chain.Messages[record.Batch])
	if !ok {
		return nil
	}
	for _, r := range m.Batch.Records {
		r.Metadata["marked"] = "true"
	}
	return effects.SendMessage(m.Batch)
}

func testRecords(regions ...string) record.Batch {
	var b record.Batch
	for i, region := range regions {
		b.Records = append(b.Records, opencdc.Record{
			Position: opencdc.Position([]byte{byte('a' + i)}),
			Metadata: opencdc.Metadata{"region": region},
		})
	}
	return b
}

func Test_Condition_InvalidTemplate(t *testing.T) {
	is := is.New(t)
	cond, err := newCondition(`{{ Im not a valid template }}`)
	is.True(err != nil)
	is.Equal(cond, nil)
}

func Test_Condition_Empty(t *testing.T) {
	is := is.New(t)
	cond, err := newCondition("  ")
	is.NoErr(err)
	is.Equal(cond, nil)
}

func Test_Condition_Evaluate(t *testing.T) {
	testCases := []struct {
		name    string
		cond    string
		want    bool
		wantErr bool
	}{
		{name: "true", cond: `{{ eq .Metadata.key "val" }}`, want: true},
		{name: "false", cond: `{{ eq .Metadata.key "wrongVal" }}`, want: false},
		{name: "sprig", cond: `{{ hasPrefix "v" .Metadata.key }}`, want: true},
		{name: "non boolean output", cond: `{{ printf "hi" }}`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			rec := opencdc.Record{
				Position: opencdc.Position("position-out"),
				Metadata: opencdc.Metadata{"key": "val"},
			}
			cond, err := newCondition(tc.cond)
			is.NoErr(err)

			got, err := cond.Evaluate(rec)
			is.Equal(err != nil, tc.wantErr)
			is.Equal(got, tc.want)
		})
	}
}

func TestConditionalStage(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	cond, err := newCondition(`{{ eq .Metadata.region "eu" }}`)
	is.NoErr(err)
	st := &conditionalStage{Stage: &markStage{name: "mark"}, cond: cond}
	is.Equal(st.Name(), "mark")

	in := testRecords("eu", "us", "eu")
	in.AckIDs = []uint64{7}

	h := chain.NewEffectHandler[record.Batch](true, nil)
	is.NoErr(st.Process(ctx, chain.Messages[record.Batch]{Batch: in}, h))
	got := h.ExecuteEffects()

	// matching records first, the rest after
	is.Equal(got.Len(), 3)
	is.Equal(string(got.Records[0].Position), "a")
	is.Equal(string(got.Records[1].Position), "c")
	is.Equal(string(got.Records[2].Position), "b")
	is.Equal(got.Records[0].Metadata["marked"], "true")
	is.Equal(got.Records[1].Metadata["marked"], "true")
	_, marked := got.Records[2].Metadata["marked"]
	is.True(!marked)
	is.Equal(got.AckIDs, []uint64{7})
}

func TestConditionalStage_NoMatchKeepsAckIDs(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	cond, err := newCondition(`{{ eq .Metadata.region "eu" }}`)
	is.NoErr(err)
	st := &conditionalStage{Stage: &markStage{name: "mark"}, cond: cond}

	in := testRecords("us")
	in.AckIDs = []uint64{1, 2}

	h := chain.NewEffectHandler[record.Batch](true, nil)
	is.NoErr(st.Process(ctx, chain.Messages[record.Batch]{Batch: in}, h))
	got := h.ExecuteEffects()
	is.Equal(got.Len(), 1)
	is.Equal(got.AckIDs, []uint64{1, 2})
}

func TestConditionalStage_EvaluationError(t *testing.T) {
	is := is.New(t)

	cond, err := newCondition(`{{ printf "maybe" }}`)
	is.NoErr(err)
	st := &conditionalStage{Stage: &markStage{name: "mark"}, cond: cond}

	h := chain.NewEffectHandler[record.Batch](true, nil)
	err = st.Process(context.Background(), chain.Messages[record.Batch]{Batch: testRecords("eu")}, h)
	is.True(err != nil)
}
