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
	"context"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/record"
)

type recordDataGetSetter interface {
	Get(opencdc.Record) opencdc.Data
	Set(opencdc.Record, opencdc.Data) opencdc.Record
}

type recordKeyGetSetter struct{}

func (recordKeyGetSetter) Get(r opencdc.Record) opencdc.Data {
	return r.Key
}

func (recordKeyGetSetter) Set(r opencdc.Record, d opencdc.Data) opencdc.Record {
	r.Key = d
	return r
}

type recordPayloadGetSetter struct{}

func (recordPayloadGetSetter) Get(r opencdc.Record) opencdc.Data {
	return r.Payload.After
}

func (recordPayloadGetSetter) Set(r opencdc.Record, d opencdc.Data) opencdc.Record {
	r.Payload.After = d
	return r
}

// recordFunc is a stage applying fn to every record of a batch before
// forwarding it. An error returned by fn aborts the chain.
type recordFunc struct {
	stage
	fn func(opencdc.Record) (opencdc.Record, error)
}

func (s *recordFunc) Process(_ context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	m, ok := sig.(chain.Messages[record.Batch])
	if !ok {
		return nil
	}

	b := m.Batch
	for i, r := range b.Records {
		out, err := s.fn(r)
		if err != nil {
			return cerrors.Errorf("record %s: %w", r.Position, err)
		}
		b.Records[i] = out
	}
	return effects.SendMessage(b)
}

// structuredData returns the data as structured data. Empty data is
// returned as an empty map, raw data is not supported.
func structuredData(transformName string, data opencdc.Data) (opencdc.StructuredData, error) {
	switch d := data.(type) {
	case nil:
		return opencdc.StructuredData{}, nil
	case opencdc.StructuredData:
		if d == nil {
			return opencdc.StructuredData{}, nil
		}
		return d, nil
	case opencdc.RawData:
		return nil, cerrors.Errorf("%s: raw data not supported", transformName)
	default:
		return nil, cerrors.Errorf("%s: unexpected data type %T", transformName, data)
	}
}
