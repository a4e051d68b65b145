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

// Package record contains the batch type moved through pipelines.
package record

import (
	"slices"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/pipeline/ack"
)

// Batch is a collection of OpenCDC records. AckIDs holds the ids of the
// tracked batches whose records it contains, a batch built by merging
// several tracked batches carries all their ids.
type Batch struct {
	Records []opencdc.Record
	AckIDs  []uint64
}

func NewBatch(records ...opencdc.Record) Batch {
	return Batch{Records: records}
}

func (b Batch) Len() int {
	return len(b.Records)
}

// Clone returns a deep copy of the batch.
func (b Batch) Clone() Batch {
	var records []opencdc.Record
	if b.Records != nil {
		records = make([]opencdc.Record, len(b.Records))
		for i, r := range b.Records {
			records[i] = r.Clone()
		}
	}
	return Batch{
		Records: records,
		AckIDs:  slices.Clone(b.AckIDs),
	}
}

// Merge returns a batch with the records and ack ids of b followed by those
// of other. Neither b nor other is modified.
func (b Batch) Merge(other Batch) Batch {
	return Batch{
		Records: slices.Concat(b.Records, other.Records),
		AckIDs:  slices.Concat(b.AckIDs, other.AckIDs),
	}
}

// Attach stores the ack token in the batch.
func Attach(b Batch, t ack.Token) Batch {
	b.AckIDs = append(slices.Clone(b.AckIDs), t.ID())
	return b
}
