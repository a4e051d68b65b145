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

package builtin

import (
	"context"

	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/conduitio/conduit-flow/pkg/record"
)

const ackAllType = "ack"

func init() {
	processor.GlobalBuilderRegistry.MustRegister(ackAllType, NewAckAll)
}

// AckAll acks every tracked batch that reaches it and forwards the records
// untracked, so that later stages and exporters don't ack them again.
type AckAll struct {
	stage
}

func NewAckAll(cfg processor.Config) (processor.Stage, error) {
	return &AckAll{stage: stage{name: cfg.Name}}, nil
}

func (*AckAll) Process(_ context.Context, sig chain.Signal, effects *chain.EffectHandler[record.Batch]) error {
	m, ok := sig.(chain.Messages[record.Batch])
	if !ok {
		return nil
	}
	for _, id := range m.Batch.AckIDs {
		if err := effects.SendAck(id); err != nil {
			return err
		}
	}
	return effects.SendMessage(record.Batch{Records: m.Batch.Records})
}
