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
	"github.com/conduitio/conduit-flow/pkg/foundation/metrics"
)

// Metrics holds the metrics of all executors created against one registry.
type Metrics struct {
	processDuration metrics.LabeledTimer
	signals         metrics.LabeledCounter
	sendFailures    metrics.LabeledCounter
}

func NewMetrics(reg metrics.Registry) *Metrics {
	return &Metrics{
		processDuration: reg.NewLabeledTimer(
			"flow_chain_stage_process_duration_seconds",
			"Time spent by a stage processing a single signal.",
			[]string{"chain_id", "stage"},
		),
		signals: reg.NewLabeledCounter(
			"flow_chain_signals_total",
			"Number of signals processed by a chain, by signal type.",
			[]string{"chain_id", "signal"},
		),
		sendFailures: reg.NewLabeledCounter(
			"flow_chain_send_failures_total",
			"Number of batches that could not be sent to a downstream destination.",
			[]string{"chain_id", "destination"},
		),
	}
}
