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

package channel

import (
	"github.com/conduitio/conduit-flow/pkg/foundation/metrics"
	"github.com/conduitio/conduit-flow/pkg/telemetry"
)

const (
	endpointSender   = "sender"
	endpointReceiver = "receiver"
)

// Metrics is the set of labeled counters shared by all channels wired
// against the same registry. Create it once per registry and pass it to Wire.
type Metrics struct {
	sent     metrics.LabeledCounter
	received metrics.LabeledCounter
	full     metrics.LabeledCounter
	empty    metrics.LabeledCounter
	closed   metrics.LabeledCounter
}

func NewMetrics(reg metrics.Registry) *Metrics {
	return &Metrics{
		sent: reg.NewLabeledCounter(
			"flow_channel_sent_total",
			"Number of items sent on a channel.",
			[]string{"channel_id"},
		),
		received: reg.NewLabeledCounter(
			"flow_channel_received_total",
			"Number of items received from a channel.",
			[]string{"channel_id"},
		),
		full: reg.NewLabeledCounter(
			"flow_channel_full_total",
			"Number of non-blocking sends rejected because the channel was full.",
			[]string{"channel_id"},
		),
		empty: reg.NewLabeledCounter(
			"flow_channel_empty_total",
			"Number of non-blocking receives that found the channel empty.",
			[]string{"channel_id"},
		),
		closed: reg.NewLabeledCounter(
			"flow_channel_closed_total",
			"Number of operations that failed because the channel was closed, by endpoint.",
			[]string{"channel_id", "endpoint"},
		),
	}
}

// Sender returns a fresh metric set for the sending half of channel key.
func (m *Metrics) Sender(key telemetry.EntityKey) *SenderMetrics {
	return &SenderMetrics{
		Key:    key,
		Sent:   m.sent.WithValues(string(key)),
		Full:   m.full.WithValues(string(key)),
		Closed: m.closed.WithValues(string(key), endpointSender),
	}
}

// Receiver returns a fresh metric set for the receiving half of channel key.
func (m *Metrics) Receiver(key telemetry.EntityKey) *ReceiverMetrics {
	return &ReceiverMetrics{
		Key:      key,
		Received: m.received.WithValues(string(key)),
		Empty:    m.empty.WithValues(string(key)),
		Closed:   m.closed.WithValues(string(key), endpointReceiver),
	}
}

// SenderMetrics counts the outcomes of send operations.
type SenderMetrics struct {
	Key    telemetry.EntityKey
	Sent   metrics.Counter
	Full   metrics.Counter
	Closed metrics.Counter
}

// ReceiverMetrics counts the outcomes of receive operations.
type ReceiverMetrics struct {
	Key      telemetry.EntityKey
	Received metrics.Counter
	Empty    metrics.Counter
	Closed   metrics.Counter
}

// observe records the outcome of a send. A nil receiver records nothing,
// which is the raw endpoint case.
func (m *SenderMetrics) observe(err error) {
	if m == nil {
		return
	}
	switch err {
	case nil:
		m.Sent.Inc()
	case ErrFull:
		m.Full.Inc()
	case ErrClosed:
		m.Closed.Inc()
	}
}

func (m *ReceiverMetrics) observe(err error) {
	if m == nil {
		return
	}
	switch err {
	case nil:
		m.Received.Inc()
	case ErrEmpty:
		m.Empty.Inc()
	case ErrClosed:
		m.Closed.Inc()
	}
}
