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
	"context"
	"testing"

	"github.com/conduitio/conduit-flow/pkg/foundation/metrics/prometheus"
	"github.com/conduitio/conduit-flow/pkg/telemetry"
	"github.com/matryer/is"
	promclient "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// counterValue gathers reg and returns the value of the counter with the
// given name and label values, or 0 if it was never observed.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	is := is.New(t)

	pr := promclient.NewRegistry()
	is.NoErr(pr.Register(reg))
	families, err := pr.Gather()
	is.NoErr(err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != want {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func TestWire_Local(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	reg := prometheus.NewRegistry(nil)
	entities := telemetry.NewEntities()
	opts := WireOptions{
		Name:     "a->b",
		Entities: entities,
		Metrics:  NewMetrics(reg),
	}

	s, r := LocalMode[int]{}.New(1)
	s, r, key := Wire[int](LocalMode[int]{}, s, r, opts)
	is.True(key != "")

	desc, ok := entities.Channel(key)
	is.True(ok)
	is.Equal(desc, telemetry.ChannelDescriptor{
		Name:     "a->b",
		Kind:     telemetry.ChannelKindData,
		Mode:     ModeLocal,
		Capacity: 1,
	})

	is.NoErr(s.Send(ctx, 1))
	is.Equal(s.TrySend(2), ErrFull)
	_, err := r.Recv(ctx)
	is.NoErr(err)
	_, err = r.TryRecv()
	is.Equal(err, ErrEmpty)
	s.Close()
	_, err = r.Recv(ctx)
	is.Equal(err, ErrClosed)

	id := string(key)
	is.Equal(counterValue(t, reg, "flow_channel_sent_total", map[string]string{"channel_id": id}), 1.0)
	is.Equal(counterValue(t, reg, "flow_channel_full_total", map[string]string{"channel_id": id}), 1.0)
	is.Equal(counterValue(t, reg, "flow_channel_received_total", map[string]string{"channel_id": id}), 1.0)
	is.Equal(counterValue(t, reg, "flow_channel_empty_total", map[string]string{"channel_id": id}), 1.0)
	is.Equal(counterValue(t, reg, "flow_channel_closed_total", map[string]string{"channel_id": id, "endpoint": endpointReceiver}), 1.0)
}

func TestWire_Idempotent(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	reg := prometheus.NewRegistry(nil)
	entities := telemetry.NewEntities()
	opts := WireOptions{Name: "a->b", Entities: entities, Metrics: NewMetrics(reg)}
	mode := SharedMode[int]{}

	s, r := mode.New(4)
	s, r, key := Wire[int](mode, s, r, opts)
	is.True(key != "")

	// wiring again must not register or instrument a second time
	s2, r2, key2 := Wire[int](mode, s, r, opts)
	is.Equal(key2, telemetry.EntityKey(""))
	is.Equal(s2, s)
	is.Equal(r2, r)
	is.Equal(len(entities.Channels()), 1)

	is.NoErr(s2.Send(ctx, 1))
	_, err := r2.Recv(ctx)
	is.NoErr(err)

	labels := map[string]string{"channel_id": string(key)}
	is.Equal(counterValue(t, reg, "flow_channel_sent_total", labels), 1.0)
	is.Equal(counterValue(t, reg, "flow_channel_received_total", labels), 1.0)
}

func TestWire_PartiallyInstrumented(t *testing.T) {
	is := is.New(t)

	reg := prometheus.NewRegistry(nil)
	m := NewMetrics(reg)
	mode := LocalMode[int]{}

	s, r := mode.New(1)
	s = mode.AttachSenderMetrics(s, m.Sender("pre"))

	s2, r2, key := Wire[int](mode, s, r, WireOptions{Metrics: m})
	is.Equal(key, telemetry.EntityKey(""))
	is.Equal(s2, s)
	is.Equal(r2, r)

	_, ok := mode.ReceiverIntoRaw(r2)
	is.True(ok) // receiver left bare
}

func TestWire_NoMetrics(t *testing.T) {
	is := is.New(t)
	mode := SharedMode[string]{}

	s, r := mode.New(1)
	s, r, key := Wire[string](mode, s, r, WireOptions{Name: "x"})
	is.True(key != "")

	_, ok := mode.SenderIntoRaw(s)
	is.True(ok)
	_, ok = mode.ReceiverIntoRaw(r)
	is.True(ok)

	// still bare, so a later wire with metrics instruments it
	reg := prometheus.NewRegistry(nil)
	s, r, key = Wire[string](mode, s, r, WireOptions{Metrics: NewMetrics(reg)})
	is.True(key != "")
	_, ok = mode.SenderIntoRaw(s)
	is.True(!ok)
	_, ok = mode.ReceiverIntoRaw(r)
	is.True(!ok)
}
