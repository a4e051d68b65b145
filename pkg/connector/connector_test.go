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

package connector

import (
	"context"
	"testing"
	"time"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/lifecycle"
	"github.com/conduitio/conduit-flow/pkg/processor"
	_ "github.com/conduitio/conduit-flow/pkg/processor/builtin"
	"github.com/conduitio/conduit-flow/pkg/record"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

type failingExporter struct{}

func (failingExporter) Name() string { return "failing" }

func (failingExporter) Export(context.Context, record.Batch) error {
	return cerrors.New("not today")
}

func newPipeline(t *testing.T, ackCapacity int, exporters ...lifecycle.Exporter) *lifecycle.Pipeline {
	is := is.New(t)
	p, err := lifecycle.New(lifecycle.Config{
		ID:              "connector-test",
		Chains:          1,
		ChannelCapacity: 4,
		AckCapacity:     ackCapacity,
		MaxInFlight:     ackCapacity,
		DrainTimeout:    time.Second,
		Stages:          []processor.Config{{Type: "passthrough"}},
	}, exporters, processor.GlobalBuilderRegistry, nil, log.Test(t))
	is.NoErr(err)
	p.Start(context.Background())
	t.Cleanup(func() {
		p.Stop()
		_ = p.Wait()
	})
	return p
}

func TestGenerator_Run(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exp := NewLog("log", zerolog.DebugLevel, log.Test(t))
	p := newPipeline(t, 8, exp)

	g := NewGenerator(GeneratorConfig{BatchSize: 3, Batches: 5}, log.Test(t))
	s := p.OpenStream()
	defer s.Close()

	is.NoErr(g.Run(ctx, s))

	submitted, succeeded, failed, _ := g.Stats()
	is.Equal(submitted, int64(5))
	is.Equal(succeeded, int64(5))
	is.Equal(failed, int64(0))
	is.Equal(exp.Exported(), int64(15))
}

func TestGenerator_RetriesOverloaded(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// a single ack slot forces every batch after the first one to wait
	exp := NewLog("log", zerolog.DebugLevel, log.Test(t))
	p := newPipeline(t, 1, exp)

	g := NewGenerator(GeneratorConfig{
		BatchSize:  1,
		Batches:    10,
		BackoffMin: time.Millisecond,
		BackoffMax: 5 * time.Millisecond,
	}, log.Test(t))
	s := p.OpenStream()
	defer s.Close()

	is.NoErr(g.Run(ctx, s))

	submitted, succeeded, _, _ := g.Stats()
	is.Equal(submitted, int64(10))
	is.Equal(succeeded, int64(10))
	is.Equal(exp.Exported(), int64(10))
}

func TestGenerator_CountsFailures(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := newPipeline(t, 4, failingExporter{})

	g := NewGenerator(GeneratorConfig{BatchSize: 2, Batches: 3}, log.Test(t))
	s := p.OpenStream()
	defer s.Close()

	is.NoErr(g.Run(ctx, s))

	_, succeeded, failed, _ := g.Stats()
	is.Equal(succeeded, int64(0))
	is.Equal(failed, int64(3))
}

func TestGenerator_StopsWithPipeline(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := newPipeline(t, 4, NewLog("log", zerolog.DebugLevel, log.Nop()))

	g := NewGenerator(GeneratorConfig{BatchSize: 1, Interval: time.Millisecond}, log.Test(t))
	s := p.OpenStream()
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx, s)
	}()

	time.Sleep(20 * time.Millisecond)
	p.Stop()

	select {
	case err := <-done:
		is.NoErr(err)
	case <-ctx.Done():
		t.Fatal("generator did not stop")
	}
	is.NoErr(p.Wait())
}

func TestGenerator_Batch(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(GeneratorConfig{BatchSize: 2}, log.Nop())

	b := g.batch(7)
	is.Equal(b.Len(), 2)
	for i, r := range b.Records {
		is.Equal(r.Operation, opencdc.OperationCreate)
		is.Equal(r.Metadata[MetadataGeneratorBatch], "7")
		is.Equal(r.Metadata[MetadataGeneratorIndex], []string{"0", "1"}[i])
		is.True(len(r.Position) > 0)
	}
	is.True(string(b.Records[0].Position) != string(b.Records[1].Position))
}
