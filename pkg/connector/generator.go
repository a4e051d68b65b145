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

// Package connector contains the built-in sources and exporters used by the
// conduit-flow runtime.
package connector

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/conduitio/conduit-commons/opencdc"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/lifecycle"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/conduitio/conduit-flow/pkg/pipeline/ingress"
	"github.com/conduitio/conduit-flow/pkg/record"
	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"github.com/sourcegraph/conc/pool"
)

const (
	// MetadataGeneratorBatch holds the id of the generated batch a record
	// belongs to.
	MetadataGeneratorBatch = "generator.batch"
	// MetadataGeneratorIndex holds the index of a record in its batch.
	MetadataGeneratorIndex = "generator.index"
)

type GeneratorConfig struct {
	BatchSize int
	// Interval is the pause between two batches.
	Interval time.Duration
	// Batches is the number of batches to generate, 0 means unlimited.
	Batches int

	// BackoffMin and BackoffMax bound the delay before an overloaded batch
	// is retried.
	BackoffMin time.Duration
	BackoffMax time.Duration
}

// Generator is a source producing synthetic records. Batches rejected
// because the pipeline is overloaded are retried with an exponential
// backoff.
type Generator struct {
	cfg    GeneratorConfig
	logger log.CtxLogger

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	retried   atomic.Int64
}

func NewGenerator(cfg GeneratorConfig, logger log.CtxLogger) *Generator {
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = 10 * time.Millisecond
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = time.Second
	}
	return &Generator{
		cfg:    cfg,
		logger: logger.WithComponent("connector.Generator"),
	}
}

func (g *Generator) Name() string { return "generator" }

// Stats returns the number of submitted batches and how many of them were
// acked, nacked and retried.
func (g *Generator) Stats() (submitted, succeeded, failed, retried int64) {
	return g.submitted.Load(), g.succeeded.Load(), g.failed.Load(), g.retried.Load()
}

// Run produces batches into the stream until the configured number of
// batches was acknowledged, ctx is done or the pipeline stops accepting
// batches.
func (g *Generator) Run(ctx context.Context, s *lifecycle.Stream) error {
	// produced is canceled once the producer is done submitting
	produced, markProduced := context.WithCancel(context.Background())
	defer markProduced()

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		defer markProduced()
		return g.produce(ctx, s)
	})
	p.Go(func(ctx context.Context) error {
		return g.consume(ctx, produced, s)
	})
	return p.Wait()
}

func (g *Generator) produce(ctx context.Context, s *lifecycle.Stream) error {
	var ticker *time.Ticker
	if g.cfg.Interval > 0 {
		ticker = time.NewTicker(g.cfg.Interval)
		defer ticker.Stop()
	}

	for i := int64(1); g.cfg.Batches == 0 || i <= int64(g.cfg.Batches); i++ {
		err := g.submit(ctx, s, i, g.batch(i))
		if err != nil {
			if cerrors.Is(err, channel.ErrClosed) {
				g.logger.Info(ctx).Msg("pipeline stopped accepting batches")
				return nil
			}
			return err
		}
		g.submitted.Add(1)

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
	return nil
}

func (g *Generator) submit(ctx context.Context, s *lifecycle.Stream, batchID int64, b record.Batch) error {
	bo := &backoff.Backoff{
		Factor: 2,
		Min:    g.cfg.BackoffMin,
		Max:    g.cfg.BackoffMax,
	}

	for {
		st, err := s.Submit(ctx, batchID, b)
		if err != nil {
			return err
		}
		if st == nil {
			return nil
		}

		g.retried.Add(1)
		d := bo.Duration()
		g.logger.Debug(ctx).
			Int64(log.BatchIDField, batchID).
			Dur("backoff", d).
			Msg("pipeline overloaded, retrying batch")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
}

// consume reports the status of admitted batches. It returns once the
// producer is done and every admitted batch resolved.
func (g *Generator) consume(ctx context.Context, produced context.Context, s *lifecycle.Stream) error {
	for resolved := int64(0); ; {
		if produced.Err() != nil && resolved == g.submitted.Load() {
			return nil
		}

		st, err := g.next(ctx, produced, s)
		if err != nil {
			if cerrors.Is(err, ingress.ErrStreamClosed) {
				g.logger.Info(ctx).Msg("stream closed, pending batches were cancelled")
				return nil
			}
			if ctx.Err() == nil && cerrors.Is(err, context.Canceled) {
				// producer finished while waiting
				continue
			}
			return err
		}
		resolved++

		switch st.Code {
		case ingress.StatusSuccess:
			g.succeeded.Add(1)
		default:
			g.failed.Add(1)
			g.logger.Warn(ctx).
				Int64(log.BatchIDField, st.BatchID).
				Stringer("status", st.Code).
				Str("reason", st.Message).
				Msg("batch was not delivered")
		}
	}
}

// next waits for the next status. While the producer is running the wait is
// interrupted when it finishes.
func (g *Generator) next(ctx context.Context, produced context.Context, s *lifecycle.Stream) (ingress.Status, error) {
	if produced.Err() != nil {
		return s.Next(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(produced, cancel)
	defer stop()
	return s.Next(ctx)
}

func (g *Generator) batch(batchID int64) record.Batch {
	recs := make([]opencdc.Record, g.cfg.BatchSize)
	now := time.Now()
	for i := range recs {
		meta := opencdc.Metadata{
			MetadataGeneratorBatch: strconv.FormatInt(batchID, 10),
			MetadataGeneratorIndex: strconv.Itoa(i),
		}
		meta.SetCreatedAt(now)
		recs[i] = opencdc.Record{
			Position:  opencdc.Position(uuid.NewString()),
			Operation: opencdc.OperationCreate,
			Metadata:  meta,
			Key:       opencdc.RawData(uuid.NewString()),
			Payload: opencdc.Change{
				After: opencdc.StructuredData{
					"batch": batchID,
					"index": i,
				},
			},
		}
	}
	return record.NewBatch(recs...)
}
