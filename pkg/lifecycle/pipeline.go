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

// Package lifecycle assembles pipelines out of the pipeline building blocks
// and runs them.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/foundation/metrics"
	"github.com/conduitio/conduit-flow/pkg/pipeline/ack"
	"github.com/conduitio/conduit-flow/pkg/pipeline/chain"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/conduitio/conduit-flow/pkg/pipeline/control"
	"github.com/conduitio/conduit-flow/pkg/pipeline/ingress"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/conduitio/conduit-flow/pkg/record"
	"github.com/conduitio/conduit-flow/pkg/telemetry"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/tomb.v2"
)

// Exporter is the egress of a pipeline. Batches that are exported
// successfully are acked, batches for which Export fails are nacked. If the
// error is a cerrors.FatalError the exporter is stopped and the pipeline
// fails.
type Exporter interface {
	Name() string
	Export(ctx context.Context, b record.Batch) error
}

// Config describes a pipeline.
type Config struct {
	ID string
	// Chains is the number of chains processing batches in parallel.
	Chains int
	// ChannelCapacity is the capacity of every data channel.
	ChannelCapacity int
	// AckCapacity bounds the number of tracked batches across all streams.
	AckCapacity int
	// MaxInFlight bounds the number of tracked batches per stream.
	MaxInFlight int
	// DrainTimeout is the deadline of the Shutdown sent to the ack router.
	DrainTimeout time.Duration
	Stages       []processor.Config
}

type (
	dataSender   = *channel.SharedSender[record.Batch]
	dataReceiver = *channel.SharedReceiver[record.Batch]
	ctrlSender   = *channel.SharedSender[control.Msg]
	ctrlReceiver = *channel.SharedReceiver[control.Msg]

	// Stream is the ingress stream of a pipeline.
	Stream = ingress.Stream[record.Batch, dataSender]
)

type chainNode struct {
	executor *chain.Executor[record.Batch, dataSender, dataReceiver]
	// owned are the endpoints the chain holds, released once it stopped.
	owned []interface{ Close() }
}

type exporterNode struct {
	exporter Exporter
	in       dataReceiver
	out      dataSender
	ctrl     ctrlSender
}

// Pipeline is a running pipeline. Batches enter through streams opened with
// OpenStream, are processed by one of the chains and fanned out to every
// exporter. Acks and nacks from the exporters and stages flow back to the
// streams through the ack router.
type Pipeline struct {
	cfg      Config
	logger   log.CtxLogger
	entities *telemetry.Entities
	registry *ack.Registry

	in        dataSender
	ctrl      ctrlSender
	router    *ingress.Router[ctrlReceiver]
	chains    []chainNode
	exporters []exporterNode

	t        *tomb.Tomb
	stopOnce sync.Once
}

// New builds the pipeline. Every chain gets its own instances of the
// configured stages. If reg is nil no metrics are collected.
func New(
	cfg Config,
	exporters []Exporter,
	builders *processor.BuilderRegistry,
	reg metrics.Registry,
	logger log.CtxLogger,
) (*Pipeline, error) {
	if cfg.Chains < 1 {
		return nil, cerrors.Errorf("pipeline %s: at least one chain is required", cfg.ID)
	}
	if len(exporters) == 0 {
		return nil, cerrors.Errorf("pipeline %s: at least one exporter is required", cfg.ID)
	}

	logger = logger.WithComponent("lifecycle.Pipeline")
	logger.Logger = logger.With().Str(log.PipelineIDField, cfg.ID).Logger()

	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		entities: telemetry.NewEntities(),
		registry: ack.NewRegistry(cfg.AckCapacity),
	}

	var (
		chMetrics    *channel.Metrics
		chainMetrics *chain.Metrics
	)
	if reg != nil {
		chMetrics = channel.NewMetrics(reg)
		chainMetrics = chain.NewMetrics(reg)
	}
	wireOpts := func(name string, kind telemetry.ChannelKind) channel.WireOptions {
		return channel.WireOptions{
			Name:     fmt.Sprintf("%s:%s", cfg.ID, name),
			Kind:     kind,
			Entities: p.entities,
			Metrics:  chMetrics,
		}
	}

	dataMode := channel.SharedMode[record.Batch]{}
	ctrlMode := channel.SharedMode[control.Msg]{}

	// control plane, capacity is large enough to hold an ack for every
	// tracked batch
	ctrlOut, ctrlIn := ctrlMode.New(max(cfg.AckCapacity, 1))
	ctrlOut, ctrlIn, _ = channel.Wire[control.Msg](ctrlMode, ctrlOut, ctrlIn, wireOpts("control", telemetry.ChannelKindControl))
	p.ctrl = ctrlOut
	p.router = ingress.NewRouter(ctrlIn, p.registry, logger)

	// ingress to chains
	in, chainsIn := dataMode.New(cfg.ChannelCapacity)
	in, chainsIn, _ = channel.Wire[record.Batch](dataMode, in, chainsIn, wireOpts("ingress->chains", telemetry.ChannelKindData))
	p.in = in

	for _, exp := range exporters {
		out, expIn := dataMode.New(cfg.ChannelCapacity)
		out, expIn, _ = channel.Wire[record.Batch](dataMode, out, expIn, wireOpts("chains->"+exp.Name(), telemetry.ChannelKindData))
		p.exporters = append(p.exporters, exporterNode{
			exporter: exp,
			in:       expIn,
			out:      out,
			ctrl:     ctrlOut.Clone(),
		})
	}

	for i := 0; i < cfg.Chains; i++ {
		stages, err := builders.Build(cfg.Stages)
		if err != nil {
			return nil, cerrors.Errorf("pipeline %s: %w", cfg.ID, err)
		}

		var owned []interface{ Close() }
		routes := make([]chain.Route[dataSender], len(p.exporters))
		for j, n := range p.exporters {
			s := n.out.Clone()
			routes[j] = chain.Route[dataSender]{Name: n.exporter.Name(), Sender: s}
			owned = append(owned, s)
		}
		ctrl := ctrlOut.Clone()
		owned = append(owned, ctrl)

		opts := []chain.Option{
			chain.WithLogger(logger),
			chain.WithControl(ctrl),
		}
		if chainMetrics != nil {
			opts = append(opts, chain.WithMetrics(chainMetrics))
		}
		e, err := chain.NewExecutor(fmt.Sprintf("%s-%d", cfg.ID, i), stages, chainsIn, routes, opts...)
		if err != nil {
			return nil, cerrors.Errorf("pipeline %s: %w", cfg.ID, err)
		}
		p.chains = append(p.chains, chainNode{executor: e, owned: owned})
	}

	return p, nil
}

// Entities returns the channels wired for this pipeline.
func (p *Pipeline) Entities() *telemetry.Entities {
	return p.entities
}

// Registry returns the ack registry shared by all streams of the pipeline.
func (p *Pipeline) Registry() *ack.Registry {
	return p.registry
}

// OpenStream returns a new ingress stream. The caller must close it.
func (p *Pipeline) OpenStream() *Stream {
	return ingress.NewStream[record.Batch](p.in, p.registry, p.cfg.MaxInFlight, record.Attach, p.logger)
}

// Start runs the pipeline in the background. Canceling ctx stops it
// forcefully, use Stop for a graceful shutdown.
func (p *Pipeline) Start(ctx context.Context) {
	var t *tomb.Tomb
	t, ctx = tomb.WithContext(ctx)
	p.t = t

	t.Go(func() error {
		return p.router.Run(ctx)
	})
	t.Go(func() error {
		return p.run(ctx)
	})
	p.logger.Info(ctx).Int("chains", len(p.chains)).Msg("pipeline started")
}

// run starts the exporters and chains and, once the chains stopped, shuts
// down the rest of the pipeline in order.
func (p *Pipeline) run(ctx context.Context) error {
	exporters := pool.New().WithErrors()
	for _, n := range p.exporters {
		exporters.Go(func() error {
			err := p.runExporter(ctx, n)
			if err != nil {
				p.t.Kill(err)
			}
			return err
		})
	}

	chains := pool.New().WithErrors()
	for _, n := range p.chains {
		chains.Go(func() error {
			defer func() {
				for _, c := range n.owned {
					c.Close()
				}
			}()
			return n.executor.Run(ctx)
		})
	}

	chainErr := chains.Wait()
	for _, n := range p.exporters {
		n.out.Close()
	}
	exportErr := exporters.Wait()

	p.shutdownRouter(ctx)

	// a failing exporter cancels the chains, its error is the cause
	err := cerrors.LogOrReplace(exportErr, chainErr, func() {
		p.logger.Warn(ctx).Err(chainErr).Msg("chains stopped after exporter failure")
	})
	p.logger.Err(ctx, err).Msg("pipeline stopped")
	return err
}

func (p *Pipeline) runExporter(ctx context.Context, n exporterNode) error {
	defer n.ctrl.Close()
	// chains sending to a stopped exporter get ErrClosed
	defer n.in.Close()
	logger := p.logger
	logger.Logger = logger.With().Str(log.DestinationField, n.exporter.Name()).Logger()

	for {
		b, err := n.in.Recv(ctx)
		if err != nil {
			if cerrors.Is(err, channel.ErrClosed) {
				return nil
			}
			return err
		}

		var msgs []control.Msg
		exportErr := n.exporter.Export(ctx, b)
		if exportErr != nil {
			logger.Warn(ctx).Err(exportErr).Int(log.BatchSizeField, b.Len()).Msg("export failed")
			for _, id := range b.AckIDs {
				msgs = append(msgs, control.Nack{ID: id, Reason: exportErr.Error()})
			}
		} else {
			for _, id := range b.AckIDs {
				msgs = append(msgs, control.Ack{ID: id})
			}
		}
		for _, msg := range msgs {
			if err := n.ctrl.Send(ctx, msg); err != nil {
				logger.Warn(ctx).Err(err).Stringer(log.ControlMsgField, msg.Kind()).Msg("failed to route ack")
			}
		}
		if cerrors.IsFatalError(exportErr) {
			return cerrors.Errorf("exporter %s stopped: %w", n.exporter.Name(), exportErr)
		}
	}
}

// shutdownRouter asks the router to stop once the control channel drained.
// Batches that are still outstanding afterwards are cancelled.
func (p *Pipeline) shutdownRouter(ctx context.Context) {
	sd := control.Shutdown{
		Deadline: time.Now().Add(p.cfg.DrainTimeout),
		Reason:   "pipeline stopped",
	}
	if err := p.ctrl.TrySend(sd); err != nil {
		p.logger.Debug(ctx).Err(err).Msg("could not send shutdown to ack router, closing control channel")
	}
	p.ctrl.Close()
}

// Stop stops the pipeline gracefully. Streams stop accepting batches, the
// batches that were already accepted are processed and exported.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		p.in.Close()
	})
}

// Kill stops the pipeline forcefully.
func (p *Pipeline) Kill(err error) {
	if p.t != nil {
		p.t.Kill(err)
	}
}

// Wait blocks until the pipeline stopped and returns the reason.
func (p *Pipeline) Wait() error {
	if p.t == nil {
		return nil
	}
	return p.t.Wait()
}
