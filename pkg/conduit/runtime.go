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

package conduit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/conduitio/conduit-flow/pkg/connector"
	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/csync"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/foundation/metrics"
	"github.com/conduitio/conduit-flow/pkg/foundation/metrics/prometheus"
	"github.com/conduitio/conduit-flow/pkg/lifecycle"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

const (
	exitTimeout = 10 * time.Second
)

// Source feeds batches into a pipeline stream.
type Source interface {
	Name() string
	// Run submits batches until it is done or ctx is canceled. The stream
	// is closed by the caller once Run returns.
	Run(ctx context.Context, s *lifecycle.Stream) error
}

// Runtime sets up the pipeline with its sources and exporters and serves
// the metrics endpoint.
type Runtime struct {
	Config   Config
	Pipeline *lifecycle.Pipeline
	Sources  []Source
	// Ready will be closed when Runtime has successfully started
	Ready chan struct{}
	// MetricsAddr is the address of the metrics server, set once Ready is
	// closed.
	MetricsAddr net.Addr

	gatherer  *promclient.Registry
	logger    log.CtxLogger
	sourcesWg csync.WaitGroup
}

// NewRuntime sets up a Runtime instance and primes it for start. If no
// sources are supplied and the generator is enabled, the runtime generates
// records. If no exporters are supplied records are written to the log.
func NewRuntime(cfg Config, sources []Source, exporters []lifecycle.Exporter) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, cerrors.Errorf("invalid config: %w", err)
	}
	if cfg.ProcessorBuilderRegistry == nil {
		return nil, cerrors.New("invalid config: processor builder registry is required")
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)

	if len(sources) == 0 && cfg.Generator.Enabled {
		sources = append(sources, connector.NewGenerator(connector.GeneratorConfig{
			BatchSize: cfg.Generator.BatchSize,
			Interval:  cfg.Generator.Interval,
			Batches:   cfg.Generator.Batches,
		}, logger))
	}
	if len(exporters) == 0 {
		exporters = append(exporters, connector.NewLog("log", zerolog.DebugLevel, logger))
	}

	r := &Runtime{
		Config:  cfg,
		Sources: sources,
		Ready:   make(chan struct{}),
		logger:  logger,
	}

	var reg metrics.Registry
	if cfg.Metrics.Enabled {
		var promReg *prometheus.Registry
		promReg, r.gatherer = newMetricsRegistry()
		promReg.NewLabeledGauge("flow_info", "Information about conduit-flow.", []string{"version"}).
			WithValues(Version(true)).
			Set(1)
		reg = promReg
	}

	var err error
	r.Pipeline, err = lifecycle.New(cfg.LifecycleConfig(), exporters, cfg.ProcessorBuilderRegistry, reg, logger)
	if err != nil {
		return nil, cerrors.Errorf("failed to create pipeline: %w", err)
	}

	return r, nil
}

func newLogger(level string, format string) log.CtxLogger {
	l, _ := zerolog.ParseLevel(level)
	f, _ := log.ParseFormat(format)
	logger := log.InitLogger(l, f)
	zerolog.DefaultContextLogger = &logger.Logger
	return logger
}

// newMetricsRegistry returns the registry used by pipeline components and the
// prometheus registry serving its metrics together with the Go runtime
// metrics.
func newMetricsRegistry() (*prometheus.Registry, *promclient.Registry) {
	registry := prometheus.NewRegistry(nil)
	gatherer := promclient.NewRegistry()
	gatherer.MustRegister(
		registry,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, gatherer
}

// Run starts the pipeline, its sources and the metrics server. This function
// blocks until the supplied context is cancelled or the pipeline experiences
// a fatal error.
func (r *Runtime) Run(ctx context.Context) (err error) {
	t, ctx := tomb.WithContext(ctx)

	defer func() {
		if err != nil {
			// This means run failed, we kill the tomb to stop any goroutines
			// that might have been already started.
			t.Kill(err)
		}
		// Block until tomb is dying, then wait for goroutines to stop running.
		<-t.Dying()
		r.logger.Warn(ctx).Msg("conduit-flow is stopping, stand by for shutdown ...")
		err = t.Wait()
	}()

	// the pipeline is not bound to the tomb context, it is stopped
	// gracefully once the tomb is dying
	pipelineCtx, cancelPipeline := context.WithCancel(context.Background())
	r.Pipeline.Start(pipelineCtx)

	r.sourcesWg.Add(len(r.Sources))
	r.supervisePipeline(t, cancelPipeline)
	for _, src := range r.Sources {
		t.Go(func() error {
			defer r.sourcesWg.Done()
			return r.runSource(ctx, src)
		})
	}

	if r.Config.Metrics.Enabled {
		addr, err := r.serveMetrics(ctx, t)
		if err != nil {
			return cerrors.Errorf("failed to serve metrics: %w", err)
		}
		r.MetricsAddr = addr
	}

	close(r.Ready)
	return nil
}

// supervisePipeline stops the pipeline once the tomb is dying and the
// sources stopped. It kills the tomb if the pipeline stops on its own.
func (r *Runtime) supervisePipeline(t *tomb.Tomb, cancelPipeline context.CancelFunc) {
	done := make(chan error, 1)
	go func() {
		done <- r.Pipeline.Wait()
	}()

	t.Go(func() error {
		defer cancelPipeline()
		select {
		case err := <-done:
			if err != nil {
				return cerrors.Errorf("pipeline stopped: %w", err)
			}
			return nil
		case <-t.Dying():
		}

		// start cleanup with a fresh context
		ctx := context.Background()
		if err := r.sourcesWg.WaitTimeout(ctx, exitTimeout); err != nil {
			r.logger.Warn(ctx).Err(err).Msg("sources did not stop in time")
		}
		r.Pipeline.Stop()
		select {
		case err := <-done:
			r.logger.Err(ctx, err).Msg("pipeline stopped")
			return err
		case <-time.After(exitTimeout):
			r.logger.Warn(ctx).Dur(log.DurationField, exitTimeout).Msg("pipeline did not stop in time, stopping forcefully")
			cancelPipeline()
			return cerrors.Errorf("timeout %v exceeded while stopping pipeline: %w", exitTimeout, <-done)
		}
	})
}

func (r *Runtime) runSource(ctx context.Context, src Source) error {
	s := r.Pipeline.OpenStream()
	defer s.Close()

	err := src.Run(ctx, s)
	if err != nil && !cerrors.Is(err, context.Canceled) {
		return cerrors.Errorf("source %q stopped with error: %w", src.Name(), err)
	}
	r.logger.Info(ctx).Str("source", src.Name()).Msg("source stopped")
	return nil
}

func (r *Runtime) serveMetrics(ctx context.Context, t *tomb.Tomb) (net.Addr, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))

	return r.serveHTTP(
		ctx,
		t,
		&http.Server{
			Addr:              r.Config.Metrics.HTTP.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	)
}

func (r *Runtime) serveHTTP(
	ctx context.Context,
	t *tomb.Tomb,
	srv *http.Server,
) (net.Addr, error) {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, cerrors.Errorf("failed to listen on address %q: %w", srv.Addr, err)
	}

	t.Go(func() error {
		err := srv.Serve(ln)
		if err != nil {
			if err == http.ErrServerClosed {
				// ignore expected close
				return nil
			}
			return cerrors.Errorf("http server listening on %q stopped with error: %w", ln.Addr(), err)
		}
		return nil
	})
	t.Go(func() error {
		<-t.Dying()
		// start server shutdown with a timeout, use fresh context
		ctx, cancel := context.WithTimeout(context.Background(), exitTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	r.logger.Info(ctx).Str(log.ServerAddressField, ln.Addr().String()).Msg("http server started")
	return ln.Addr(), nil
}
