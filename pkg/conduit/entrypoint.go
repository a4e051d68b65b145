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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/processor"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	exitCodeErr       = 1
	exitCodeInterrupt = 2
)

// Serve is the entrypoint for conduit-flow. The config will be populated with
// values parsed from:
//   - command line flags (highest priority)
//   - config file (lowest priority)
func Serve(cfg Config) {
	cmd := NewCommand(cfg, func(ctx context.Context, cfg Config) error {
		runtime, err := NewRuntime(cfg, nil, nil)
		if err != nil {
			return cerrors.Errorf("failed to set up conduit-flow runtime: %w", err)
		}
		err = runtime.Run(ctx)
		if err != nil && !cerrors.Is(err, context.Canceled) {
			return cerrors.Errorf("conduit-flow runtime error: %w", err)
		}
		return nil
	})

	// As per the docs, the signals SIGKILL and SIGSTOP may not be caught by a program
	ctx := cancelOnInterrupt(context.Background())
	if err := cmd.ExecuteContext(ctx); err != nil {
		exitWithError(err)
	}
}

// NewCommand returns the root command. Flags are bound to cfg, run is called
// with the final configuration.
func NewCommand(cfg Config, run func(context.Context, Config) error) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "conduit-flow",
		Short:         "Run a conduit-flow telemetry pipeline",
		Version:       Version(true),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := loadWithFlags(cmd.Flags(), configPath, &cfg); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(newStagesCommand(func() *processor.BuilderRegistry {
		return cfg.ProcessorBuilderRegistry
	}))

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to the configuration file")

	flags.StringVar(&cfg.Log.Level, "log.level", cfg.Log.Level, "sets logging level; accepts debug, info, warn, error, trace")
	flags.StringVar(&cfg.Log.Format, "log.format", cfg.Log.Format, "sets the format of the logging; accepts json, cli")

	flags.BoolVar(&cfg.Metrics.Enabled, "metrics.enabled", cfg.Metrics.Enabled, "serve prometheus metrics")
	flags.StringVar(&cfg.Metrics.HTTP.Address, "metrics.http.address", cfg.Metrics.HTTP.Address, "address for serving the metrics endpoint")

	flags.StringVar(&cfg.Pipeline.ID, "pipeline.id", cfg.Pipeline.ID, "pipeline ID used in logs and metrics")
	flags.IntVar(&cfg.Pipeline.Chains, "pipeline.chains", cfg.Pipeline.Chains, "number of chains processing batches in parallel")
	flags.IntVar(&cfg.Pipeline.ChannelCapacity, "pipeline.channel-capacity", cfg.Pipeline.ChannelCapacity, "capacity of the channels between pipeline components")
	flags.IntVar(&cfg.Pipeline.AckCapacity, "pipeline.ack-capacity", cfg.Pipeline.AckCapacity, "maximum number of batches awaiting an ack")
	flags.IntVar(&cfg.Pipeline.MaxInFlight, "pipeline.max-in-flight", cfg.Pipeline.MaxInFlight, "maximum number of batches awaiting an ack per stream")
	flags.DurationVar(&cfg.Pipeline.DrainTimeout, "pipeline.drain-timeout", cfg.Pipeline.DrainTimeout, "time to wait for outstanding acks when stopping")

	flags.BoolVar(&cfg.Generator.Enabled, "generator.enabled", cfg.Generator.Enabled, "generate synthetic records")
	flags.IntVar(&cfg.Generator.BatchSize, "generator.batch-size", cfg.Generator.BatchSize, "number of records in a generated batch")
	flags.DurationVar(&cfg.Generator.Interval, "generator.interval", cfg.Generator.Interval, "pause between generated batches")
	flags.IntVar(&cfg.Generator.Batches, "generator.batches", cfg.Generator.Batches, "number of batches to generate, 0 means unlimited")

	return cmd
}

// loadWithFlags applies the config file on top of cfg and re-applies the
// flags that were set explicitly, so they take precedence over the file.
// The flags must be bound to the fields of cfg.
func loadWithFlags(flags *pflag.FlagSet, path string, cfg *Config) error {
	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	loaded, err := LoadFile(path, *cfg)
	if err != nil {
		return err
	}
	*cfg = loaded

	for name, val := range changed {
		if err := flags.Set(name, val); err != nil {
			return cerrors.Errorf("invalid value for flag %q: %w", name, err)
		}
	}
	return nil
}

// cancelOnInterrupt returns a context that is canceled when the interrupt
// signal is received.
// * After the first signal the function will continue to listen
// * On the second signal executes a hard exit, without waiting for a graceful
// shutdown.
func cancelOnInterrupt(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-signalChan: // first interrupt signal
			cancel()
		case <-ctx.Done():
		}
		<-signalChan // second interrupt signal
		os.Exit(exitCodeInterrupt)
	}()

	return ctx
}

func exitWithError(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "error: %+v\n", err)
	os.Exit(exitCodeErr)
}
