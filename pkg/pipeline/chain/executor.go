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
	"context"
	"sync/atomic"
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/cerrors"
	"github.com/conduitio/conduit-flow/pkg/foundation/log"
	"github.com/conduitio/conduit-flow/pkg/foundation/metrics"
	"github.com/conduitio/conduit-flow/pkg/foundation/metrics/noop"
	"github.com/conduitio/conduit-flow/pkg/foundation/multierror"
	"github.com/conduitio/conduit-flow/pkg/pipeline/channel"
	"github.com/conduitio/conduit-flow/pkg/pipeline/control"
	"github.com/sourcegraph/conc"
)

// Route is a named downstream destination of a chain.
type Route[S any] struct {
	Name   string
	Sender S
}

type options struct {
	logger    log.CtxLogger
	control   channel.Sender[control.Msg]
	metrics   *Metrics
	signals   <-chan Signal
	forceLoop bool
}

// Option configures an Executor.
type Option func(*options)

func WithLogger(logger log.CtxLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithControl sets the sender used by stages to route acks and nacks
// upstream.
func WithControl(ctrl channel.Sender[control.Msg]) Option {
	return func(o *options) { o.control = ctrl }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithSignals adds a source of signals that is merged with the inbound
// channel. Signals other than Messages, TimerTick and Stop abort the chain.
func WithSignals(signals <-chan Signal) Option {
	return func(o *options) { o.signals = signals }
}

type stageTimer struct {
	index  int
	period time.Duration
}

// Executor drives the stages of a chain. It receives batches from the
// inbound channel, runs them through every stage in order and fans the
// result out to all routes. The downstream topology is fixed once the
// executor is created.
type Executor[B Batch[B], S channel.Sender[B], R channel.Receiver[B]] struct {
	id      string
	stages  []Stage[B]
	in      R
	routes  []Route[S]
	timers  []stageTimer
	effects *EffectHandler[B]
	opts    options
	logger  log.CtxLogger
	started atomic.Bool

	stageTimers  []metrics.Timer
	signalCount  map[string]metrics.Counter
	sendFailures []metrics.Counter
}

// NewExecutor creates an executor for the given stages. Route names must be
// unique, batches are fanned out in the order of routes.
func NewExecutor[B Batch[B], S channel.Sender[B], R channel.Receiver[B]](
	id string,
	stages []Stage[B],
	in R,
	routes []Route[S],
	opts ...Option,
) (*Executor[B, S, R], error) {
	o := options{logger: log.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(noop.Registry{})
	}

	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		if seen[r.Name] {
			return nil, cerrors.Errorf("duplicate route %q", r.Name)
		}
		seen[r.Name] = true
	}

	logger := o.logger.WithComponent("chain.Executor")
	logger.Logger = logger.With().Str(log.ChainIDField, id).Logger()

	e := &Executor[B, S, R]{
		id:          id,
		stages:      stages,
		in:          in,
		routes:      routes,
		effects:     NewEffectHandler[B](len(routes) > 0, o.control),
		opts:        o,
		logger:      logger,
		signalCount: make(map[string]metrics.Counter),
	}
	for _, st := range stages {
		e.stageTimers = append(e.stageTimers, o.metrics.processDuration.WithValues(id, st.Name()))
	}
	for _, r := range routes {
		e.sendFailures = append(e.sendFailures, o.metrics.sendFailures.WithValues(id, r.Name))
	}
	return e, nil
}

// Run initializes the stages and runs the chain until the inbound channel is
// closed, a Stop signal is received, ctx is canceled or a stage fails. If a
// stage fails to initialize Run returns immediately without calling Process
// or Stop on any stage. Otherwise Stop is called on every stage in order
// once the loop exits. Errors returned by Stop are logged, the returned error
// is the reason the loop exited, nil if the inbound channel was closed.
func (e *Executor[B, S, R]) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return cerrors.New("executor already started")
	}

	if err := e.init(); err != nil {
		e.logger.Err(ctx, err).Msg("chain initialization failed, chain will not run")
		return err
	}

	var err error
	if len(e.timers) == 0 && e.opts.signals == nil && !e.opts.forceLoop {
		err = e.runDirect(ctx)
	} else {
		err = e.runMerged(ctx)
	}

	if stopErr := e.stopStages(ctx); stopErr != nil {
		e.logger.Warn(ctx).Err(stopErr).Msg("stages did not stop cleanly")
	}

	switch {
	case err == nil:
		e.logger.Info(ctx).Msg("inbound channel closed, chain stopped")
	case cerrors.Is(err, context.Canceled):
		e.logger.Info(ctx).Msg("chain stopped, context canceled")
	default:
		e.logger.Err(ctx, err).Msg("chain aborted")
	}
	return err
}

func (e *Executor[B, S, R]) init() error {
	for i, st := range e.stages {
		cfg := &Configurator{}
		err := st.Init(cfg)
		cfg.done = true
		if err != nil {
			return &StageError{
				Stage:   st.Name(),
				Op:      "init",
				Context: map[string]any{log.ChainIDField: e.id, log.StageIndexField: i},
				Err:     err,
			}
		}
		if cfg.timer > 0 {
			e.timers = append(e.timers, stageTimer{index: i, period: cfg.timer})
		}
	}
	return nil
}

// runDirect is the loop used when no stage registered a timer, it receives
// straight from the inbound channel.
func (e *Executor[B, S, R]) runDirect(ctx context.Context) error {
	for {
		b, err := e.in.Recv(ctx)
		if err != nil {
			if cerrors.Is(err, channel.ErrClosed) {
				return nil
			}
			return err
		}
		e.countSignal(Messages[B]{})
		if err := e.processBatch(ctx, b, 0); err != nil {
			return err
		}
	}
}

// runMerged merges the inbound channel, the stage timers and the external
// signal source into one stream of signals.
func (e *Executor[B, S, R]) runMerged(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan Signal)
	// the inbound goroutine receives the next batch only after the previous
	// one was processed, so a failing stage leaves unread batches in the
	// inbound channel
	next := make(chan struct{}, 1)
	next <- struct{}{}

	var wg conc.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	emit := func(sig Signal) bool {
		select {
		case signals <- sig:
			return true
		case <-ctx.Done():
			return false
		}
	}

	wg.Go(func() {
		for {
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
			b, err := e.in.Recv(ctx)
			if err != nil {
				if cerrors.Is(err, channel.ErrClosed) {
					emit(Stop{})
				}
				return
			}
			if !emit(Messages[B]{Batch: b}) {
				return
			}
		}
	})
	for _, t := range e.timers {
		wg.Go(func() {
			ticker := time.NewTicker(t.period)
			defer ticker.Stop()
			for {
				select {
				case firedAt := <-ticker.C:
					if !emit(TimerTick{FiredAt: firedAt, SourceIndex: t.index}) {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		})
	}
	if e.opts.signals != nil {
		wg.Go(func() {
			for {
				select {
				case sig, ok := <-e.opts.signals:
					if !ok {
						return
					}
					if !emit(sig) {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		})
	}

	for {
		select {
		case sig := <-signals:
			if _, ok := sig.(Stop); ok {
				return nil
			}
			if err := e.processSignal(ctx, sig); err != nil {
				return err
			}
			if _, ok := sig.(Messages[B]); ok {
				next <- struct{}{}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (e *Executor[B, S, R]) processSignal(ctx context.Context, sig Signal) error {
	switch s := sig.(type) {
	case Messages[B]:
		e.countSignal(s)
		return e.processBatch(ctx, s.Batch, 0)
	case TimerTick:
		e.countSignal(s)
		return e.processTick(ctx, s)
	default:
		return unsupportedSignal(sig)
	}
}

// processTick hands the tick to the stage that registered the timer. The
// output of that stage continues through the stages after it, same as the
// output of any stage processing a batch. A tick addressed to a stage
// without a timer is unsupported.
func (e *Executor[B, S, R]) processTick(ctx context.Context, t TimerTick) error {
	if !e.hasTimer(t.SourceIndex) {
		return cerrors.Errorf("stage index %d has no timer: %w", t.SourceIndex, unsupportedSignal(t))
	}
	if err := e.callStage(ctx, t.SourceIndex, t); err != nil {
		return err
	}
	return e.processBatch(ctx, e.effects.ExecuteEffects(), t.SourceIndex+1)
}

func (e *Executor[B, S, R]) hasTimer(index int) bool {
	for _, t := range e.timers {
		if t.index == index {
			return true
		}
	}
	return false
}

// processBatch runs b through the stages starting at index from and fans
// the result out.
func (e *Executor[B, S, R]) processBatch(ctx context.Context, b B, from int) error {
	for i := from; i < len(e.stages); i++ {
		if err := e.callStage(ctx, i, Messages[B]{Batch: b}); err != nil {
			return err
		}
		b = e.effects.ExecuteEffects()
	}
	e.fanOut(ctx, b)
	return nil
}

func (e *Executor[B, S, R]) callStage(ctx context.Context, i int, sig Signal) error {
	st := e.stages[i]
	e.effects.bind(ctx)

	start := time.Now()
	err := st.Process(ctx, sig, e.effects)
	e.stageTimers[i].UpdateSince(start)

	if err != nil {
		e.effects.reset()
		return &StageError{
			Stage: st.Name(),
			Op:    "process",
			Context: map[string]any{
				log.ChainIDField:    e.id,
				log.StageIndexField: i,
				log.SignalField:     sig.SignalName(),
			},
			Err: err,
		}
	}
	return nil
}

// fanOut sends b to every route. All routes but the last one get a clone,
// the last one gets b itself. A failed send is logged and does not affect
// the other routes.
func (e *Executor[B, S, R]) fanOut(ctx context.Context, b B) {
	last := len(e.routes) - 1
	for i, r := range e.routes {
		v := b
		if i < last {
			v = b.Clone()
		}
		if err := r.Sender.Send(ctx, v); err != nil {
			e.sendFailures[i].Inc()
			e.logger.Warn(ctx).
				Err(err).
				Str(log.DestinationField, r.Name).
				Msg("failed to send batch downstream")
		}
	}
}

// stopStages calls Stop on every stage in order. Stages get a context that
// is not canceled together with ctx so they can flush.
func (e *Executor[B, S, R]) stopStages(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	// acks and nacks sent from Stop use the stop context, the loop context
	// may already be canceled
	e.effects.bind(ctx)
	var errs error
	for i, st := range e.stages {
		if err := st.Stop(ctx); err != nil {
			e.logger.Warn(ctx).
				Err(err).
				Str(log.StageField, st.Name()).
				Int(log.StageIndexField, i).
				Msg("stage stop failed")
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func (e *Executor[B, S, R]) countSignal(sig Signal) {
	name := sig.SignalName()
	c, ok := e.signalCount[name]
	if !ok {
		c = e.opts.metrics.signals.WithValues(e.id, name)
		e.signalCount[name] = c
	}
	c.Inc()
}
