// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package manager implements the Load Manager: work-queue construction,
// the warmup/measured sampling loop, and aggregation of the results it
// collects from per-sample Sample Executors.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
	"github.com/google/vertex-ai-benchmarker/pkg/bench/caller"
	"github.com/google/vertex-ai-benchmarker/pkg/bench/executor"
)

// State names a point in the run's forward-only state machine.
type State int

const (
	Init State = iota
	WorkQueueBuilt
	Warmup
	Measure
	Aggregate
	Flush
	Done
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case WorkQueueBuilt:
		return "WORK_QUEUE_BUILT"
	case Warmup:
		return "WARMUP"
	case Measure:
		return "MEASURE"
	case Aggregate:
		return "AGGREGATE"
	case Flush:
		return "FLUSH"
	default:
		return "DONE"
	}
}

// sampleWindow is the pacing budget of one sample, per spec.md §4.2.
const sampleWindow = time.Second

// finalDrain is how long the outer pool waits for in-flight sample jobs
// at the end of the sampling loop.
const finalDrain = 10 * time.Second

// Config parameterizes one run of the Load Manager.
type Config struct {
	TargetQPS          int
	WorkerThreads      int
	Strategy           SampleStrategy
	Seed               *int64
	WarmupSampleCount  int
	MeasuredSampleCount int
}

// Sink receives each measured sample's results as they are produced, in
// sample order, so the Results Writer can stream detailed records without
// holding the entire run in memory.
type Sink interface {
	WriteSample(ctx context.Context, batch []bench.SampleResult) error
}

// Manager runs one load-test experiment end to end.
type Manager struct {
	cfg    Config
	caller caller.Caller
	logger log.Logger

	state State

	exceededTime int
}

// New constructs a Manager. c issues every task's RPC; the sink that
// receives measured batches is passed to Run.
func New(cfg Config, c caller.Caller, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Manager{cfg: cfg, caller: c, logger: logger, state: Init}
}

// State returns the manager's current state machine position.
func (m *Manager) State() State { return m.state }

// Run executes the full corpus→workqueue→warmup→measure→aggregate
// pipeline and returns the aggregate statistics plus every measured
// SampleResult. sink, if non-nil, is called once per measured sample.
func (m *Manager) Run(ctx context.Context, corpus bench.Corpus, sink Sink) (bench.Aggregate, []bench.SampleResult, error) {
	queue := buildWorkQueue(corpus, m.cfg.Strategy, m.cfg.Seed)
	m.state = WorkQueueBuilt
	level.Info(m.logger).Log("msg", "work queue built", "size", len(queue), "strategy", m.cfg.Strategy)

	index := 0

	m.state = Warmup
	index = m.sample(ctx, queue, index, m.cfg.WarmupSampleCount, nil)

	m.state = Measure
	var (
		fullMu sync.Mutex
		full   []bench.SampleResult
	)
	collect := func(batch []bench.SampleResult) {
		fullMu.Lock()
		full = append(full, batch...)
		fullMu.Unlock()
		if sink != nil {
			if err := sink.WriteSample(ctx, batch); err != nil {
				level.Error(m.logger).Log("msg", "sink rejected sample batch", "err", err)
			}
		}
	}
	index = m.sample(ctx, queue, index, m.cfg.MeasuredSampleCount, collect)

	m.state = Aggregate
	agg := aggregate(full)

	m.state = Flush
	m.state = Done

	if m.exceededTime > 0 {
		level.Warn(m.logger).Log("msg", "unable to reach desired QPS", "samples_exceeded", m.exceededTime)
	}
	return agg, full, nil
}

// sample runs n sample windows starting at the given work-queue index,
// invoking collect (if non-nil) with each sample's SampleResults as it
// finishes. Sample N+1 is launched on schedule even if sample N is still
// draining (outer pool is unbounded); only the inner pool is bounded. It
// returns the advanced index.
func (m *Manager) sample(ctx context.Context, queue []bench.Request, index, n int, collect func([]bench.SampleResult)) int {
	if len(queue) == 0 || n == 0 {
		return index
	}

	g, gctx := errgroup.WithContext(ctx)
	// prevCollected is closed once the previous sample's job has returned,
	// so each job hands its batch to collect one at a time, in sample order.
	prevCollected := make(chan struct{})
	close(prevCollected)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			level.Warn(m.logger).Log("msg", "sampling interrupted, flushing best effort", "samples_run", i, "samples_requested", n)
			m.waitFinal(g)
			return index
		default:
		}

		start := time.Now()
		deadline := start.Add(sampleWindow)

		slice := slab(queue, index, m.cfg.TargetQPS)
		index = (index + m.cfg.TargetQPS) % len(queue)

		pool := executor.New(m.cfg.WorkerThreads, m.logger)
		sampleDone := make(chan struct{})
		waitPrev, collected := prevCollected, make(chan struct{})
		prevCollected = collected
		g.Go(func() error {
			defer close(sampleDone)
			defer close(collected)
			tasks := make([]executor.Task, len(slice))
			for i, req := range slice {
				req := req
				tasks[i] = func(ctx context.Context) error { return m.caller.Issue(ctx, req) }
			}
			results, err := pool.Run(gctx, tasks)
			<-waitPrev
			if collect != nil {
				collect(results)
			}
			return err
		})

		select {
		case <-sampleDone:
		case <-ctx.Done():
			level.Warn(m.logger).Log("msg", "sampling interrupted mid-window, flushing best effort", "sample_index", i)
			m.waitFinal(g)
			return index
		case <-time.After(time.Until(deadline)):
			m.exceededTime++
			level.Warn(m.logger).Log("msg", "unable to reach desired QPS", "sample_index", i)
		}

		select {
		case <-ctx.Done():
			m.waitFinal(g)
			return index
		case <-time.After(time.Until(deadline)):
		}
	}

	m.waitFinal(g)
	return index
}

// waitFinal waits up to finalDrain for all outstanding sample jobs
// launched on g to complete, logging any still pending.
func (m *Manager) waitFinal(g *errgroup.Group) {
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			level.Error(m.logger).Log("msg", "sample job failed during drain", "err", err)
		}
	case <-time.After(finalDrain):
		level.Warn(m.logger).Log("msg", "sample jobs still pending after final drain window", "timeout", finalDrain)
	}
}

// slab returns the wrap-around slice of queue of length n starting at
// index, per spec.md §4.2's modular work-queue indexing.
func slab(queue []bench.Request, index, n int) []bench.Request {
	out := make([]bench.Request, n)
	for i := 0; i < n; i++ {
		out[i] = queue[(index+i)%len(queue)]
	}
	return out
}
