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

// Package executor implements the Sample Executor: a bounded worker pool
// that runs one sample's worth of tasks, each timed individually.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/semaphore"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// shutdownGrace is the time the pool waits for in-flight tasks to finish
// after the last task of a sample has been submitted, per spec.md §4.3.
const shutdownGrace = time.Second

// Task is one unit of work a Sample Executor times and runs. Returning a
// non-nil error marks the task failed; its latency is still measured but
// the SampleResult is dropped from the batch per the Caller error policy.
type Task func(ctx context.Context) error

// Pool is a bounded worker pool of fixed size P (core == max == P). One
// Pool instance runs exactly one sample's batch of tasks.
type Pool struct {
	size   int64
	sem    *semaphore.Weighted
	Logger log.Logger
}

// New builds a Pool with P workers.
func New(p int, logger log.Logger) *Pool {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Pool{size: int64(p), sem: semaphore.NewWeighted(int64(p)), Logger: logger}
}

// Run executes every task in tasks, timing each one from the instant its
// worker actually begins (not from submission), and returns one
// SampleResult per task that completed without error. If the pool cannot
// drain all tasks within shutdownGrace after the last submission, it
// returns the partial results collected so far together with a
// KindExecutionTimeout error; the caller still gets what was measured.
func (p *Pool) Run(ctx context.Context, tasks []Task) ([]bench.SampleResult, error) {
	var (
		mu      sync.Mutex
		results = make([]bench.SampleResult, 0, len(tasks))
		wg      sync.WaitGroup
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	// Submission is instant and unbounded: every task gets its own goroutine
	// right away and queues on the semaphore itself, so a full worker pool
	// never blocks the loop that hands out the sample's tasks. Only the
	// start timestamp captured after Acquire, inside the goroutine, counts
	// toward a task's own latency; time spent waiting for a free worker
	// shows up as StartTime drift between tasks, not inflated Latency.
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()

			if err := p.sem.Acquire(runCtx, 1); err != nil {
				level.Debug(p.Logger).Log("msg", "task never scheduled", "err", err)
				return
			}
			defer p.sem.Release(1)

			start := time.Now()
			err := task(runCtx)
			latency := time.Since(start)
			if err != nil {
				level.Debug(p.Logger).Log("msg", "task failed", "err", err)
				return
			}
			mu.Lock()
			results = append(results, bench.SampleResult{StartTime: start, Latency: latency})
			mu.Unlock()
		}(task)
	}

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		mu.Lock()
		defer mu.Unlock()
		return results, nil
	case <-time.After(shutdownGrace):
		cancel()
		mu.Lock()
		partial := append([]bench.SampleResult(nil), results...)
		mu.Unlock()
		level.Warn(p.Logger).Log("msg", "sample executor did not drain within grace period", "grace", shutdownGrace, "collected", len(partial), "total", len(tasks))
		return partial, bench.NewError(bench.KindExecutionTimeout, "executor.Run", errExceededGrace)
	}
}

var errExceededGrace = errTimeout("sample pool did not terminate within its shutdown grace period")

type errTimeout string

func (e errTimeout) Error() string { return string(e) }
