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

package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunAllSucceed(t *testing.T) {
	p := New(2, nil)
	var n int64
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			atomic.AddInt64(&n, 1)
			return nil
		}
	}
	results, err := p.Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.EqualValues(t, 10, n)
}

func TestPoolRunDropsFailedTasks(t *testing.T) {
	p := New(1, nil)
	tasks := []Task{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("boom") },
		func(ctx context.Context) error { return nil },
	}
	results, err := p.Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestPoolRunStartTimesReflectQueueingUnderContention(t *testing.T) {
	p := New(1, nil)
	tasks := []Task{
		func(ctx context.Context) error { time.Sleep(20 * time.Millisecond); return nil },
		func(ctx context.Context) error { return nil },
	}
	results, err := p.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// With a single worker, the second task cannot start until the first
	// has finished: its recorded StartTime lags the first task's by
	// roughly the first task's own run time, even though its own
	// measured latency (start-to-end inside run()) stays small.
	assert.GreaterOrEqual(t, results[1].StartTime.Sub(results[0].StartTime), 15*time.Millisecond)
	assert.Less(t, results[1].Latency, 15*time.Millisecond)
}
