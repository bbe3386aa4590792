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

package bench

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// SampleResult is one timed task: when it started, and how long it took.
// Produced by a Sample Executor worker, consumed by the Load Manager's
// aggregator and by the Results Writer.
type SampleResult struct {
	StartTime time.Time
	Latency   time.Duration
}

// Aggregate is the set of summary statistics over measured samples' latencies:
// Min, Max and Mean over millisecond-truncated latencies, percentiles
// interpolated over nanosecond latencies and expressed in milliseconds.
type Aggregate struct {
	Min, Max, Mean, P90, P95, P99 float64 // milliseconds
}

// String renders the aggregate in the exact one-line format spec.md §6
// requires for the aggregate output artifact and stdout. Percentiles are
// rounded (not truncated) to the nearest millisecond for display; min/max
// are already whole milliseconds.
func (a Aggregate) String() string {
	return fmt.Sprintf("Min: %dms, Max: %dms, Average: %.2fms, P90: %dms, P95: %dms, P99: %dms\n",
		int64(a.Min), int64(a.Max), a.Mean,
		int64(math.Round(a.P90)), int64(math.Round(a.P95)), int64(math.Round(a.P99)))
}

// RunIdentity names every output artifact produced by one run, so that
// concurrent runs never collide.
type RunIdentity struct {
	Timestamp string // formatted at construction time
	UUID      string
}

// dateLayout matches the "{date}" token used throughout spec.md §4.5/§6
// for artifact naming.
const dateLayout = "20060102"

// NewRunIdentity derives a RunIdentity from the given instant.
func NewRunIdentity(now time.Time) RunIdentity {
	return RunIdentity{
		Timestamp: now.Format(dateLayout),
		UUID:      uuid.NewString(),
	}
}

// AggregateObjectName is the blob name for the aggregate summary artifact.
func (id RunIdentity) AggregateObjectName() string {
	return fmt.Sprintf("aggregated_results_%s_%s.txt", id.Timestamp, id.UUID)
}

// DetailedObjectName is the blob name for the n-th (1-indexed) detailed
// results CSV artifact.
func (id RunIdentity) DetailedObjectName(n int) string {
	return fmt.Sprintf("detailed_results_%s_%s_%d.csv", id.Timestamp, id.UUID, n)
}

// TableName is the warehouse table all detailed CSVs for this run are
// loaded into.
func (id RunIdentity) TableName() string {
	return fmt.Sprintf("loadtest_result_table_%s_%s", id.Timestamp, id.UUID)
}

// DefaultDatasetName is the dataset name used when the caller does not
// configure one explicitly.
func (id RunIdentity) DefaultDatasetName(qps int) string {
	return fmt.Sprintf("vertex_ai_benchmarker_results_%d_%s", qps, id.UUID)
}
