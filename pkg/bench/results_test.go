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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateString(t *testing.T) {
	agg := Aggregate{Min: 10, Max: 50, Mean: 30, P90: 46, P95: 48, P99: 49.6}
	got := agg.String()
	assert.Equal(t, "Min: 10ms, Max: 50ms, Average: 30.00ms, P90: 46ms, P95: 48ms, P99: 50ms\n", got)
}

func TestRunIdentityNaming(t *testing.T) {
	now, err := time.Parse(time.RFC3339, "2026-07-29T10:00:00Z")
	require.NoError(t, err)
	id := NewRunIdentity(now)

	assert.Equal(t, "20260729", id.Timestamp)
	assert.NotEmpty(t, id.UUID)
	assert.Equal(t, "aggregated_results_20260729_"+id.UUID+".txt", id.AggregateObjectName())
	assert.Equal(t, "detailed_results_20260729_"+id.UUID+"_1.csv", id.DetailedObjectName(1))
	assert.Equal(t, "loadtest_result_table_20260729_"+id.UUID, id.TableName())
	assert.Equal(t, "vertex_ai_benchmarker_results_100_"+id.UUID, id.DefaultDatasetName(100))
}
