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

package manager

import (
	"math"
	"sort"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// aggregate computes min/max/mean/p90/p95/p99 over the measured samples'
// latencies, per spec.md §4.2. Latencies are truncated to millisecond
// precision before min/max/mean but percentile interpolation is carried
// in nanoseconds and only the final result is rendered in milliseconds.
func aggregate(samples []bench.SampleResult) bench.Aggregate {
	if len(samples) == 0 {
		return bench.Aggregate{}
	}

	sortedNS := make([]float64, len(samples))
	for i, s := range samples {
		sortedNS[i] = float64(s.Latency.Nanoseconds())
	}
	sort.Float64s(sortedNS)

	msTrunc := make([]float64, len(sortedNS))
	var sumMS float64
	for i, ns := range sortedNS {
		ms := math.Trunc(ns / 1e6)
		msTrunc[i] = ms
		sumMS += ms
	}

	return bench.Aggregate{
		Min:  msTrunc[0],
		Max:  msTrunc[len(msTrunc)-1],
		Mean: sumMS / float64(len(msTrunc)),
		P90:  percentileMS(sortedNS, 90),
		P95:  percentileMS(sortedNS, 95),
		P99:  percentileMS(sortedNS, 99),
	}
}

// percentileMS interpolates percentile X (0-100) over sortedNS (ascending,
// nanosecond precision) and renders the result in milliseconds.
func percentileMS(sortedNS []float64, x float64) float64 {
	n := len(sortedNS)
	if n == 1 {
		return sortedNS[0] / 1e6
	}
	stride := 100.0 / float64(n-1)
	floor := int(math.Floor(x * float64(n-1) / 100.0))
	if floor >= n-1 {
		floor = n - 2
	}
	frac := (x - stride*float64(floor)) / stride
	resultNS := sortedNS[floor] + frac*(sortedNS[floor+1]-sortedNS[floor])
	return resultNS / 1e6
}
