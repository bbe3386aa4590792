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

package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000000"},
		{1500 * time.Microsecond, "00:00:00.001500"},
		{90 * time.Second, "00:01:30.000000"},
		{time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, "01:02:03.004000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, formatDuration(c.d))
	}
}

func TestEncodeRow(t *testing.T) {
	start := time.Date(2026, 7, 29, 12, 30, 0, 0, time.UTC)
	r := bench.SampleResult{StartTime: start, Latency: 250 * time.Millisecond}
	assert.Equal(t, "2026-07-29 12:30:00.000000,00:00:00.250000\n", encodeRow(r))
}

func TestCSVBufferAccumulatesAndResets(t *testing.T) {
	b := newCSVBuffer()
	assert.Equal(t, csvHeader, string(b.bytes()))

	b.writeRow(bench.SampleResult{Latency: time.Millisecond})
	assert.Greater(t, b.size(), int64(len(csvHeader)))

	b.reset()
	assert.Equal(t, csvHeader, string(b.bytes()))
}
