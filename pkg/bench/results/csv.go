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
	"bytes"
	"fmt"
	"time"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

const csvHeader = "StartTime,Duration\n"

// timestampLayout (with formatDuration below) matches spec.md §4.5 exactly:
// "yyyy-MM-dd HH:mm:ss.SSSSSS" for the start time, "HH:mm:ss.SSSSSS" for
// the duration, both zero-padded to microsecond precision.
const timestampLayout = "2006-01-02 15:04:05.000000"

func encodeRow(r bench.SampleResult) string {
	return fmt.Sprintf("%s,%s\n", r.StartTime.Format(timestampLayout), formatDuration(r.Latency))
}

// formatDuration renders d as HH:mm:ss.SSSSSS, zero-padded. d is always
// non-negative (a measured latency).
func formatDuration(d time.Duration) string {
	total := d.Microseconds()
	micros := total % 1_000_000
	totalSeconds := total / 1_000_000
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d.%06d", hours, minutes, seconds, micros)
}

// csvBuffer accumulates detailed-result rows for the current blob,
// tracking the rotation threshold from spec.md §4.5.
type csvBuffer struct {
	buf bytes.Buffer
}

func newCSVBuffer() *csvBuffer {
	b := &csvBuffer{}
	b.buf.WriteString(csvHeader)
	return b
}

func (b *csvBuffer) writeRow(r bench.SampleResult) {
	b.buf.WriteString(encodeRow(r))
}

func (b *csvBuffer) size() int64 {
	return int64(b.buf.Len())
}

func (b *csvBuffer) bytes() []byte {
	return b.buf.Bytes()
}

func (b *csvBuffer) reset() {
	b.buf.Reset()
	b.buf.WriteString(csvHeader)
}
