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

// Package results implements the Results Writer: it streams measured
// SampleResults to detailed CSV blobs, loads each finished CSV into a
// warehouse table, and writes the final aggregate summary.
package results

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/google/vertex-ai-benchmarker/internal/gcspath"
	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// Writer is the top-level Results Writer: it owns the detailed-blob sink
// and, optionally, the aggregate blob and warehouse table destinations.
type Writer struct {
	Identity bench.RunIdentity
	Blobs    BlobStore // nil means console-only: no blob outputs
	GCSRoot  string     // "gs://bucket/prefix"; empty means console-only
	Logger   log.Logger

	Warehouse *Warehouse

	root     gcspath.Path
	detailed *DetailedBlobSink
}

// NewDetailedSink builds the streaming sink the Load Manager's Sink
// interface is satisfied by, wiring blob writes to warehouse loads when
// both a blob store and a warehouse are configured.
func (w *Writer) NewDetailedSink(ctx context.Context) (*DetailedBlobSink, error) {
	if w.Logger == nil {
		w.Logger = log.NewNopLogger()
	}
	if w.Blobs == nil || w.GCSRoot == "" {
		return nil, nil
	}

	root, err := gcspath.Parse(w.GCSRoot)
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "results.NewDetailedSink", err)
	}
	w.root = root

	onRotate := func(ctx context.Context, n int, data []byte) error {
		if w.Warehouse == nil {
			return nil
		}
		uri := w.root.String() + w.Identity.DetailedObjectName(n)
		return w.Warehouse.LoadCSV(ctx, uri, n)
	}

	sink, err := NewDetailedBlobSink(w.Blobs, w.GCSRoot, w.Identity, onRotate, w.Logger)
	if err != nil {
		return nil, err
	}
	w.detailed = sink
	return sink, nil
}

// WriteAggregate prints the aggregate summary to the console and, if a
// blob store is configured, also writes it as a blob artifact. The
// console line is unconditional: the blob write is an additional copy,
// not a substitute (spec.md §6, §7).
func (w *Writer) WriteAggregate(ctx context.Context, agg bench.Aggregate) error {
	summary := agg.String()
	level.Info(w.Logger).Log("msg", "aggregate results", "summary", summary)
	fmt.Print(summary)

	if w.detailed != nil {
		if err := w.detailed.Close(ctx); err != nil {
			return err
		}
	}

	if w.Blobs == nil || w.GCSRoot == "" {
		return nil
	}

	return w.Blobs.WriteObject(ctx, w.root.Bucket, w.root.Object(w.Identity.AggregateObjectName()), []byte(summary))
}
