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
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
	"github.com/google/vertex-ai-benchmarker/internal/gcspath"
)

// rotationThreshold is the accumulated detailed-CSV byte size that
// triggers closing the current blob and opening the next one, per
// spec.md §4.5. It is a var, not a const, so tests can shrink it rather
// than writing two billion bytes of CSV to exercise rotation.
var rotationThreshold int64 = 2_000_000_000

// BlobStore is the narrow GCS capability the results writer needs: write
// one object's full contents and read one object's full contents (the
// latter reused by the corpus builder's BlobReader).
type BlobStore interface {
	WriteObject(ctx context.Context, bucket, object string, data []byte) error
	ReadObject(ctx context.Context, bucket, object string) ([]byte, error)
}

// GCSBlobStore implements BlobStore against the JSON/REST Cloud Storage
// API, the same google.golang.org/api surface used elsewhere in this
// module for auth and transport.
type GCSBlobStore struct {
	svc *storagev1.Service
}

// NewGCSBlobStore dials Cloud Storage with default application credentials.
func NewGCSBlobStore(ctx context.Context, opts ...option.ClientOption) (*GCSBlobStore, error) {
	svc, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, bench.NewError(bench.KindExternalUnavailable, "results.NewGCSBlobStore", err)
	}
	return &GCSBlobStore{svc: svc}, nil
}

// WriteObject implements BlobStore.
func (s *GCSBlobStore) WriteObject(ctx context.Context, bucket, object string, data []byte) error {
	obj := &storagev1.Object{Bucket: bucket, Name: object}
	_, err := s.svc.Objects.Insert(bucket, obj).Media(bytes.NewReader(data)).Context(ctx).Do()
	if err != nil {
		return bench.NewError(bench.KindExternalUnavailable, "results.WriteObject", errors.Wrapf(err, "write gs://%s/%s", bucket, object))
	}
	return nil
}

// ReadObject implements BlobStore.
func (s *GCSBlobStore) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	resp, err := s.svc.Objects.Get(bucket, object).Context(ctx).Download()
	if err != nil {
		return nil, bench.NewError(bench.KindExternalUnavailable, "results.ReadObject", errors.Wrapf(err, "read gs://%s/%s", bucket, object))
	}
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, bench.NewError(bench.KindExternalUnavailable, "results.ReadObject", err)
	}
	return buf.Bytes(), nil
}

// ReadBlob implements corpus.BlobReader by parsing the gs:// URI and
// delegating to ReadObject.
func (s *GCSBlobStore) ReadBlob(ctx context.Context, gcsURI string) ([]byte, error) {
	bucket, object, err := gcspath.ParseObject(gcsURI)
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "results.ReadBlob", err)
	}
	return s.ReadObject(ctx, bucket, object)
}

// DetailedBlobSink writes detailed SampleResult CSVs to a blob store
// root, rotating between objects at rotationThreshold bytes and invoking
// onRotate(n, data) for every object it finalizes (used by the BigQuery
// loader to load each CSV as it's closed).
type DetailedBlobSink struct {
	store    BlobStore
	root     gcspath.Path
	identity bench.RunIdentity
	logger   log.Logger

	onRotate func(ctx context.Context, n int, data []byte) error

	buf *csvBuffer
	n   int
}

// NewDetailedBlobSink builds a sink rooted at gcsRoot ("gs://bucket/prefix").
func NewDetailedBlobSink(store BlobStore, gcsRoot string, identity bench.RunIdentity, onRotate func(ctx context.Context, n int, data []byte) error, logger log.Logger) (*DetailedBlobSink, error) {
	root, err := gcspath.Parse(gcsRoot)
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "results.NewDetailedBlobSink", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &DetailedBlobSink{store: store, root: root, identity: identity, onRotate: onRotate, logger: logger, buf: newCSVBuffer(), n: 1}, nil
}

// WriteSample appends one sample's SampleResults to the current detailed
// CSV, rotating to a new blob first if the append would exceed the
// rotation threshold.
func (s *DetailedBlobSink) WriteSample(ctx context.Context, batch []bench.SampleResult) error {
	for _, r := range batch {
		rowLen := int64(len(encodeRow(r)))
		if s.buf.size()+rowLen > rotationThreshold && s.buf.size() > int64(len(csvHeader)) {
			if err := s.rotate(ctx); err != nil {
				return err
			}
		}
		s.buf.writeRow(r)
	}
	return nil
}

// Close flushes the final, possibly partial, detailed blob.
func (s *DetailedBlobSink) Close(ctx context.Context) error {
	return s.rotate(ctx)
}

func (s *DetailedBlobSink) rotate(ctx context.Context) error {
	name := s.identity.DetailedObjectName(s.n)
	data := append([]byte(nil), s.buf.bytes()...)
	level.Debug(s.logger).Log("msg", "flushing detailed results blob", "object", name, "bytes", len(data))
	if err := s.store.WriteObject(ctx, s.root.Bucket, s.root.Object(name), data); err != nil {
		return err
	}
	if s.onRotate != nil {
		if err := s.onRotate(ctx, s.n, data); err != nil {
			return err
		}
	}
	s.n++
	s.buf.reset()
	return nil
}
