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
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	bigqueryv2 "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"golang.org/x/time/rate"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// jobPollQPS and jobPollBurst throttle load-job status polling so a slow
// job doesn't hammer the BigQuery jobs.get endpoint.
const (
	jobPollQPS   = 2.0
	jobPollBurst = 1
)

// jobPollInterval is the floor between polls even when the limiter would
// allow more.
const jobPollInterval = 500 * time.Millisecond

// Warehouse loads detailed-result CSVs into a BigQuery table, creating
// the destination dataset on first use.
type Warehouse struct {
	svc       *bigqueryv2.Service
	project   string
	dataset   string
	table     string
	throttle  *rate.Limiter
	logger    log.Logger
	provisioned bool
}

// NewWarehouse dials BigQuery with default application credentials.
func NewWarehouse(ctx context.Context, project, dataset, table string, logger log.Logger, opts ...option.ClientOption) (*Warehouse, error) {
	svc, err := bigqueryv2.NewService(ctx, opts...)
	if err != nil {
		return nil, bench.NewError(bench.KindExternalUnavailable, "results.NewWarehouse", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Warehouse{
		svc:      svc,
		project:  project,
		dataset:  dataset,
		table:    table,
		throttle: rate.NewLimiter(jobPollQPS, jobPollBurst),
		logger:   logger,
	}, nil
}

// LoadCSV loads one detailed-result CSV, identified by its GCS object
// URI, into the warehouse table. n selects write disposition: the first
// CSV (n == 1) truncates the table, subsequent CSVs append.
func (w *Warehouse) LoadCSV(ctx context.Context, gcsURI string, n int) error {
	if err := w.ensureDataset(ctx); err != nil {
		return err
	}

	disposition := "WRITE_APPEND"
	if n == 1 {
		disposition = "WRITE_TRUNCATE"
	}

	job := &bigqueryv2.Job{
		Configuration: &bigqueryv2.JobConfiguration{
			Load: &bigqueryv2.JobConfigurationLoad{
				SourceUris:        []string{gcsURI},
				SourceFormat:      "CSV",
				SkipLeadingRows:   1,
				WriteDisposition:  disposition,
				Autodetect:        true,
				DestinationTable: &bigqueryv2.TableReference{
					ProjectId: w.project,
					DatasetId: w.dataset,
					TableId:   w.table,
				},
			},
		},
	}

	inserted, err := w.svc.Jobs.Insert(w.project, job).Context(ctx).Do()
	if err != nil {
		return bench.NewError(bench.KindExternalUnavailable, "results.LoadCSV", errors.Wrapf(err, "insert load job for %s", gcsURI))
	}
	return w.awaitJob(ctx, inserted.JobReference)
}

// awaitJob blocks, per spec.md §5's "Warehouse jobs are synchronous"
// rule, until the load job reaches a terminal state. Polling is
// rate-limited so a long-running job doesn't flood jobs.get.
func (w *Warehouse) awaitJob(ctx context.Context, ref *bigqueryv2.JobReference) error {
	for {
		r := w.throttle.Reserve()
		if !r.OK() {
			return bench.NewError(bench.KindExternalUnavailable, "results.LoadCSV", errors.New("job-poll rate limiter cannot reserve a slot"))
		}
		select {
		case <-ctx.Done():
			return bench.NewError(bench.KindExecutionTimeout, "results.LoadCSV", ctx.Err())
		case <-time.After(r.Delay()):
		}

		job, err := w.svc.Jobs.Get(w.project, ref.JobId).Location(ref.Location).Context(ctx).Do()
		if err != nil {
			return bench.NewError(bench.KindExternalUnavailable, "results.LoadCSV", err)
		}
		if job.Status.State != "DONE" {
			time.Sleep(jobPollInterval)
			continue
		}
		if job.Status.ErrorResult != nil {
			return bench.NewError(bench.KindExternalUnavailable, "results.LoadCSV", errors.Errorf("load job %s failed: %s", ref.JobId, job.Status.ErrorResult.Message))
		}
		return nil
	}
}

// ensureDataset creates the destination dataset if it doesn't already
// exist; per spec.md §4.5, later writes assume presence.
func (w *Warehouse) ensureDataset(ctx context.Context) error {
	if w.provisioned {
		return nil
	}
	_, err := w.svc.Datasets.Get(w.project, w.dataset).Context(ctx).Do()
	if err == nil {
		w.provisioned = true
		return nil
	}
	if apiErr, ok := err.(*googleapi.Error); !ok || apiErr.Code != 404 {
		return bench.NewError(bench.KindExternalUnavailable, "results.ensureDataset", err)
	}

	level.Info(w.logger).Log("msg", "provisioning dataset", "dataset", w.dataset)
	ds := &bigqueryv2.Dataset{
		DatasetReference: &bigqueryv2.DatasetReference{ProjectId: w.project, DatasetId: w.dataset},
	}
	if _, err := w.svc.Datasets.Insert(w.project, ds).Context(ctx).Do(); err != nil {
		return bench.NewError(bench.KindExternalUnavailable, "results.ensureDataset", err)
	}
	w.provisioned = true
	return nil
}
