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

	"github.com/pkg/errors"
	bigqueryv2 "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
	"github.com/google/vertex-ai-benchmarker/pkg/bench/corpus"
)

// EntityWarehouse runs a corpus builder's entity-listing query against
// BigQuery, implementing corpus.Warehouse. It is a distinct, narrower
// capability than Warehouse (which loads detailed-result CSVs): this one
// only ever reads.
type EntityWarehouse struct {
	svc     *bigqueryv2.Service
	project string
}

// NewEntityWarehouse dials BigQuery with default application credentials.
func NewEntityWarehouse(ctx context.Context, project string, opts ...option.ClientOption) (*EntityWarehouse, error) {
	svc, err := bigqueryv2.NewService(ctx, opts...)
	if err != nil {
		return nil, bench.NewError(bench.KindExternalUnavailable, "results.NewEntityWarehouse", err)
	}
	return &EntityWarehouse{svc: svc, project: project}, nil
}

// QueryEntities implements corpus.Warehouse.
func (w *EntityWarehouse) QueryEntities(ctx context.Context, query string) ([]corpus.WarehouseRow, error) {
	resp, err := w.svc.Jobs.Query(w.project, &bigqueryv2.QueryRequest{
		Query:        query,
		UseLegacySql: false,
	}).Context(ctx).Do()
	if err != nil {
		return nil, bench.NewError(bench.KindExternalUnavailable, "results.QueryEntities", errors.Wrap(err, "execute entity query"))
	}

	cols := make(map[string]int, len(resp.Schema.Fields))
	for i, f := range resp.Schema.Fields {
		cols[f.Name] = i
	}
	idx := func(name string) (int, error) {
		i, ok := cols[name]
		if !ok {
			return 0, errors.Errorf("entity query result is missing required column %q", name)
		}
		return i, nil
	}
	fsIdx, err := idx("featurestore_id")
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "results.QueryEntities", err)
	}
	etIdx, err := idx("entity_type_id")
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "results.QueryEntities", err)
	}
	eidIdx, err := idx("entity_id")
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "results.QueryEntities", err)
	}

	rows := make([]corpus.WarehouseRow, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rows = append(rows, corpus.WarehouseRow{
			FeaturestoreID: cellString(row, fsIdx),
			EntityTypeID:   cellString(row, etIdx),
			EntityID:       cellString(row, eidIdx),
		})
	}
	return rows, nil
}

func cellString(row *bigqueryv2.TableRow, idx int) string {
	if idx >= len(row.F) || row.F[idx].V == nil {
		return ""
	}
	s, _ := row.F[idx].V.(string)
	return s
}
