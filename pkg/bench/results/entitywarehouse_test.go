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
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/google/vertex-ai-benchmarker/pkg/bench/corpus"
)

func TestEntityWarehouseQueryEntitiesMapsColumns(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bigquery/v2/projects/proj/queries", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"schema": {"fields": [
				{"name": "entity_type_id", "type": "STRING"},
				{"name": "featurestore_id", "type": "STRING"},
				{"name": "entity_id", "type": "STRING"}
			]},
			"rows": [
				{"f": [{"v": "users"}, {"v": "fs1"}, {"v": "e1"}]},
				{"f": [{"v": "users"}, {"v": "fs1"}, {"v": "e2"}]}
			]
		}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wh, err := NewEntityWarehouse(context.Background(), "proj",
		option.WithEndpoint(ts.URL), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	rows, err := wh.QueryEntities(context.Background(), "SELECT * FROM `proj.ds.entities`")
	require.NoError(t, err)
	assert.Equal(t, []corpus.WarehouseRow{
		{FeaturestoreID: "fs1", EntityTypeID: "users", EntityID: "e1"},
		{FeaturestoreID: "fs1", EntityTypeID: "users", EntityID: "e2"},
	}, rows)
}

func TestEntityWarehouseQueryEntitiesMissingColumn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bigquery/v2/projects/proj/queries", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"schema": {"fields": [{"name": "entity_id", "type": "STRING"}]},
			"rows": [{"f": [{"v": "e1"}]}]
		}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wh, err := NewEntityWarehouse(context.Background(), "proj",
		option.WithEndpoint(ts.URL), option.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	_, err = wh.QueryEntities(context.Background(), "SELECT entity_id FROM t")
	assert.Error(t, err)
}
