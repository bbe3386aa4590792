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

package corpus

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// EntityMap is the intermediate featurestoreId -> entityType -> ordered
// entity IDs mapping the builder expands "${ENTITY_ID}" placeholders
// against. Duplicates are preserved in insertion order.
type EntityMap struct {
	byKey map[string][]string
}

func newEntityMap() *EntityMap {
	return &EntityMap{byKey: map[string][]string{}}
}

func entityKey(featurestoreID, entityType string) string {
	return featurestoreID + "\x00" + entityType
}

func (m *EntityMap) add(featurestoreID, entityType, entityID string) {
	key := entityKey(featurestoreID, entityType)
	m.byKey[key] = append(m.byKey[key], entityID)
}

// IDs returns the ordered entity IDs known for (featurestoreID, entityType).
// Returns nil if the pair is unknown.
func (m *EntityMap) IDs(featurestoreID, entityType string) []string {
	return m.byKey[entityKey(featurestoreID, entityType)]
}

// EntitySource produces an EntityMap, either by parsing a textual listing
// or by querying a warehouse.
type EntitySource interface {
	Load(ctx context.Context) (*EntityMap, error)
}

// entityListingSegments is the fixed segment count of a valid entity token:
// featurestores/{FS}/entityTypes/{ET}/entities/{ID}.
const entityListingSegments = 6

// TextEntitySource parses a whitespace-delimited entity listing: each
// token is a six-segment path "featurestores/{FS}/entityTypes/{ET}/entities/{ID}".
type TextEntitySource struct {
	Data []byte
}

// Load implements EntitySource.
func (s TextEntitySource) Load(context.Context) (*EntityMap, error) {
	m := newEntityMap()

	scanner := bufio.NewScanner(bytes.NewReader(s.Data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	for scanner.Scan() {
		token := scanner.Text()
		segs := strings.Split(token, "/")
		if len(segs) != entityListingSegments || segs[0] != "featurestores" || segs[2] != "entityTypes" || segs[4] != "entities" {
			return nil, bench.NewError(bench.KindInputMalformed, "corpus.ParseEntityListing",
				errors.Errorf("entity token %q does not match featurestores/{FS}/entityTypes/{ET}/entities/{ID}", token))
		}
		m.add(segs[1], segs[3], segs[5])
	}
	if err := scanner.Err(); err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.ParseEntityListing", err)
	}
	return m, nil
}

// WarehouseRow is one row returned by a warehouse entity query: the
// columns "featurestore_id", "entity_type_id", "entity_id".
type WarehouseRow struct {
	FeaturestoreID string
	EntityTypeID   string
	EntityID       string
}

// Warehouse is the narrow port to the data warehouse used to resolve an
// entity query into rows.
type Warehouse interface {
	QueryEntities(ctx context.Context, query string) ([]WarehouseRow, error)
}

// WarehouseEntitySource resolves the entity mapping by executing a query
// against a Warehouse.
type WarehouseEntitySource struct {
	Warehouse Warehouse
	Query     string
}

// Load implements EntitySource.
func (s WarehouseEntitySource) Load(ctx context.Context) (*EntityMap, error) {
	rows, err := s.Warehouse.QueryEntities(ctx, s.Query)
	if err != nil {
		return nil, bench.NewError(bench.KindExternalUnavailable, "corpus.QueryWarehouse", err)
	}
	m := newEntityMap()
	for _, row := range rows {
		m.add(row.FeaturestoreID, row.EntityTypeID, row.EntityID)
	}
	return m, nil
}
