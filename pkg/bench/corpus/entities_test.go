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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

func TestTextEntitySourceLoad(t *testing.T) {
	data := []byte("featurestores/fs/entityTypes/et/entities/a featurestores/fs/entityTypes/et/entities/b\nfeaturestores/fs/entityTypes/et/entities/c")
	m, err := TextEntitySource{Data: data}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, m.IDs("fs", "et"))
	assert.Nil(t, m.IDs("fs", "unknown"))
}

func TestTextEntitySourceMalformed(t *testing.T) {
	_, err := TextEntitySource{Data: []byte("not/a/valid/token")}.Load(context.Background())
	require.Error(t, err)
	var benchErr *bench.Error
	require.ErrorAs(t, err, &benchErr)
	assert.Equal(t, bench.KindInputMalformed, benchErr.Kind)
}

type fakeWarehouse struct {
	rows []WarehouseRow
	err  error
}

func (f fakeWarehouse) QueryEntities(context.Context, string) ([]WarehouseRow, error) {
	return f.rows, f.err
}

func TestWarehouseEntitySourceLoad(t *testing.T) {
	wh := fakeWarehouse{rows: []WarehouseRow{
		{FeaturestoreID: "fs", EntityTypeID: "et", EntityID: "a"},
		{FeaturestoreID: "fs", EntityTypeID: "et", EntityID: "b"},
	}}
	m, err := WarehouseEntitySource{Warehouse: wh, Query: "select *"}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.IDs("fs", "et"))
}
