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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

const templateYAML = `
requestsPerFeaturestore:
  - featurestoreId: fs1
    requests:
      - readFeatureValuesRequest:
          entityType: et1
          entityId: "${ENTITY_ID}"
          featureSelector:
            idMatcher:
              ids: ["f1", "f2"]
`

const entityListing = "featurestores/fs1/entityTypes/et1/entities/a featurestores/fs1/entityTypes/et1/entities/b featurestores/fs1/entityTypes/et1/entities/c"

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuilderExpandsPlaceholder(t *testing.T) {
	templatePath := writeTemp(t, "template.yaml", templateYAML)
	entityPath := writeTemp(t, "entities.txt", entityListing)

	b := &Builder{}
	c, err := b.Build(context.Background(), Input{TemplatePath: templatePath, EntityListingPath: entityPath})
	require.NoError(t, err)

	require.Len(t, c, 3)
	var ids []string
	for _, req := range c {
		assert.Equal(t, bench.Single, req.Kind)
		assert.Equal(t, []string{"f1", "f2"}, req.FeatureIDs)
		ids = append(ids, req.EntityID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

const literalTemplateYAML = `
requestsPerFeaturestore:
  - featurestoreId: fs1
    requests:
      - readFeatureValuesRequest:
          entityType: et1
          entityId: "literal-entity"
          featureSelector:
            idMatcher:
              ids: ["f1"]
`

func TestBuilderPassesThroughLiteralEntityID(t *testing.T) {
	templatePath := writeTemp(t, "template.yaml", literalTemplateYAML)

	b := &Builder{}
	c, err := b.Build(context.Background(), Input{TemplatePath: templatePath})
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, "literal-entity", c[0].EntityID)
}

func TestBuilderEmptyCorpusIsError(t *testing.T) {
	templatePath := writeTemp(t, "template.yaml", templateYAML)

	b := &Builder{}
	_, err := b.Build(context.Background(), Input{TemplatePath: templatePath, EntityListingPath: writeTemp(t, "empty.txt", "")})
	require.Error(t, err)
	var benchErr *bench.Error
	require.ErrorAs(t, err, &benchErr)
	assert.Equal(t, bench.KindInputMalformed, benchErr.Kind)
}

func TestBuilderMissingTemplateFileFails(t *testing.T) {
	b := &Builder{}
	_, err := b.Build(context.Background(), Input{TemplatePath: "/no/such/file.yaml"})
	require.Error(t, err)
	var benchErr *bench.Error
	require.ErrorAs(t, err, &benchErr)
	assert.Equal(t, bench.KindInputMalformed, benchErr.Kind)
}

const streamingTemplateYAML = `
requestsPerFeaturestore:
  - featurestoreId: fs1
    requests:
      - streamingReadFeatureValuesRequest:
          entityType: et1
          entityIds: ["${ENTITY_ID}"]
          featureSelector:
            idMatcher:
              ids: ["f1"]
`

func TestBuilderStreamingExpandsWholeList(t *testing.T) {
	templatePath := writeTemp(t, "template.yaml", streamingTemplateYAML)
	entityPath := writeTemp(t, "entities.txt", entityListing)

	b := &Builder{}
	c, err := b.Build(context.Background(), Input{TemplatePath: templatePath, EntityListingPath: entityPath})
	require.NoError(t, err)
	require.Len(t, c, 1)
	assert.Equal(t, bench.Streaming, c[0].Kind)
	assert.Equal(t, []string{"a", "b", "c"}, c[0].EntityIDs)
}
