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
	"gopkg.in/yaml.v3"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// entityIDPlaceholder is the literal token that, in an entity-id field,
// means "expand to every known entity ID for this (featurestore, entityType)".
const entityIDPlaceholder = "${ENTITY_ID}"

// template is the YAML encoding of the request-template document described
// in spec.md §6. Field order in requestsPerFeaturestore/requests reflects
// declaration order, which is also corpus traversal order.
type template struct {
	RequestsPerFeaturestore []requestsPerFeaturestore `yaml:"requestsPerFeaturestore"`
}

type requestsPerFeaturestore struct {
	FeaturestoreID string          `yaml:"featurestoreId"`
	Requests       []templateEntry `yaml:"requests"`
}

// templateEntry is the oneof { ReadFeatureValuesRequest | StreamingReadFeatureValuesRequest }.
// Exactly one of Read/Streaming is expected to be set per entry.
type templateEntry struct {
	Read      *readFeatureValuesRequest          `yaml:"readFeatureValuesRequest,omitempty"`
	Streaming *streamingReadFeatureValuesRequest `yaml:"streamingReadFeatureValuesRequest,omitempty"`
}

type readFeatureValuesRequest struct {
	EntityType      string          `yaml:"entityType"`
	EntityID        string          `yaml:"entityId"`
	FeatureSelector featureSelector `yaml:"featureSelector"`
}

type streamingReadFeatureValuesRequest struct {
	EntityType      string          `yaml:"entityType"`
	EntityIDs       []string        `yaml:"entityIds"`
	FeatureSelector featureSelector `yaml:"featureSelector"`
}

type featureSelector struct {
	IDMatcher idMatcher `yaml:"idMatcher"`
}

type idMatcher struct {
	IDs []string `yaml:"ids"`
}

// parseTemplate decodes a request-template document.
func parseTemplate(data []byte) (*template, error) {
	var t template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.ParseTemplate", err)
	}
	return &t, nil
}

func containsPlaceholder(ids []string) bool {
	for _, id := range ids {
		if id == entityIDPlaceholder {
			return true
		}
	}
	return false
}
