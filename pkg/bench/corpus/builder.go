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

// Package corpus implements the request-corpus builder (spec §4.1): it
// parses a request template and an entity corpus, expands "${ENTITY_ID}"
// placeholders, and produces the ordered bench.Corpus a run is driven from.
package corpus

import (
	"context"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// BlobReader fetches the content addressed by a "gs://bucket/object" URI.
// It is the narrow port the builder uses for blob-store template/entity
// inputs; local paths never go through it.
type BlobReader interface {
	ReadBlob(ctx context.Context, gcsURI string) ([]byte, error)
}

// Builder builds a Corpus from a template document and an entity source.
type Builder struct {
	Logger log.Logger
	Blobs  BlobReader // required only if TemplatePath/EntityListingPath use gs://
}

// Input names the template and entity-corpus sources for one Build call.
// At most one of EntityListingPath or WarehouseQuery should be set; if
// both are empty the entity mapping is empty, so "${ENTITY_ID}"
// placeholders expand to no requests and literal entity IDs pass through.
type Input struct {
	TemplatePath      string // local path or gs:// URI
	EntityListingPath string // local path or gs:// URI; mutually exclusive with WarehouseQuery
	WarehouseQuery    string
	Warehouse         Warehouse // required if WarehouseQuery is set
}

const gcsPrefix = "gs://"

func (b *Builder) read(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, gcsPrefix) {
		if b.Blobs == nil {
			return nil, bench.NewError(bench.KindInternal, "corpus.Build", errors.Errorf("no blob reader configured for %q", path))
		}
		data, err := b.Blobs.ReadBlob(ctx, path)
		if err != nil {
			return nil, bench.NewError(bench.KindExternalUnavailable, "corpus.Build", errors.Wrapf(err, "read blob %q", path))
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.Build", errors.Wrapf(err, "read file %q", path))
	}
	return data, nil
}

func (b *Builder) logger() log.Logger {
	if b.Logger == nil {
		return log.NewNopLogger()
	}
	return b.Logger
}

// Build parses in.TemplatePath and the configured entity source, expands
// placeholders, and returns the ordered Corpus. Malformed input of any
// kind fails the whole build; no partial corpus is returned.
func (b *Builder) Build(ctx context.Context, in Input) (bench.Corpus, error) {
	templateData, err := b.read(ctx, in.TemplatePath)
	if err != nil {
		return nil, err
	}
	tmpl, err := parseTemplate(templateData)
	if err != nil {
		return nil, err
	}

	entities, err := b.loadEntities(ctx, in)
	if err != nil {
		return nil, err
	}

	var out bench.Corpus
	for _, group := range tmpl.RequestsPerFeaturestore {
		for _, entry := range group.Requests {
			reqs, err := expand(group.FeaturestoreID, entry, entities)
			if err != nil {
				return nil, err
			}
			out = append(out, reqs...)
		}
	}

	if len(out) == 0 {
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.Build", errors.New("template produced an empty corpus"))
	}
	level.Info(b.logger()).Log("msg", "corpus built", "requests", len(out))
	return out, nil
}

func (b *Builder) loadEntities(ctx context.Context, in Input) (*EntityMap, error) {
	switch {
	case in.WarehouseQuery != "":
		if in.Warehouse == nil {
			return nil, bench.NewError(bench.KindInternal, "corpus.Build", errors.New("warehouse query set without a Warehouse"))
		}
		return WarehouseEntitySource{Warehouse: in.Warehouse, Query: in.WarehouseQuery}.Load(ctx)
	case in.EntityListingPath != "":
		data, err := b.read(ctx, in.EntityListingPath)
		if err != nil {
			return nil, err
		}
		return TextEntitySource{Data: data}.Load(ctx)
	default:
		// No entity source: only valid if the template never references
		// the placeholder. Return an empty map; expand() treats any
		// placeholder lookup against it as zero matches.
		return newEntityMap(), nil
	}
}

// expand turns one template request entry into zero or more bench.Requests,
// applying "${ENTITY_ID}" placeholder expansion per spec.md §4.1.
func expand(featurestoreID string, entry templateEntry, entities *EntityMap) ([]bench.Request, error) {
	switch {
	case entry.Read != nil && entry.Streaming == nil:
		return expandSingle(featurestoreID, entry.Read, entities)
	case entry.Streaming != nil && entry.Read == nil:
		return expandStreaming(featurestoreID, entry.Streaming, entities)
	default:
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.Build",
			errors.Errorf("request for featurestore %q must set exactly one of readFeatureValuesRequest/streamingReadFeatureValuesRequest", featurestoreID))
	}
}

func expandSingle(featurestoreID string, r *readFeatureValuesRequest, entities *EntityMap) ([]bench.Request, error) {
	featureIDs := r.FeatureSelector.IDMatcher.IDs
	if len(featureIDs) == 0 {
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.Build",
			errors.Errorf("read request for featurestore %q entityType %q has no feature ids", featurestoreID, r.EntityType))
	}

	if r.EntityID != entityIDPlaceholder {
		req := bench.Request{
			FeaturestoreID: featurestoreID,
			EntityType:     r.EntityType,
			Kind:           bench.Single,
			EntityID:       r.EntityID,
			FeatureIDs:     featureIDs,
		}
		return []bench.Request{req}, nil
	}

	ids := entities.IDs(featurestoreID, r.EntityType)
	out := make([]bench.Request, 0, len(ids))
	for _, id := range ids {
		out = append(out, bench.Request{
			FeaturestoreID: featurestoreID,
			EntityType:     r.EntityType,
			Kind:           bench.Single,
			EntityID:       id,
			FeatureIDs:     featureIDs,
		})
	}
	return out, nil
}

func expandStreaming(featurestoreID string, r *streamingReadFeatureValuesRequest, entities *EntityMap) ([]bench.Request, error) {
	featureIDs := r.FeatureSelector.IDMatcher.IDs
	if len(featureIDs) == 0 {
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.Build",
			errors.Errorf("streaming request for featurestore %q entityType %q has no feature ids", featurestoreID, r.EntityType))
	}

	entityIDs := r.EntityIDs
	if containsPlaceholder(entityIDs) {
		entityIDs = entities.IDs(featurestoreID, r.EntityType)
	}
	if len(entityIDs) == 0 {
		return nil, bench.NewError(bench.KindInputMalformed, "corpus.Build",
			errors.Errorf("streaming request for featurestore %q entityType %q resolved to no entity ids", featurestoreID, r.EntityType))
	}

	req := bench.Request{
		FeaturestoreID: featurestoreID,
		EntityType:     r.EntityType,
		Kind:           bench.Streaming,
		EntityIDs:      entityIDs,
		FeatureIDs:     featureIDs,
	}
	return []bench.Request{req}, nil
}
