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

// Package arithmetic is a test-only Caller: it decodes "add(a,b)" tasks
// encoded as a bench.Request and records their sums, so the Load Manager
// and Sample Executor can be exercised end to end without a live
// feature-retrieval endpoint (spec.md §8 scenarios 1 and 2).
package arithmetic

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

const (
	featurestoreID = "arithmetic"
	entityType     = "add"
	featureID      = "sum"
)

// EncodeRequest builds a single Request that stands for "add(a, b)".
func EncodeRequest(a, b int) bench.Request {
	return bench.Request{
		FeaturestoreID: featurestoreID,
		EntityType:     entityType,
		Kind:           bench.Single,
		EntityID:       fmt.Sprintf("%d,%d", a, b),
		FeatureIDs:     []string{featureID},
	}
}

// Caller computes a+b for each issued Request and appends the sum, in
// completion order, to Sums. Safe for concurrent use.
type Caller struct {
	mu   sync.Mutex
	Sums []int
}

// Issue implements caller.Caller.
func (c *Caller) Issue(_ context.Context, req bench.Request) error {
	a, b, err := decode(req.EntityID)
	if err != nil {
		return bench.NewError(bench.KindInputMalformed, "arithmetic.Issue", err)
	}
	c.mu.Lock()
	c.Sums = append(c.Sums, a+b)
	c.mu.Unlock()
	return nil
}

func decode(entityID string) (int, int, error) {
	parts := strings.SplitN(entityID, ",", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("entity id %q is not an add(a,b) encoding", entityID)
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "parse a from %q", entityID)
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "parse b from %q", entityID)
	}
	return a, b, nil
}
