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

package manager

import (
	"math/rand"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// SampleStrategy selects how the work queue is derived from the corpus.
type SampleStrategy int

const (
	// InOrder keeps the corpus's own ordering.
	InOrder SampleStrategy = iota
	// Shuffled applies a seeded Fisher-Yates shuffle, fixed for the run.
	Shuffled
)

// buildWorkQueue derives the fixed work queue for a run. For Shuffled, seed
// nil means a nondeterministic shuffle; a non-nil seed makes the shuffle
// reproducible across runs.
func buildWorkQueue(corpus bench.Corpus, strategy SampleStrategy, seed *int64) []bench.Request {
	queue := make([]bench.Request, len(corpus))
	copy(queue, corpus)

	if strategy != Shuffled {
		return queue
	}

	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	fisherYates(queue, rng)
	return queue
}

// fisherYates shuffles queue in place.
func fisherYates(queue []bench.Request, rng *rand.Rand) {
	for i := len(queue) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		queue[i], queue[j] = queue[j], queue[i]
	}
}
