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

package caller

import (
	"context"

	"github.com/pkg/errors"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// Factory builds the concrete Caller named by a run's configuration. It
// is the single seam test code substitutes an arithmetic.Caller through.
type Factory func(ctx context.Context) (Caller, func() error, error)

// GRPC returns a Factory that dials a real V1/V1beta1 channel. The
// returned close func releases the channel; callers invoke it at DONE.
func GRPC(version APIVersion, cfg Config) Factory {
	return func(ctx context.Context) (Caller, func() error, error) {
		c, err := New(ctx, version, cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}

// Static wraps an already-constructed Caller (used by tests and by the
// arithmetic test-mode caller) as a Factory with a no-op close.
func Static(c Caller) Factory {
	return func(context.Context) (Caller, func() error, error) {
		return c, func() error { return nil }, nil
	}
}

// ParseAPIVersion validates a CLI-supplied API version string.
func ParseAPIVersion(s string) (APIVersion, error) {
	switch APIVersion(s) {
	case V1:
		return V1, nil
	case V1beta1:
		return V1beta1, nil
	default:
		return "", bench.NewError(bench.KindInputMalformed, "caller.ParseAPIVersion", errors.Errorf("unknown API version %q, want %q or %q", s, V1, V1beta1))
	}
}
