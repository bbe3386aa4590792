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

package bench

import "fmt"

// Kind classifies a failure so callers (in particular the CLI boundary)
// can decide how to react without string-matching error text.
type Kind int

const (
	// KindInternal signals an invariant violation; always a bug.
	KindInternal Kind = iota
	// KindInputMalformed signals bad template/entity/GCS-path input.
	KindInputMalformed
	// KindExternalUnavailable signals a blob, warehouse, or RPC transport failure.
	KindExternalUnavailable
	// KindExecutionTimeout signals a sample pool that did not terminate in time.
	KindExecutionTimeout
)

func (k Kind) String() string {
	switch k {
	case KindInputMalformed:
		return "input_malformed"
	case KindExternalUnavailable:
		return "external_unavailable"
	case KindExecutionTimeout:
		return "execution_timeout"
	default:
		return "internal"
	}
}

// Error is the error type returned by every exported operation in this
// module. Op names the failing operation (e.g. "corpus.Build").
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with an operation name and a failure kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
