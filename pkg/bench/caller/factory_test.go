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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

func TestParseAPIVersion(t *testing.T) {
	v, err := ParseAPIVersion("v1")
	require.NoError(t, err)
	assert.Equal(t, V1, v)

	v, err = ParseAPIVersion("v1beta1")
	require.NoError(t, err)
	assert.Equal(t, V1beta1, v)

	_, err = ParseAPIVersion("v2")
	require.Error(t, err)
	var benchErr *bench.Error
	require.ErrorAs(t, err, &benchErr)
	assert.Equal(t, bench.KindInputMalformed, benchErr.Kind)
}

func TestConfigEndpoint(t *testing.T) {
	cfg := Config{Location: "us-central1"}
	assert.Equal(t, "us-central1-aiplatform.googleapis.com:443", cfg.Endpoint())

	cfg.EndpointOverride = "localhost:1234"
	assert.Equal(t, "localhost:1234", cfg.Endpoint())
}
