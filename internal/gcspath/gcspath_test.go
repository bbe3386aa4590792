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

package gcspath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse("gs://my-bucket/some/prefix")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", p.Bucket)
	assert.Equal(t, "some/prefix/", p.Prefix, "Parse must normalize the prefix to end with a slash")
	assert.Equal(t, "gs://my-bucket/some/prefix/", p.String())
}

func TestParseBucketOnly(t *testing.T) {
	p, err := Parse("gs://my-bucket")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", p.Bucket)
	assert.Equal(t, "", p.Prefix)
}

func TestParseAlreadyTrailingSlash(t *testing.T) {
	p, err := Parse("gs://my-bucket/a/b/")
	require.NoError(t, err)
	assert.Equal(t, "a/b/", p.Prefix)
}

func TestParseRejectsNonGSURI(t *testing.T) {
	_, err := Parse("https://my-bucket/object")
	assert.Error(t, err)
}

func TestPathObject(t *testing.T) {
	p := Path{Bucket: "b", Prefix: "root/"}
	assert.Equal(t, "root/detailed_results_1.csv", p.Object("detailed_results_1.csv"))
}

func TestParseObject(t *testing.T) {
	bucket, object, err := ParseObject("gs://my-bucket/templates/t1.yaml")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "templates/t1.yaml", object, "ParseObject must not append a trailing slash to a single object's name")
}

func TestParseObjectRejectsBucketOnly(t *testing.T) {
	_, _, err := ParseObject("gs://my-bucket")
	assert.Error(t, err)
}
