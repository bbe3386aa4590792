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

// Package gcspath parses and normalizes "gs://bucket/prefix" paths, the
// one blob-path grammar shared by the corpus builder's blob inputs and
// the results writer's blob outputs (spec.md §6).
package gcspath

import (
	"regexp"

	"github.com/pkg/errors"
)

var pathPattern = regexp.MustCompile(`^gs://([^/]+)/?(.*)$`)

// Path is a parsed "gs://bucket/prefix" root. Prefix always ends with "/"
// unless empty.
type Path struct {
	Bucket string
	Prefix string
}

// Parse validates and normalizes a gs:// URI per spec.md §6: the engine
// normalizes the path component to end with "/".
func Parse(uri string) (Path, error) {
	m := pathPattern.FindStringSubmatch(uri)
	if m == nil {
		return Path{}, errors.Errorf("%q does not match ^gs://([^/]+)/?(.*)$", uri)
	}
	prefix := m[2]
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	return Path{Bucket: m[1], Prefix: prefix}, nil
}

// Object returns the full object name for name under this path's prefix.
func (p Path) Object(name string) string {
	return p.Prefix + name
}

// String renders the path back to its gs:// form.
func (p Path) String() string {
	return "gs://" + p.Bucket + "/" + p.Prefix
}

// ParseObject splits a "gs://bucket/object" URI naming a single blob into
// its bucket and object name, without Parse's trailing-slash
// normalization (which is only correct for directory-like roots).
func ParseObject(uri string) (bucket, object string, err error) {
	m := pathPattern.FindStringSubmatch(uri)
	if m == nil {
		return "", "", errors.Errorf("%q does not match ^gs://([^/]+)/?(.*)$", uri)
	}
	if m[2] == "" {
		return "", "", errors.Errorf("%q names a bucket with no object", uri)
	}
	return m[1], m[2], nil
}
