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

// Package caller implements the single-method capability that turns a
// bench.Request into one RPC against the feature-retrieval service.
package caller

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
)

// Caller issues one Request as a single RPC. Implementations choose the
// streaming vs single-entity path from the Request's populated field.
type Caller interface {
	Issue(ctx context.Context, req bench.Request) error
}

// APIVersion selects which generation of the feature-retrieval API a
// Caller talks to.
type APIVersion string

const (
	V1       APIVersion = "v1"
	V1beta1  APIVersion = "v1beta1"
)

// Config names the coordinates of the remote service a Caller targets.
// EndpointOverride, when non-empty, replaces the default
// "{location}-aiplatform.googleapis.com:443" host.
type Config struct {
	Project          string
	Location         string
	Method           string // featurestore ID placed in every request's entityType resource path
	EndpointOverride string

	// ClientOptions, if non-empty, are appended to the channel's dial
	// options -- e.g. option.WithTokenSource for a non-default credential.
	ClientOptions []option.ClientOption
}

// Endpoint returns the gRPC target this Config resolves to.
func (c Config) Endpoint() string {
	if c.EndpointOverride != "" {
		return c.EndpointOverride
	}
	return fmt.Sprintf("%s-aiplatform.googleapis.com:443", c.Location)
}

// New builds the Caller for the given API version, dialing the remote
// service once. The returned io.Closer-like Close releases the channel;
// callers invoke it at DONE.
func New(ctx context.Context, version APIVersion, cfg Config) (*GRPCCaller, error) {
	switch version {
	case V1, V1beta1:
		return newGRPCCaller(ctx, version, cfg)
	default:
		return nil, bench.NewError(bench.KindInputMalformed, "caller.New", errors.Errorf("unknown API version %q", version))
	}
}
