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

// Command vertexai-benchmarker drives a feature-retrieval service at a
// target QPS and reports latency percentiles for the measured window.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/google/vertex-ai-benchmarker/pkg/bench"
	"github.com/google/vertex-ai-benchmarker/pkg/bench/caller"
	"github.com/google/vertex-ai-benchmarker/pkg/bench/corpus"
	"github.com/google/vertex-ai-benchmarker/pkg/bench/manager"
	"github.com/google/vertex-ai-benchmarker/pkg/bench/results"
)

// cloudPlatformScope is requested for every Google API client this
// binary constructs (GCS, BigQuery, and the feature-retrieval channel),
// mirroring the single broad scope the teacher's export clients use.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// cliOptions holds every Invocation Parameter from spec.md §6.
type cliOptions struct {
	project          string
	location         string
	method           string
	apiVersion       string
	endpointOverride string

	templatePath      string
	entityListingPath string
	warehouseQuery    string

	targetQPS       int
	workerThreads   int
	sampleStrategy  string
	seed            int64
	seedSet         bool
	warmupSamples   int
	measuredSamples int

	gcsOutputPath string
	dataset       string

	credentialsFile string

	listenAddress string
	logLevel      string
}

func main() {
	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	opts := &cliOptions{}
	a := kingpin.New("vertexai-benchmarker", "Closed-loop load generator for the Vertex AI Feature Store online-serving API.")
	a.HelpFlag.Short('h')

	a.Flag("project", "GCP project hosting the feature store.").Required().StringVar(&opts.project)
	a.Flag("location", "GCP region, e.g. us-central1.").Required().StringVar(&opts.location)
	a.Flag("method", "Featurestore ID the Caller issues requests against.").Required().StringVar(&opts.method)
	a.Flag("api-version", "Feature-retrieval API version.").Default("v1").EnumVar(&opts.apiVersion, "v1", "v1beta1")
	a.Flag("endpoint-override", "Override the default \"{location}-aiplatform.googleapis.com:443\" endpoint.").StringVar(&opts.endpointOverride)

	a.Flag("template", "Request-template document: local path or gs:// URI.").Required().StringVar(&opts.templatePath)
	a.Flag("entity-listing", "Entity listing: local path or gs:// URI. Mutually exclusive with --warehouse-query.").StringVar(&opts.entityListingPath)
	a.Flag("warehouse-query", "Warehouse query resolving entity rows. Mutually exclusive with --entity-listing.").StringVar(&opts.warehouseQuery)

	a.Flag("target-qps", "Target queries per sample window.").Required().IntVar(&opts.targetQPS)
	a.Flag("worker-threads", "Bounded pool size per sample.").Required().IntVar(&opts.workerThreads)
	a.Flag("sample-strategy", "IN_ORDER or SHUFFLED.").Default("IN_ORDER").EnumVar(&opts.sampleStrategy, "IN_ORDER", "SHUFFLED")
	a.Flag("seed", "Seed for SHUFFLED work-queue construction; omit for nondeterministic shuffling.").IsSetByUser(&opts.seedSet).Int64Var(&opts.seed)
	a.Flag("warmup-samples", "Number of warmup sample windows.").Default("0").IntVar(&opts.warmupSamples)
	a.Flag("measured-samples", "Number of measured sample windows.").Required().IntVar(&opts.measuredSamples)

	a.Flag("gcs-output-path", "Root for blob outputs; empty for console-only.").StringVar(&opts.gcsOutputPath)
	a.Flag("dataset", "BigQuery dataset for results; defaults to a generated name.").StringVar(&opts.dataset)

	a.Flag("credentials-file", "JSON service-account credentials file for GCS, BigQuery, and the feature-retrieval channel; omit to use application default credentials.").StringVar(&opts.credentialsFile)

	a.Flag("listen-address", "Address to serve /metrics on.").Default(":9090").StringVar(&opts.listenAddress)
	a.Flag("log.level", "debug, info, warn, or error.").Default("info").EnumVar(&opts.logLevel, "debug", "info", "warn", "error")

	if _, err := a.Parse(os.Args[1:]); err != nil {
		level.Error(logger).Log("msg", "error parsing command line arguments", "err", err)
		a.Usage(os.Args[1:])
		os.Exit(1)
	}

	switch opts.logLevel {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	if opts.entityListingPath != "" && opts.warehouseQuery != "" {
		level.Error(logger).Log("msg", "--entity-listing and --warehouse-query are mutually exclusive")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	if err := run(ctx, logger, reg, opts); err != nil {
		cancel()
		var benchErr *bench.Error
		if errors.As(err, &benchErr) {
			level.Error(logger).Log("msg", "run failed", "kind", benchErr.Kind, "op", benchErr.Op, "err", benchErr.Err)
		} else {
			level.Error(logger).Log("msg", "run failed", "err", err)
		}
		os.Exit(1)
	}
	cancel()
}

func run(ctx context.Context, logger log.Logger, reg *prometheus.Registry, opts *cliOptions) error {
	version, err := caller.ParseAPIVersion(opts.apiVersion)
	if err != nil {
		return err
	}

	credOpts, err := credentialOptions(ctx, opts.credentialsFile)
	if err != nil {
		return err
	}

	var gcs *results.GCSBlobStore
	if opts.gcsOutputPath != "" || strings.HasPrefix(opts.templatePath, "gs://") || strings.HasPrefix(opts.entityListingPath, "gs://") {
		store, err := results.NewGCSBlobStore(ctx, credOpts...)
		if err != nil {
			return err
		}
		gcs = store
	}
	var blobs results.BlobStore
	if opts.gcsOutputPath != "" {
		blobs = gcs
	}

	builder := &corpus.Builder{Logger: logger}
	if gcs != nil {
		builder.Blobs = gcs
	}

	var warehouseSource corpus.Warehouse
	if opts.warehouseQuery != "" {
		ew, err := results.NewEntityWarehouse(ctx, opts.project, credOpts...)
		if err != nil {
			return err
		}
		warehouseSource = ew
	}
	corpusInput := corpus.Input{
		TemplatePath:      opts.templatePath,
		EntityListingPath: opts.entityListingPath,
		WarehouseQuery:    opts.warehouseQuery,
		Warehouse:         warehouseSource,
	}
	requestCorpus, err := builder.Build(ctx, corpusInput)
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "corpus built", "size", len(requestCorpus))

	c, closeCaller, err := caller.GRPC(version, caller.Config{
		Project:          opts.project,
		Location:         opts.location,
		Method:           opts.method,
		EndpointOverride: opts.endpointOverride,
		ClientOptions:    credOpts,
	})(ctx)
	if err != nil {
		return err
	}
	defer closeCaller()

	identity := bench.NewRunIdentity(time.Now())
	dataset := opts.dataset
	if dataset == "" {
		dataset = identity.DefaultDatasetName(opts.targetQPS)
	}

	writer := &results.Writer{
		Identity: identity,
		Blobs:    blobs,
		GCSRoot:  opts.gcsOutputPath,
		Logger:   logger,
	}
	if blobs != nil {
		wh, err := results.NewWarehouse(ctx, opts.project, dataset, identity.TableName(), logger, credOpts...)
		if err != nil {
			return err
		}
		writer.Warehouse = wh
	}

	sink, err := writer.NewDetailedSink(ctx)
	if err != nil {
		return err
	}
	var managerSink manager.Sink
	if sink != nil {
		managerSink = sink
	}

	strategy := manager.InOrder
	if opts.sampleStrategy == "SHUFFLED" {
		strategy = manager.Shuffled
	}
	var seed *int64
	if opts.seedSet {
		seed = &opts.seed
	}

	mgr := manager.New(manager.Config{
		TargetQPS:           opts.targetQPS,
		WorkerThreads:       opts.workerThreads,
		Strategy:            strategy,
		Seed:                seed,
		WarmupSampleCount:   opts.warmupSamples,
		MeasuredSampleCount: opts.measuredSamples,
	}, c, logger)

	var g run.Group
	{
		runCtx, runCancel := context.WithCancel(ctx)
		g.Add(func() error {
			agg, _, err := mgr.Run(runCtx, requestCorpus, managerSink)
			if err != nil {
				return err
			}
			return writer.WriteAggregate(ctx, agg)
		}, func(error) {
			runCancel()
		})
	}
	{
		term := make(chan os.Signal, 1)
		cancelCh := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			select {
			case <-term:
				level.Info(logger).Log("msg", "received termination signal, flushing best effort")
			case <-cancelCh:
			}
			return nil
		}, func(error) {
			close(cancelCh)
		})
	}
	{
		srv := &http.Server{Addr: opts.listenAddress, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		g.Add(func() error {
			return srv.ListenAndServe()
		}, func(error) {
			_ = srv.Close()
		})
	}

	return g.Run()
}

// credentialOptions loads a service-account JSON credentials file, if
// one was given, into a token source shared across every Google API
// client this binary constructs. An empty path leaves clients on
// application default credentials.
func credentialOptions(ctx context.Context, path string) ([]option.ClientOption, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "main.credentialOptions", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, bench.NewError(bench.KindInputMalformed, "main.credentialOptions", err)
	}
	return []option.ClientOption{option.WithTokenSource(creds.TokenSource)}, nil
}

