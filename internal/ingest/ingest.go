// Package ingest copies the upstream datasets into the bucket when they are
// not already staged.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/soltixdb/popstats/internal/blobstore"
	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/metrics"
	"github.com/soltixdb/popstats/internal/models"
	"github.com/soltixdb/popstats/internal/upstream"
	"github.com/soltixdb/popstats/internal/utils"
)

// FunctionName tags ingest invocations in logs and metrics
const FunctionName = "ingest"

// Outcome of syncing one dataset
type Outcome string

const (
	OutcomeStored  Outcome = "stored"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Config names the bucket and keys the pipeline writes
type Config struct {
	Bucket        string
	SeriesKey     string
	PopulationKey string

	// Strict turns a partially failed run into a failed invocation
	Strict bool
}

// ConfigFrom builds the pipeline config from application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Bucket:        cfg.Bucket,
		SeriesKey:     utils.SeriesKey,
		PopulationKey: utils.PopulationKey,
		Strict:        cfg.Ingest.Strict,
	}
}

// Notifier is told about every object the pipeline stores
type Notifier interface {
	ObjectCreated(ctx context.Context, key string, size int) error
}

// Pipeline syncs the series and population datasets
type Pipeline struct {
	cfg        Config
	store      blobstore.Store
	series     upstream.Fetcher
	population upstream.Fetcher
	notifier   Notifier
	logger     *logging.Logger
	metrics    *metrics.Metrics
}

// NewPipeline creates a pipeline. The population fetcher is wrapped so that
// its body is staged as indented JSON.
func NewPipeline(cfg Config, store blobstore.Store, series, population upstream.Fetcher,
	logger *logging.Logger, m *metrics.Metrics,
) *Pipeline {
	if logger == nil {
		logger = logging.Global()
	}
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		series:     timed(upstream.SourceSeries, series, m),
		population: timed(upstream.SourcePopulation, PrettyJSON(population, logger), m),
		logger:     logger,
		metrics:    m,
	}
}

// WithNotifier announces stored datasets through n
func (p *Pipeline) WithNotifier(n Notifier) *Pipeline {
	p.notifier = n
	return p
}

// DatasetResult is the outcome of one dataset sync
type DatasetResult struct {
	Key     string
	Outcome Outcome
	Err     error
}

// Report is the multi-status result of one ingest run
type Report struct {
	InvocationID string
	Strict       bool
	Datasets     []DatasetResult
}

// Partial reports whether at least one dataset failed
func (r *Report) Partial() bool {
	for _, d := range r.Datasets {
		if d.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Envelope converts the report to an invocation result. A partial failure
// stays 200 unless the run is strict.
func (r *Report) Envelope() models.Envelope {
	resp := models.IngestResponse{
		Message:      "BLS and Population data synced successfully",
		InvocationID: r.InvocationID,
		Partial:      r.Partial(),
		Datasets:     make([]models.DatasetStatus, 0, len(r.Datasets)),
	}
	for _, d := range r.Datasets {
		status := models.DatasetStatus{Key: d.Key, Outcome: string(d.Outcome)}
		if d.Err != nil {
			status.Error = d.Err.Error()
		}
		resp.Datasets = append(resp.Datasets, status)
	}

	code := http.StatusOK
	if resp.Partial {
		resp.Message = "BLS and Population data sync completed with failures"
		if r.Strict {
			resp.Message = "BLS and Population data sync failed"
			code = http.StatusInternalServerError
		}
	}
	return models.Envelope{StatusCode: code, Body: resp}
}

// Run syncs series then population. A failure of one dataset is logged and
// does not stop the other.
func (p *Pipeline) Run(ctx context.Context) *Report {
	if logging.InvocationID(ctx) == "" {
		ctx = logging.WithInvocation(ctx, FunctionName, "")
	}
	report := &Report{InvocationID: logging.InvocationID(ctx), Strict: p.cfg.Strict}

	for _, step := range []struct {
		key     string
		fetcher upstream.Fetcher
	}{
		{p.cfg.SeriesKey, p.series},
		{p.cfg.PopulationKey, p.population},
	} {
		outcome, err := p.SyncIfAbsent(ctx, step.key, step.fetcher)
		report.Datasets = append(report.Datasets, DatasetResult{Key: step.key, Outcome: outcome, Err: err})
	}
	return report
}

// Invoke runs the pipeline and returns its envelope
func (p *Pipeline) Invoke(ctx context.Context) models.Envelope {
	start := time.Now()
	env := p.Run(ctx).Envelope()
	p.metrics.ObserveInvoke(FunctionName, env.StatusCode, time.Since(start))
	return env
}

// SyncIfAbsent stores the fetched dataset under key unless an object already
// exists there. No fetch is issued when the key is present.
func (p *Pipeline) SyncIfAbsent(ctx context.Context, key string, fetcher upstream.Fetcher) (Outcome, error) {
	log := logging.FromContext(ctx).With("bucket", p.cfg.Bucket, "key", key)

	outcome, size, err := p.sync(ctx, key, fetcher)
	p.metrics.ObserveSync(key, string(outcome))
	switch outcome {
	case OutcomeSkipped:
		log.Info("Object already exists, skipping")
	case OutcomeStored:
		log.Info("Object stored")
		if p.notifier != nil {
			if err := p.notifier.ObjectCreated(ctx, key, size); err != nil {
				log.Warn("Failed to publish object event", "error", err)
			}
		}
	default:
		log.Error("Failed to sync dataset", "error", err)
	}
	return outcome, err
}

func (p *Pipeline) sync(ctx context.Context, key string, fetcher upstream.Fetcher) (Outcome, int, error) {
	exists, err := p.store.Exists(ctx, key)
	if err != nil {
		return OutcomeFailed, 0, fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		return OutcomeSkipped, 0, nil
	}

	data, err := fetcher.Fetch(ctx)
	if err != nil {
		return OutcomeFailed, 0, err
	}

	if err := p.store.Put(ctx, key, data); err != nil {
		return OutcomeFailed, 0, fmt.Errorf("store %s: %w", key, err)
	}
	return OutcomeStored, len(data), nil
}

// PrettyJSON re-indents the fetched body. A body that is not valid JSON is
// passed through unchanged.
func PrettyJSON(f upstream.Fetcher, logger *logging.Logger) upstream.Fetcher {
	return upstream.FetcherFunc(func(ctx context.Context) ([]byte, error) {
		data, err := f.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			logger.WithContext(ctx).Warn("Population body is not valid JSON, staging as-is", "error", err)
			return data, nil
		}
		return buf.Bytes(), nil
	})
}

func timed(source string, f upstream.Fetcher, m *metrics.Metrics) upstream.Fetcher {
	return upstream.FetcherFunc(func(ctx context.Context) ([]byte, error) {
		start := time.Now()
		data, err := f.Fetch(ctx)
		m.ObserveFetch(source, time.Since(start), err)
		return data, err
	})
}
