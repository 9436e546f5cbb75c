// Package app wires configuration into the store, fetchers, pipelines and
// event bus shared by the service binaries.
package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/soltixdb/popstats/internal/analysis"
	"github.com/soltixdb/popstats/internal/blobstore"
	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/events"
	"github.com/soltixdb/popstats/internal/ingest"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/metrics"
	"github.com/soltixdb/popstats/internal/upstream"
)

// Components are the wired collaborators of one process
type Components struct {
	Store    blobstore.Store
	Ingest   *ingest.Pipeline
	Analysis *analysis.Pipeline
	Metrics  *metrics.Metrics

	// Bus and Trigger are nil unless events are enabled
	Bus     events.Bus
	Trigger *events.Trigger
}

// Build opens the configured store and event bus and creates both
// pipelines. reg may be nil when metrics are not exported.
func Build(cfg *config.Config, logger *logging.Logger, reg prometheus.Registerer) (*Components, error) {
	store, err := blobstore.NewStore(cfg.Storage, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Type, err)
	}

	var bus events.Bus
	if cfg.Events.Enabled {
		bus, err = events.NewBus(cfg.Events)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open %s event bus: %w", cfg.Events.Type, err)
		}
	}
	return BuildWith(cfg, logger, reg, store, bus), nil
}

// BuildWith creates both pipelines on an already opened store. bus may be nil.
func BuildWith(cfg *config.Config, logger *logging.Logger, reg prometheus.Registerer,
	store blobstore.Store, bus events.Bus,
) *Components {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	client := upstream.NewClient(cfg.Upstream.Timeout)
	series := upstream.NewHTTPFetcher(upstream.SeriesSource(cfg.Upstream), client)
	population := upstream.NewHTTPFetcher(upstream.PopulationSource(cfg.Upstream), client)

	c := &Components{
		Store:    store,
		Ingest:   ingest.NewPipeline(ingest.ConfigFrom(cfg), store, series, population, logger, m),
		Analysis: analysis.NewPipeline(analysis.ConfigFrom(cfg), store, nil, logger, m),
		Metrics:  m,
		Bus:      bus,
	}

	if bus != nil {
		notifier := events.NewNotifier(bus, cfg.Events.Subject, cfg.Bucket)
		c.Ingest.WithNotifier(notifier)
		c.Analysis.WithNotifier(notifier)

		if cfg.Events.TriggerAnalysis {
			c.Trigger = events.NewTrigger(bus, cfg.Events.Subject, cfg.Bucket, cfg.Events.TriggerKey,
				analysis.FunctionName, c.Analysis, cfg.Server.InvokeTimeout, logger)
		}
	}
	return c
}

// Close releases the event bus and the store
func (c *Components) Close() error {
	var errs []error
	if c.Bus != nil {
		errs = append(errs, c.Bus.Close())
	}
	errs = append(errs, c.Store.Close())
	return errors.Join(errs...)
}
