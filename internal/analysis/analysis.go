// Package analysis turns the staged datasets into population statistics,
// a peak-year table and a published chart.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/soltixdb/popstats/internal/blobstore"
	"github.com/soltixdb/popstats/internal/chart"
	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/dataset"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/metrics"
	"github.com/soltixdb/popstats/internal/models"
	"github.com/soltixdb/popstats/internal/stats"
	"github.com/soltixdb/popstats/internal/utils"
)

// FunctionName tags analysis invocations in logs and metrics
const FunctionName = "analysis"

// ChartTitle is the title of the published chart
const ChartTitle = "Population by Year and Nation"

// Config names the inputs, the output and the statistics window
type Config struct {
	Bucket            string
	SeriesKey         string
	PopulationKey     string
	PlotKey           string
	PublicURLTemplate string
	WindowStart       int
	WindowEnd         int
}

// ConfigFrom builds the pipeline config from application config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Bucket:            cfg.Bucket,
		SeriesKey:         utils.SeriesKey,
		PopulationKey:     utils.PopulationKey,
		PlotKey:           utils.PlotKey,
		PublicURLTemplate: cfg.Storage.PublicURLTemplate,
		WindowStart:       cfg.Analysis.WindowStart,
		WindowEnd:         cfg.Analysis.WindowEnd,
	}
}

// Result is the outcome of a successful run
type Result struct {
	Summary   stats.Summary
	PeakYears []stats.PeakYear
	PlotKey   string
	PlotURL   string
	PlotBytes int
}

// Response converts the result to the envelope body
func (r *Result) Response() models.AnalysisResponse {
	resp := models.AnalysisResponse{
		MeanPopulation: r.Summary.Mean,
		StdPopulation:  r.Summary.StdDev,
		PlotURL:        r.PlotURL,
		WindowStart:    r.Summary.Window.Start,
		WindowEnd:      r.Summary.Window.End,
		WindowCount:    r.Summary.Count,
		PeakYears:      make([]models.PeakYearView, 0, len(r.PeakYears)),
	}
	for _, p := range r.PeakYears {
		resp.PeakYears = append(resp.PeakYears, models.PeakYearView{SeriesID: p.SeriesID, Year: p.Year, Value: p.Value})
	}
	return resp
}

// Notifier is told about the published chart
type Notifier interface {
	ObjectCreated(ctx context.Context, key string, size int) error
}

// Pipeline loads the staged datasets and publishes the analysis
type Pipeline struct {
	cfg      Config
	store    blobstore.Store
	renderer chart.Renderer
	notifier Notifier
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewPipeline creates a pipeline. A nil renderer selects the HTML renderer.
func NewPipeline(cfg Config, store blobstore.Store, renderer chart.Renderer,
	logger *logging.Logger, m *metrics.Metrics,
) *Pipeline {
	if renderer == nil {
		renderer = chart.NewHTMLRenderer()
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Pipeline{cfg: cfg, store: store, renderer: renderer, logger: logger, metrics: m}
}

// WithNotifier announces the published chart through n
func (p *Pipeline) WithNotifier(n Notifier) *Pipeline {
	p.notifier = n
	return p
}

// Invoke runs the pipeline and returns its envelope. Any failure yields a
// 500 envelope carrying the failure message.
func (p *Pipeline) Invoke(ctx context.Context) models.Envelope {
	start := time.Now()
	env := p.invoke(ctx)
	p.metrics.ObserveInvoke(FunctionName, env.StatusCode, time.Since(start))
	return env
}

func (p *Pipeline) invoke(ctx context.Context) models.Envelope {
	result, err := p.Run(ctx)
	if err != nil {
		var aerr *Error
		if !errors.As(err, &aerr) {
			aerr = newError("unknown", "Analysis failed", err)
		}
		p.metrics.ObserveAnalysis(aerr.Stage + "_failed")
		return models.Failure(aerr.Message)
	}
	p.metrics.ObserveAnalysis("success")
	p.metrics.SetArtifact(result.PlotBytes, len(result.PeakYears))
	return models.Envelope{StatusCode: http.StatusOK, Body: result.Response()}
}

// Run loads both datasets, computes the statistics and publishes the chart.
// Every failure is an *Error and nothing is written unless all earlier
// steps succeeded.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if logging.InvocationID(ctx) == "" {
		ctx = logging.WithInvocation(ctx, FunctionName, "")
	}
	log := p.logger.WithContext(ctx).With("bucket", p.cfg.Bucket)

	series, err := p.loadSeries(ctx)
	if err != nil {
		log.Error("Failed to load series data", "key", p.cfg.SeriesKey, "error", err)
		return nil, err
	}
	population, err := p.loadPopulation(ctx)
	if err != nil {
		log.Error("Failed to load population data", "key", p.cfg.PopulationKey, "error", err)
		return nil, err
	}

	summary := stats.SummarizePopulation(population, stats.Window{Start: p.cfg.WindowStart, End: p.cfg.WindowEnd})
	peaks := stats.PeakYears(series)
	joined := stats.JoinByYear(series, population)
	log.Debug("Computed statistics",
		"window_count", summary.Count,
		"series_rows", len(series),
		"population_rows", len(population),
		"joined_rows", len(joined),
		"peak_series", len(peaks))

	var buf bytes.Buffer
	if err := p.renderer.Render(&buf, BuildChart(joined)); err != nil {
		log.Error("Failed to render chart", "error", err)
		return nil, newError("render", MsgRenderFailed, err)
	}
	if err := p.store.Put(ctx, p.cfg.PlotKey, buf.Bytes()); err != nil {
		log.Error("Failed to upload chart", "key", p.cfg.PlotKey, "error", err)
		return nil, newError("publish", MsgPublishFailed, err)
	}

	url := blobstore.PublicURL(p.cfg.PublicURLTemplate, p.cfg.Bucket, p.cfg.PlotKey)
	log.Info("Chart uploaded", "key", p.cfg.PlotKey, "url", url, "bytes", buf.Len())
	if p.notifier != nil {
		if err := p.notifier.ObjectCreated(ctx, p.cfg.PlotKey, buf.Len()); err != nil {
			log.Warn("Failed to publish object event", "key", p.cfg.PlotKey, "error", err)
		}
	}

	return &Result{
		Summary:   summary,
		PeakYears: peaks,
		PlotKey:   p.cfg.PlotKey,
		PlotURL:   url,
		PlotBytes: buf.Len(),
	}, nil
}

func (p *Pipeline) loadSeries(ctx context.Context) ([]dataset.SeriesRecord, error) {
	data, err := p.store.Get(ctx, p.cfg.SeriesKey)
	if err != nil {
		return nil, newError("load", MsgLoadFailed, fmt.Errorf("get %s: %w", p.cfg.SeriesKey, err))
	}
	records, err := dataset.ParseSeries(data)
	if err != nil {
		return nil, newError("load", MsgLoadFailed, err)
	}
	return records, nil
}

func (p *Pipeline) loadPopulation(ctx context.Context) ([]dataset.PopulationRecord, error) {
	data, err := p.store.Get(ctx, p.cfg.PopulationKey)
	if err != nil {
		return nil, newError("load", MsgLoadFailed, fmt.Errorf("get %s: %w", p.cfg.PopulationKey, err))
	}

	doc, err := dataset.DecodePopulationDocument(data)
	if err != nil {
		var perr *dataset.ParseError
		if errors.As(err, &perr) && perr.Reason == dataset.ErrUnexpectedStructure {
			return nil, newError("parse", MsgUnexpectedStructure, err)
		}
		return nil, newError("parse", MsgInvalidPopulation, err)
	}
	records, err := doc.Records()
	if err != nil {
		return nil, newError("parse", MsgInvalidPopulation, err)
	}
	return records, nil
}

// BuildChart draws one bar per (nation, year) from the joined rows. Years
// are ordered ascending; rows without population are skipped. A population
// row repeated by the join is drawn once with its repeat count.
func BuildChart(rows []stats.JoinedRow) *chart.GroupedBarChart {
	matched := make([]*dataset.PopulationRecord, 0, len(rows))
	for _, r := range rows {
		if r.Population != nil {
			matched = append(matched, r.Population)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Year < matched[j].Year
	})

	c := chart.NewGroupedBarChart(ChartTitle, "Year", "Population")
	for _, pop := range matched {
		label := strconv.FormatInt(pop.Population, 10)
		c.Add(pop.Nation, strconv.Itoa(pop.Year), float64(pop.Population), label)
	}
	return c
}
