package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/popstats/internal/blobstore"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/metrics"
	"github.com/soltixdb/popstats/internal/models"
	"github.com/soltixdb/popstats/internal/upstream"
	"github.com/soltixdb/popstats/internal/utils"
)

const seriesBody = "series_id        \tyear\tperiod\t       value\tfootnote_codes\n" +
	"PRS30006011      \t2012\tQ01\t5\t\n"

const populationBody = `{"data":[{"ID Nation":"01000US","Nation":"United States","Year":"2018","Population":322903030}]}`

type countingFetcher struct {
	calls atomic.Int32
	body  []byte
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	return f.body, f.err
}

type failingStore struct {
	blobstore.Store
}

func (failingStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, &blobstore.TransportError{Op: "exists", Bucket: "b", Key: key, Err: errors.New("connection refused")}
}

func testConfig() Config {
	return Config{Bucket: "test-bucket", SeriesKey: utils.SeriesKey, PopulationKey: utils.PopulationKey}
}

func newTestPipeline(cfg Config, store blobstore.Store, series, population upstream.Fetcher) (*Pipeline, *metrics.Metrics) {
	m := metrics.NewUnregistered()
	return NewPipeline(cfg, store, series, population, logging.NewNop(), m), m
}

func TestSyncIfAbsent_SkipsWithoutFetch(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore("test-bucket")
	require.NoError(t, store.Put(ctx, utils.SeriesKey, []byte("existing")))

	fetcher := &countingFetcher{body: []byte("new")}
	p, m := newTestPipeline(testConfig(), store, fetcher, fetcher)

	outcome, err := p.SyncIfAbsent(ctx, utils.SeriesKey, fetcher)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, int32(0), fetcher.calls.Load())

	data, err := store.Get(ctx, utils.SeriesKey)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetSyncs.WithLabelValues(utils.SeriesKey, "skipped")))
}

func TestSyncIfAbsent_StoresFetchedBody(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore("test-bucket")
	fetcher := &countingFetcher{body: []byte(seriesBody)}
	p, _ := newTestPipeline(testConfig(), store, fetcher, fetcher)

	outcome, err := p.SyncIfAbsent(ctx, utils.SeriesKey, fetcher)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStored, outcome)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	data, err := store.Get(ctx, utils.SeriesKey)
	require.NoError(t, err)
	assert.Equal(t, seriesBody, string(data))
}

func TestSyncIfAbsent_ExistsFailure(t *testing.T) {
	fetcher := &countingFetcher{body: []byte("x")}
	p, _ := newTestPipeline(testConfig(), failingStore{}, fetcher, fetcher)

	outcome, err := p.SyncIfAbsent(context.Background(), utils.SeriesKey, fetcher)
	assert.Equal(t, OutcomeFailed, outcome)
	var te *blobstore.TransportError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestRun_StoresBothDatasets(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore("test-bucket")
	series := &countingFetcher{body: []byte(seriesBody)}
	population := &countingFetcher{body: []byte(populationBody)}
	p, _ := newTestPipeline(testConfig(), store, series, population)

	report := p.Run(ctx)
	require.Len(t, report.Datasets, 2)
	assert.Equal(t, utils.SeriesKey, report.Datasets[0].Key)
	assert.Equal(t, OutcomeStored, report.Datasets[0].Outcome)
	assert.Equal(t, utils.PopulationKey, report.Datasets[1].Key)
	assert.Equal(t, OutcomeStored, report.Datasets[1].Outcome)
	assert.False(t, report.Partial())
	assert.NotEmpty(t, report.InvocationID)

	staged, err := store.Get(ctx, utils.PopulationKey)
	require.NoError(t, err)
	assert.Contains(t, string(staged), "\n  \"data\": [")
	assert.JSONEq(t, populationBody, string(staged))

	env := report.Envelope()
	assert.Equal(t, http.StatusOK, env.StatusCode)
	body := env.Body.(models.IngestResponse)
	assert.False(t, body.Partial)
	assert.Equal(t, "BLS and Population data synced successfully", body.Message)
}

func TestRun_SecondRunSkips(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore("test-bucket")
	series := &countingFetcher{body: []byte(seriesBody)}
	population := &countingFetcher{body: []byte(populationBody)}
	p, _ := newTestPipeline(testConfig(), store, series, population)

	p.Run(ctx)
	report := p.Run(ctx)
	for _, d := range report.Datasets {
		assert.Equal(t, OutcomeSkipped, d.Outcome)
	}
	assert.Equal(t, int32(1), series.calls.Load())
	assert.Equal(t, int32(1), population.calls.Load())
}

func TestRun_SeriesNotFoundStillSyncsPopulation(t *testing.T) {
	var populationHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/series":
			http.NotFound(w, r)
		case "/population":
			populationHits.Add(1)
			_, _ = w.Write([]byte(populationBody))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store := blobstore.NewMemoryStore("test-bucket")
	series := upstream.NewHTTPFetcher(upstream.Source{Name: upstream.SourceSeries, URL: srv.URL + "/series"}, srv.Client())
	population := upstream.NewHTTPFetcher(upstream.Source{Name: upstream.SourcePopulation, URL: srv.URL + "/population"}, srv.Client())
	p, _ := newTestPipeline(testConfig(), store, series, population)

	report := p.Run(ctx)
	require.Len(t, report.Datasets, 2)
	assert.Equal(t, OutcomeFailed, report.Datasets[0].Outcome)
	var fe *upstream.FetchError
	require.ErrorAs(t, report.Datasets[0].Err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)

	assert.Equal(t, OutcomeStored, report.Datasets[1].Outcome)
	assert.Equal(t, int32(1), populationHits.Load())

	exists, err := store.Exists(ctx, utils.SeriesKey)
	require.NoError(t, err)
	assert.False(t, exists)

	// Overall invocation still succeeds, the failure is surfaced in the body
	env := report.Envelope()
	assert.Equal(t, http.StatusOK, env.StatusCode)
	body := env.Body.(models.IngestResponse)
	assert.True(t, body.Partial)
	assert.Equal(t, "failed", body.Datasets[0].Outcome)
	assert.Contains(t, body.Datasets[0].Error, "404")
}

func TestRun_StrictPartialFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Strict = true
	series := &countingFetcher{err: &upstream.FetchError{Source: upstream.SourceSeries, StatusCode: http.StatusForbidden}}
	population := &countingFetcher{body: []byte(populationBody)}
	p, _ := newTestPipeline(cfg, blobstore.NewMemoryStore("test-bucket"), series, population)

	env := p.Invoke(context.Background())
	assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
	assert.True(t, env.Body.(models.IngestResponse).Partial)
}

func TestRun_KeepsInvocationID(t *testing.T) {
	ctx := logging.WithInvocation(context.Background(), FunctionName, "req-123")
	fetcher := &countingFetcher{body: []byte(populationBody)}
	p, _ := newTestPipeline(testConfig(), blobstore.NewMemoryStore("test-bucket"), fetcher, fetcher)

	assert.Equal(t, "req-123", p.Run(ctx).InvocationID)
}

func TestPrettyJSON(t *testing.T) {
	ctx := context.Background()

	out, err := PrettyJSON(&countingFetcher{body: []byte(`[{"Year":2019}]`)}, logging.NewNop()).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"Year\": 2019\n  }\n]", string(out))
	assert.True(t, json.Valid(out))

	out, err = PrettyJSON(&countingFetcher{body: []byte("not json")}, logging.NewNop()).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "not json", string(out))

	_, err = PrettyJSON(&countingFetcher{err: errors.New("boom")}, logging.NewNop()).Fetch(ctx)
	assert.EqualError(t, err, "boom")
}

type recordingNotifier struct {
	keys []string
	err  error
}

func (n *recordingNotifier) ObjectCreated(ctx context.Context, key string, size int) error {
	n.keys = append(n.keys, key)
	return n.err
}

func TestRun_NotifiesStoredDatasetsOnly(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore("test-bucket")
	require.NoError(t, store.Put(ctx, utils.SeriesKey, []byte(seriesBody)))

	notifier := &recordingNotifier{err: errors.New("bus down")}
	p, _ := newTestPipeline(testConfig(), store,
		&countingFetcher{body: []byte(seriesBody)},
		&countingFetcher{body: []byte(populationBody)})
	p.WithNotifier(notifier)

	report := p.Run(ctx)
	assert.False(t, report.Partial())
	assert.Equal(t, []string{utils.PopulationKey}, notifier.keys)
}
