package utils

import "time"

// =============================================================================
// Well-known Object Keys
// =============================================================================

// Keys shared by the ingest and analysis functions. The two functions never
// call each other; these keys are the only coupling between them.
const (
	// SeriesKey holds the tab-delimited labor-statistics time series
	SeriesKey = "pr.data.0.Current"

	// PopulationKey holds the population dataset as JSON
	PopulationKey = "population_data.json"

	// PlotKey holds the rendered population chart
	PlotKey = "Population_by_Year_and_Nation.html"

	// DefaultEventSubject carries object-created events
	DefaultEventSubject = "popstats.objects.created"
)

// =============================================================================
// Upstream Endpoints
// =============================================================================

const (
	// DefaultSeriesURL is the BLS productivity time series file
	DefaultSeriesURL = "https://download.bls.gov/pub/time.series/pr/pr.data.0.Current"

	// DefaultPopulationURL is the DataUSA population API
	DefaultPopulationURL = "https://datausa.io/api/data?drilldowns=Nation&measures=Population"

	// DefaultPublicURLTemplate renders the public URL of a stored object
	DefaultPublicURLTemplate = "https://{bucket}.s3.amazonaws.com/{key}"
)

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultInvokeTimeout bounds a single ingest or analysis invocation
	DefaultInvokeTimeout = 60 * time.Second

	// DefaultFetchTimeout bounds a single upstream HTTP request
	DefaultFetchTimeout = 30 * time.Second

	// StoreConnectTimeout bounds the connectivity check of remote blob stores
	StoreConnectTimeout = 5 * time.Second
)

// =============================================================================
// Analysis Constants
// =============================================================================

const (
	// DefaultWindowStart is the first year of the population statistics window
	DefaultWindowStart = 2013

	// DefaultWindowEnd is the last year (inclusive) of the population statistics window
	DefaultWindowEnd = 2018
)

// =============================================================================
// Blob Store Type Constants
// =============================================================================

// StoreType represents the backend used for staged objects
type StoreType string

const (
	// StoreTypeMemory keeps objects in process memory (tests, development)
	StoreTypeMemory StoreType = "memory"

	// StoreTypeFilesystem keeps one directory per bucket under the data dir
	StoreTypeFilesystem StoreType = "filesystem"

	// StoreTypeRedis keeps objects as Redis string values
	StoreTypeRedis StoreType = "redis"

	// StoreTypeNATS keeps objects in a NATS JetStream object store
	StoreTypeNATS StoreType = "nats"
)

// CompressionType represents the at-rest encoding of staged objects
type CompressionType string

const (
	// CompressionNone stores objects as-is
	CompressionNone CompressionType = "none"

	// CompressionSnappy stores snappy-encoded objects
	CompressionSnappy CompressionType = "snappy"
)

// =============================================================================
// Event Bus Type Constants
// =============================================================================

// EventBusType represents the backend carrying object events
type EventBusType string

const (
	// EventBusMemory delivers events inside one process
	EventBusMemory EventBusType = "memory"

	// EventBusNATS uses a NATS JetStream stream with a durable consumer
	EventBusNATS EventBusType = "nats"

	// EventBusRedis uses Redis Streams with a consumer group
	EventBusRedis EventBusType = "redis"

	// EventBusKafka uses an Apache Kafka topic with a consumer group
	EventBusKafka EventBusType = "kafka"
)
