package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/soltixdb/popstats/internal/utils"
)

// Config represents the complete application configuration
type Config struct {
	Bucket   string         `mapstructure:"bucket"` // Target bucket, bound to BUCKET_NAME
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Events   EventsConfig   `mapstructure:"events"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig represents the HTTP invoker configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	HTTPPort      int           `mapstructure:"http_port"`
	InvokeTimeout time.Duration `mapstructure:"invoke_timeout"` // Upper bound for one invocation
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// StorageConfig represents blob store configuration
type StorageConfig struct {
	Type        string `mapstructure:"type"`        // memory, filesystem, redis, nats
	DataDir     string `mapstructure:"data_dir"`    // Root directory for the filesystem backend
	URL         string `mapstructure:"url"`         // redis:// or nats:// URL
	Password    string `mapstructure:"password"`    // Optional authentication
	Compression string `mapstructure:"compression"` // none, snappy

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`
	RedisPrefix string `mapstructure:"redis_prefix"` // Key prefix (default: "popstats")

	// PublicURLTemplate renders plot URLs; {bucket} and {key} are substituted
	PublicURLTemplate string `mapstructure:"public_url_template"`
}

// UpstreamConfig represents the external dataset endpoints
type UpstreamConfig struct {
	SeriesURL     string        `mapstructure:"series_url"`
	PopulationURL string        `mapstructure:"population_url"`
	UserAgent     string        `mapstructure:"user_agent"` // Identifying header required by the series host
	Timeout       time.Duration `mapstructure:"timeout"`
}

// IngestConfig represents ingest function behaviour
type IngestConfig struct {
	// Strict reports the invocation as failed when any dataset failed to sync.
	// When false the invocation succeeds and the body lists per-dataset outcomes.
	Strict bool `mapstructure:"strict"`
}

// AnalysisConfig represents analysis function behaviour
type AnalysisConfig struct {
	WindowStart int `mapstructure:"window_start"` // First year of the statistics window
	WindowEnd   int `mapstructure:"window_end"`   // Last year of the statistics window, inclusive
}

// EventsConfig represents the object event bus. When enabled, every stored
// object is announced on Subject and the invoker can run analysis once
// TriggerKey has been stored.
type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"`     // memory, nats, redis, kafka
	URL      string `mapstructure:"url"`      // nats:// or redis:// URL
	Password string `mapstructure:"password"` // Optional authentication
	Subject  string `mapstructure:"subject"`  // Subject or topic carrying object events

	// Redis Streams options
	RedisDB       int    `mapstructure:"redis_db"`
	RedisStream   string `mapstructure:"redis_stream"`   // Stream prefix (default: "popstats")
	RedisGroup    string `mapstructure:"redis_group"`    // Consumer group (default: "popstats-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Consumer name (default: hostname)

	// Kafka options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaGroupID string   `mapstructure:"kafka_group_id"`

	TriggerAnalysis bool   `mapstructure:"trigger_analysis"` // Run analysis when TriggerKey is stored
	TriggerKey      string `mapstructure:"trigger_key"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("bucket is required (set BUCKET_NAME)")
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.InvokeTimeout <= 0 {
		return fmt.Errorf("invoke_timeout must be positive")
	}

	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	switch utils.StoreType(c.Type) {
	case utils.StoreTypeMemory:
	case utils.StoreTypeFilesystem:
		if c.DataDir == "" {
			return fmt.Errorf("data_dir is required for the filesystem store")
		}
	case utils.StoreTypeRedis, utils.StoreTypeNATS:
		if c.URL == "" {
			return fmt.Errorf("url is required for the %s store", c.Type)
		}
	default:
		return fmt.Errorf("storage.type must be one of: memory, filesystem, redis, nats")
	}

	switch utils.CompressionType(c.Compression) {
	case "", utils.CompressionNone, utils.CompressionSnappy:
	default:
		return fmt.Errorf("storage.compression must be 'none' or 'snappy'")
	}

	if !strings.Contains(c.PublicURLTemplate, "{key}") {
		return fmt.Errorf("public_url_template must contain {key}")
	}

	return nil
}

// Validate validates upstream configuration
func (c *UpstreamConfig) Validate() error {
	for name, raw := range map[string]string{"series_url": c.SeriesURL, "population_url": c.PopulationURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not an absolute URL: %q", name, raw)
		}
	}

	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user_agent is required")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// Validate validates analysis configuration
func (c *AnalysisConfig) Validate() error {
	if c.WindowStart > c.WindowEnd {
		return fmt.Errorf("window_start (%d) must not be after window_end (%d)", c.WindowStart, c.WindowEnd)
	}
	return nil
}

// Validate validates event bus configuration
func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch utils.EventBusType(c.Type) {
	case utils.EventBusMemory:
	case utils.EventBusNATS, utils.EventBusRedis:
		if c.URL == "" {
			return fmt.Errorf("url is required for the %s event bus", c.Type)
		}
	case utils.EventBusKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka_brokers is required for the kafka event bus")
		}
	default:
		return fmt.Errorf("events.type must be one of: memory, nats, redis, kafka")
	}

	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Errorf("subject is required")
	}

	if c.TriggerAnalysis && strings.TrimSpace(c.TriggerKey) == "" {
		return fmt.Errorf("trigger_key is required when trigger_analysis is enabled")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
