package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/soltixdb/popstats/internal/utils"
)

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/popstats")
	}

	setDefaults(v)

	// POPSTATS_STORAGE_TYPE overrides storage.type, and so on
	v.SetEnvPrefix("POPSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bucket keeps the plain variable name the deployment already uses
	if err := v.BindEnv("bucket", "BUCKET_NAME", "POPSTATS_BUCKET"); err != nil {
		return nil, fmt.Errorf("failed to bind bucket env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.invoke_timeout", utils.DefaultInvokeTimeout.String())

	v.SetDefault("auth.enabled", false)

	v.SetDefault("storage.type", string(utils.StoreTypeFilesystem))
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.compression", string(utils.CompressionNone))
	v.SetDefault("storage.redis_prefix", "popstats")
	v.SetDefault("storage.public_url_template", utils.DefaultPublicURLTemplate)

	v.SetDefault("upstream.series_url", utils.DefaultSeriesURL)
	v.SetDefault("upstream.population_url", utils.DefaultPopulationURL)
	v.SetDefault("upstream.user_agent", "popstats/1.0 (data-ops@example.com)")
	v.SetDefault("upstream.timeout", utils.DefaultFetchTimeout.String())

	v.SetDefault("ingest.strict", false)

	v.SetDefault("analysis.window_start", utils.DefaultWindowStart)
	v.SetDefault("analysis.window_end", utils.DefaultWindowEnd)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.type", string(utils.EventBusMemory))
	v.SetDefault("events.subject", utils.DefaultEventSubject)
	v.SetDefault("events.redis_stream", "popstats")
	v.SetDefault("events.redis_group", "popstats-group")
	v.SetDefault("events.kafka_group_id", "popstats-group")
	v.SetDefault("events.trigger_analysis", false)
	v.SetDefault("events.trigger_key", utils.PopulationKey)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration for the given bucket
func DefaultConfig(bucket string) *Config {
	return &Config{
		Bucket: bucket,
		Server: ServerConfig{
			Host:          "0.0.0.0",
			HTTPPort:      8080,
			InvokeTimeout: utils.DefaultInvokeTimeout,
		},
		Storage: StorageConfig{
			Type:              string(utils.StoreTypeFilesystem),
			DataDir:           "./data",
			Compression:       string(utils.CompressionNone),
			RedisPrefix:       "popstats",
			PublicURLTemplate: utils.DefaultPublicURLTemplate,
		},
		Upstream: UpstreamConfig{
			SeriesURL:     utils.DefaultSeriesURL,
			PopulationURL: utils.DefaultPopulationURL,
			UserAgent:     "popstats/1.0 (data-ops@example.com)",
			Timeout:       utils.DefaultFetchTimeout,
		},
		Analysis: AnalysisConfig{
			WindowStart: utils.DefaultWindowStart,
			WindowEnd:   utils.DefaultWindowEnd,
		},
		Events: EventsConfig{
			Type:         string(utils.EventBusMemory),
			Subject:      utils.DefaultEventSubject,
			RedisStream:  "popstats",
			RedisGroup:   "popstats-group",
			KafkaGroupID: "popstats-group",
			TriggerKey:   utils.PopulationKey,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
