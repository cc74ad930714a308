// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	YouTube  YouTubeConfig
	Pipeline PipelineConfig
	Shorts   ShortsConfig
	RabbitMQ RabbitMQConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Server   ServerConfig
	Admin    AdminConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// YouTubeConfig contains YouTube Data API credentials and query parameters.
//
// APIKeys is an ordered failover list: the pipeline starts with the first
// key and advances to the next one whenever a call fails with a
// quota-exceeded error.
type YouTubeConfig struct {
	APIKeys          []string
	RelevanceKeyword string
	SearchQuery      string
	Season           string
	DefaultWatermark string
}

// PipelineConfig contains tuning parameters for the discovery pipeline.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PipelineConfig struct {
	MaxResultsPerChannel int64
	MaxChannelsPerRun    int
	ActiveWindowDays     int
	MaxDurationSeconds   int
	PacingDelay          time.Duration
	StatsStaleAfter      time.Duration
	StatsBatchLimit      int
}

// ShortsConfig contains the short-form classification thresholds. The
// observed variants disagree on cutoffs (61s vs 65s), so both are explicit
// configuration rather than inferred defaults.
type ShortsConfig struct {
	DurationCutoffSeconds      int
	LightDurationCutoffSeconds int
	LongFormCutoffSeconds      int
	ScoreThreshold             int
	PacingDelay                time.Duration
}

// RabbitMQConfig contains RabbitMQ connection and exchange configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
	Enabled    bool
}

// AdminConfig contains authentication for the trigger endpoints.
type AdminConfig struct {
	APITokens []string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "madtown_videos")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// YouTube
	viper.SetDefault("youtube.apikeys", []string{})
	viper.SetDefault("youtube.relevancekeyword", "madtown")
	viper.SetDefault("youtube.searchquery",
		"madtown OR マッドタウン OR #MADTOWN OR #マッドタウン OR madtown切り抜き")
	viper.SetDefault("youtube.season", "2025-10")
	viper.SetDefault("youtube.defaultwatermark", "2025-10-01T00:00:00Z")

	// Pipeline
	viper.SetDefault("pipeline.maxresultsperchannel", 5)
	viper.SetDefault("pipeline.maxchannelsperrun", 30)
	viper.SetDefault("pipeline.activewindowdays", 5)
	viper.SetDefault("pipeline.maxdurationseconds", 3600)
	viper.SetDefault("pipeline.pacingdelay", 300*time.Millisecond)
	viper.SetDefault("pipeline.statsstaleafter", 6*time.Hour)
	viper.SetDefault("pipeline.statsbatchlimit", 300)

	// Shorts
	viper.SetDefault("shorts.durationcutoffseconds", 65)
	viper.SetDefault("shorts.lightdurationcutoffseconds", 61)
	viper.SetDefault("shorts.longformcutoffseconds", 300)
	viper.SetDefault("shorts.scorethreshold", 2)
	viper.SetDefault("shorts.pacingdelay", 300*time.Millisecond)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "madtown.pipeline")
	viper.SetDefault("rabbitmq.queue", "madtown.run-summaries")
	viper.SetDefault("rabbitmq.routingkey", "run.completed")

	// Admin
	viper.SetDefault("admin.apitokens", []string{})

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
