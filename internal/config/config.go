package config

import (
	"time"

	"github.com/sonit33/aarya-sub000/internal/ailink"
)

// Config is the process-wide configuration. It is loaded once at start-up and
// treated as read-only afterwards.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	AILink   ailink.Config  `mapstructure:"ailink"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`

	// OpenAIKey is the LLM bearer token (OPENAI_KEY).
	OpenAIKey string `mapstructure:"openai_key"`
}

// StoreConfig contains database configuration.
//
// ConnectionString is DB_CONNECTION_STRING: a postgres URL/DSN for the
// postgres driver; a libsql URL, "file:" DSN, file path, directory or
// ":memory:" for libsql and sqlite. Name is DB_NAME: the postgres database, or
// the "<name>.db" file when ConnectionString is a directory.
type StoreConfig struct {
	Driver           string `mapstructure:"driver"`
	ConnectionString string `mapstructure:"connection_string"`
	Name             string `mapstructure:"name"`
	AuthToken        string `mapstructure:"auth_token"`
}

// PipelineConfig controls where batch sessions are written.
type PipelineConfig struct {
	TempRoot string `mapstructure:"temp_root"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Port enables the Prometheus exporter when non-zero.
	Port int `mapstructure:"port"`
}

// Defaults applied before the config file and the environment.
const (
	DefaultStoreDriver = "libsql"
	DefaultTempRoot    = "./.temp-data"
	DefaultLogLevel    = "info"
	DefaultAILinkURL   = "https://api.openai.com/v1"
	DefaultTimeout     = 120 * time.Second
)
