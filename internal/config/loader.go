// Package config loads the pipeline configuration from an optional YAML file,
// an optional .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variables read without the AARYA_ prefix.
const (
	EnvConnectionString = "DB_CONNECTION_STRING"
	EnvDBName           = "DB_NAME"
	EnvOpenAIKey        = "OPENAI_KEY"

	EnvPrefix = "AARYA"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file; an error is returned when it cannot be read.
	ConfigFile string
	// EnvFile is loaded into the environment when it exists. Existing
	// variables win. Defaults to ".env".
	EnvFile string
	// Viper allows callers (the CLI) to pass an instance with bound flags.
	Viper *viper.Viper
}

// Load builds a Config and stores it as the process configuration.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := opts.Viper
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("aarya")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("store.connection_string", EnvConnectionString)
	_ = v.BindEnv("store.name", EnvDBName)
	_ = v.BindEnv("openai_key", EnvOpenAIKey)

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.OpenAIKey = strings.TrimSpace(cfg.OpenAIKey)

	setConfig(cfg)
	return cfg, nil
}

// SetDefaults registers every known key so environment overrides apply.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", DefaultStoreDriver)
	v.SetDefault("store.connection_string", "")
	v.SetDefault("store.name", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("ailink.base_url", DefaultAILinkURL)
	v.SetDefault("ailink.model", "gpt-4o")
	v.SetDefault("ailink.timeout", DefaultTimeout.String())
	v.SetDefault("ailink.requests_per_minute", 0)
	v.SetDefault("ailink.max_image_dimension", 0)

	v.SetDefault("pipeline.temp_root", DefaultTempRoot)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("metrics.port", 0)
	v.SetDefault("openai_key", "")
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
