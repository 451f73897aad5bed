package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sonit33/aarya-sub000/internal/ailink/driver"
	"github.com/sonit33/aarya-sub000/internal/config"
	errwrap "github.com/sonit33/aarya-sub000/internal/errors"
	"github.com/sonit33/aarya-sub000/internal/observability"
)

// BinaryName is the CLI name used in help text, logs and metrics.
const BinaryName = "aarya"

var (
	cfgFile     string
	verbose     bool
	traceFile   string
	metricsPort int

	// Loaded once by initConfig; read-only afterwards.
	appConfig *config.Config

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}

	closeTrace func()
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   BinaryName,
	Short: "Quiz content autogeneration and ingestion pipeline",
	Long: `aarya validates quiz content against a JSON Schema, generates questions
for catalog topics with an LLM, and uploads generated sessions into the
content store without duplicating questions.

Required environment: DB_CONNECTION_STRING, DB_NAME, OPENAI_KEY (each command
checks only the variables it uses).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeTrace != nil {
			closeTrace()
		}
	},
}

// Execute runs the root command and exits with the pipeline exit code on failure.
func Execute() {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		exitForError(cmd, err)
	}
}

func init() {
	// Library code must not emit metrics to stdout unless --metrics-port is set.
	observability.DisableGlobalTelemetry()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./aarya.yaml or ./config/aarya.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "trace LLM requests/responses to NDJSON file")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "expose Prometheus metrics on this port (0 disables)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err.Error())
	})
}

// initConfig loads the process configuration once and sets up logging,
// tracing and metrics.
func initConfig(cmd *cobra.Command, args []string) error {
	stampRunID(cmd)
	if appConfig != nil {
		return nil
	}

	v := viper.New()
	_ = v.BindPFlag("metrics.port", cmd.Root().PersistentFlags().Lookup("metrics-port"))

	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile, Viper: v})
	if err != nil {
		return errwrap.NewConfigInvalidError(fmt.Sprintf("load config: %v", err))
	}
	appConfig = cfg

	if err := observability.InitCLILogger(BinaryName, verbose, cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	logger := observability.CLILogger

	if cfgFile != "" && logger != nil {
		logger.Debug("Using config file", zap.String("path", cfgFile))
	}

	if traceFile != "" {
		cleanup, err := driver.EnableTracing(traceFile)
		if err != nil {
			if logger != nil {
				logger.Warn("Failed to enable tracing", zap.Error(err))
			}
		} else {
			closeTrace = cleanup
			if logger != nil {
				logger.Debug("LLM tracing enabled", zap.String("file", traceFile))
			}
		}
	}

	if cfg.Metrics.Port > 0 {
		if err := observability.InitMetrics(BinaryName, cfg.Metrics.Port); err != nil {
			if logger != nil {
				logger.Warn("Failed to start metrics exporter", zap.Error(err))
			}
		} else if logger != nil {
			logger.Debug("Metrics exporter started", zap.Int("port", observability.GetMetricsPort()))
		}
	}

	return nil
}

// stampRunID gives the command context a correlation id shared by its logs
// and its failure envelope.
func stampRunID(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if errwrap.CorrelationID(ctx) != "" {
		return
	}
	cmd.SetContext(errwrap.WithCorrelationID(ctx, uuid.NewString()))
}

// currentConfig returns the loaded configuration. Tests may call commands
// without PersistentPreRunE, so a zero config is loaded on demand.
func currentConfig() *config.Config {
	if appConfig == nil {
		cfg, err := config.Load(config.LoadOptions{})
		if err != nil {
			cfg = &config.Config{}
		}
		appConfig = cfg
	}
	return appConfig
}
