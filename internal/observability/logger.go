package observability

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
)

// CLILogger is used for CLI commands (SIMPLE profile)
var CLILogger *logging.Logger

// InitCLILogger initializes the CLI logger with SIMPLE profile at the
// configured level. Verbose forces DEBUG.
func InitCLILogger(serviceName string, verbose bool, level string) error {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		return fmt.Errorf("initialize CLI logger: %w", err)
	}

	if verbose {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(ParseLevel(level))
	}

	CLILogger = logger
	return nil
}

// ParseLevel maps a configured level name (any case) to a severity.
// Unknown or empty names fall back to INFO.
func ParseLevel(level string) logging.Severity {
	name := strings.ToUpper(strings.TrimSpace(level))
	if name == "WARNING" {
		name = "WARN"
	}
	return logging.ParseSeverity(name)
}
