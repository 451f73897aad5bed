package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/sonit33/aarya-sub000/internal/errors"
	"github.com/sonit33/aarya-sub000/internal/observability"
)

// ExitCode is the process status of a pipeline command.
type ExitCode int

const (
	ExitOK           ExitCode = 0
	ExitUsage        ExitCode = 1
	ExitInputMissing ExitCode = 2
	ExitValidation   ExitCode = 3
	ExitLLM          ExitCode = 4
	ExitDatabase     ExitCode = 5
)

func (c ExitCode) String() string {
	switch c {
	case ExitOK:
		return "ok"
	case ExitUsage:
		return "usage"
	case ExitInputMissing:
		return "input_missing"
	case ExitValidation:
		return "validation"
	case ExitLLM:
		return "llm"
	case ExitDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// exitCodeFor maps any command error to its exit code.
func exitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	kind, _ := errwrap.Classify(err)
	switch kind {
	case errwrap.KindMissingFile:
		return ExitInputMissing
	case errwrap.KindValidation:
		return ExitValidation
	case errwrap.KindTransport:
		return ExitLLM
	case errwrap.KindDB:
		return ExitDatabase
	default:
		return ExitUsage
	}
}

// usageError reports a malformed flag or argument.
func usageError(message string) error {
	return errwrap.NewInvalidInputError(message)
}

// exitForError reports err on stderr and the CLI logger and exits.
func exitForError(cmd *cobra.Command, err error) {
	name := BinaryName
	if cmd != nil {
		name = cmd.Name()
	}
	envelope := commandEnvelope(cmd, err)
	errwrap.Report(name, envelope)

	code := exitCodeFor(err)
	writeError(os.Stderr, err)
	ExitWithCode(observability.CLILogger, code, fmt.Sprintf("%s failed", name), envelope)
}

// commandEnvelope wraps err with the correlation id of the failed command.
func commandEnvelope(cmd *cobra.Command, err error) *errors.ErrorEnvelope {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return errwrap.Wrap(ctx, err, "")
}

// writeError prints the error text, plus the usage hint for usage errors.
func writeError(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	if exitCodeFor(err) == ExitUsage {
		_, _ = fmt.Fprintf(w, "Run '%s --help' for usage.\n", BinaryName)
	}
}

// ExitWithCode exits the program with code after logging the error with its
// envelope metadata.
//
// Parameters:
//   - logger: The logger to use for error output (can be nil for early failures)
//   - code: The pipeline exit code
//   - msg: Human-readable error message
//   - err: The underlying error (can be nil)
func ExitWithCode(logger *logging.Logger, code ExitCode, msg string, err error) {
	if logger != nil {
		fields := []zap.Field{
			zap.Int("exit_code", int(code)),
			zap.String("exit_name", code.String()),
		}
		if envelope, ok := err.(*errors.ErrorEnvelope); ok {
			fields = append(fields,
				zap.String("error_code", envelope.Code),
				zap.String("error_message", envelope.Message),
				zap.String("correlation_id", envelope.CorrelationID),
			)
			if envelope.Context != nil {
				fields = append(fields, zap.Any("error_context", envelope.Context))
			}
		}
		fields = append(fields, zap.Error(err))
		logger.Debug(msg, fields...)
	}
	_ = os.Stderr.Sync()
	os.Exit(int(code))
}

// notifyContext returns a context cancelled on SIGINT/SIGTERM. A second
// Ctrl+C within two seconds force-quits.
func notifyContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	signals.OnShutdown(func(context.Context) error {
		if observability.CLILogger != nil {
			observability.CLILogger.Info("Interrupt received; stopping after the current step")
		}
		cancel()
		return nil
	})
	_ = signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	})

	go func() {
		_ = signals.Listen(ctx)
	}()
	return ctx, cancel
}
