// Package errors classifies pipeline failures and wraps them in gofulmen
// error envelopes for the CLI.
package errors

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sonit33/aarya-sub000/internal/ailink"
	"github.com/sonit33/aarya-sub000/internal/ailink/driver"
	"github.com/sonit33/aarya-sub000/internal/config"
	"github.com/sonit33/aarya-sub000/internal/core/engine"
	"github.com/sonit33/aarya-sub000/internal/core/store"
	"github.com/sonit33/aarya-sub000/internal/core/validator"
	"github.com/sonit33/aarya-sub000/internal/metrics"
	"github.com/sonit33/aarya-sub000/internal/observability"
)

// Envelope codes.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeFileNotFound    = "FILE_NOT_FOUND"
	CodeSchemaInvalid   = "SCHEMA_INVALID"
	CodeValidation      = "VALIDATION_FAILED"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeDatabase        = "DATABASE_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeCanceled        = "CANCELED"
	CodeInternal        = "INTERNAL_ERROR"
)

// Kind is the coarse failure class that selects the process exit code.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindMissingFile
	KindValidation
	KindTransport
	KindDB
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindMissingFile:
		return "missing_file"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindDB:
		return "db"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type correlationKey struct{}

// WithCorrelationID stores a run id on ctx for envelopes built later.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID.
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Classify maps an error from any pipeline package to a Kind and envelope code.
func Classify(err error) (Kind, string) {
	if err == nil {
		return KindUnknown, ""
	}

	var (
		missingEnv  *config.MissingEnvError
		readErr     *validator.ReadError
		folderErr   *engine.FolderError
		genErr      *engine.GenerationError
		schemaErr   *validator.SchemaError
		failedErr   *validator.FailedError
		parseErr    *validator.ParseError
		invalidQ    *engine.InvalidQuestionError
		providerErr *driver.ProviderError
		connErr     *store.ConnectionError
		queryErr    *store.QueryError
		envelope    *errors.ErrorEnvelope
		pathErr     *os.PathError
	)

	switch {
	case stderrors.As(err, &envelope):
		return kindForCode(envelope.Code), envelope.Code
	case stderrors.Is(err, context.Canceled):
		return KindCanceled, CodeCanceled
	case stderrors.As(err, &missingEnv), stderrors.Is(err, ailink.ErrMissingToken):
		return KindInput, CodeConfigInvalid
	case stderrors.Is(err, engine.ErrNoScope):
		return KindInput, CodeInvalidInput
	case stderrors.As(err, &schemaErr):
		return KindValidation, CodeSchemaInvalid
	case stderrors.As(err, &failedErr), stderrors.As(err, &parseErr), stderrors.As(err, &invalidQ):
		return KindValidation, CodeValidation
	case stderrors.As(err, &readErr):
		return KindMissingFile, CodeFileNotFound
	case stderrors.As(err, &folderErr):
		return KindMissingFile, CodeFileNotFound
	case stderrors.Is(err, store.ErrNotFound):
		return KindDB, CodeNotFound
	case stderrors.As(err, &connErr), stderrors.As(err, &queryErr):
		return KindDB, CodeDatabase
	case stderrors.As(err, &providerErr), stderrors.Is(err, driver.ErrEmptyChoices):
		return KindTransport, CodeExternalService
	case stderrors.As(err, &genErr):
		switch genErr.Stage {
		case engine.StageLLM:
			return KindTransport, CodeExternalService
		case engine.StagePrompt:
			if stderrors.Is(err, os.ErrNotExist) {
				return KindMissingFile, CodeFileNotFound
			}
			return KindInput, CodeInvalidInput
		default:
			return KindUnknown, CodeInternal
		}
	case stderrors.Is(err, context.DeadlineExceeded):
		return KindTransport, CodeExternalService
	case stderrors.As(err, &pathErr) && stderrors.Is(err, os.ErrNotExist):
		return KindMissingFile, CodeFileNotFound
	}
	return KindUnknown, CodeInternal
}

func kindForCode(code string) Kind {
	switch code {
	case CodeInvalidInput, CodeConfigInvalid:
		return KindInput
	case CodeFileNotFound:
		return KindMissingFile
	case CodeSchemaInvalid, CodeValidation:
		return KindValidation
	case CodeExternalService:
		return KindTransport
	case CodeDatabase, CodeNotFound:
		return KindDB
	case CodeCanceled:
		return KindCanceled
	default:
		return KindUnknown
	}
}

// NewInvalidInputError reports bad flags or arguments.
func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeInvalidInput, message)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeNotFound, message)
}

func NewConfigInvalidError(message string) *errors.ErrorEnvelope {
	return errors.NewErrorEnvelope(CodeConfigInvalid, message)
}

// Wrap classifies err and returns an envelope carrying it as context.
// Envelopes pass through unchanged.
func Wrap(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	if err == nil {
		return nil
	}
	var existing *errors.ErrorEnvelope
	if stderrors.As(err, &existing) {
		return EnsureCorrelationID(existing, ctx)
	}

	kind, code := Classify(err)
	if message == "" {
		message = err.Error()
	}
	envelope := errors.NewErrorEnvelope(code, message)
	envelope = envelope.WithCorrelationID(extractCorrelationID(ctx))
	if updated, ctxErr := envelope.WithContext(map[string]interface{}{
		"kind":          kind.String(),
		"wrapped_error": err.Error(),
	}); ctxErr == nil {
		envelope = updated
	}
	return withSeverity(envelope, kind)
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}
	return Wrap(context.Background(), err, "")
}

// EnsureCorrelationID attaches a correlation ID taken from ctx, or a fresh one.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}
	if envelope.CorrelationID != "" {
		return envelope
	}
	return envelope.WithCorrelationID(extractCorrelationID(ctx))
}

// Report logs the envelope through the CLI logger and counts the failure.
func Report(command string, envelope *errors.ErrorEnvelope) {
	if envelope == nil {
		return
	}
	metrics.RecordCommandFailure(command, envelope.Code)

	if observability.CLILogger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("command", command),
		zap.String("error_code", envelope.Code),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", envelope.CorrelationID))
	}
	observability.CLILogger.Debug(envelope.Message, fields...)
}

func extractCorrelationID(ctx context.Context) string {
	if id := CorrelationID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

func withSeverity(envelope *errors.ErrorEnvelope, kind Kind) *errors.ErrorEnvelope {
	var (
		updated *errors.ErrorEnvelope
		err     error
	)
	switch kind {
	case KindDB, KindUnknown:
		updated, err = envelope.WithSeverity(errors.SeverityHigh)
	default:
		updated, err = envelope.WithSeverity(errors.SeverityMedium)
	}
	if err != nil {
		return envelope
	}
	return updated
}
