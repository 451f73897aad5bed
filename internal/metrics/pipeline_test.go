package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonit33/aarya-sub000/internal/observability"
)

func TestRecordersAreSafeWithoutTelemetry(t *testing.T) {
	observability.TelemetrySystem = nil
	require.NotPanics(t, func() {
		RecordUnit(true)
		RecordUnit(false)
		RecordLLMRequest("m", time.Millisecond, true)
		RecordQuestion("inserted")
		RecordUploadFile(false)
		RecordCommandFailure("upload", "DATABASE_ERROR")
	})
}
