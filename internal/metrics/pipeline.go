package metrics

import (
	"time"

	"github.com/sonit33/aarya-sub000/internal/observability"
)

// Pipeline metrics following Prometheus conventions
const (
	UnitsTotal          = "pipeline_units_total"
	LLMRequestDuration  = "pipeline_llm_request_duration_ms"
	QuestionsTotal      = "pipeline_questions_total"
	UploadFilesTotal    = "pipeline_upload_files_total"
	CommandFailureTotal = "pipeline_command_failures_total"
)

// RecordUnit records one autogeneration unit.
func RecordUnit(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(UnitsTotal, 1, map[string]string{"status": status})
	}
}

// RecordLLMRequest records the latency of one gateway call.
func RecordLLMRequest(model string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(LLMRequestDuration, duration, map[string]string{
			"model":  model,
			"status": status,
		})
	}
}

// RecordQuestion records the terminal state of one uploaded question.
func RecordQuestion(state string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(QuestionsTotal, 1, map[string]string{"state": state})
	}
}

// RecordUploadFile records one processed manifest entry.
func RecordUploadFile(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(UploadFilesTotal, 1, map[string]string{"status": status})
	}
}

// RecordCommandFailure records a command exiting with a failure code.
func RecordCommandFailure(command string, errorCode string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(CommandFailureTotal, 1, map[string]string{
			"command":    command,
			"error_code": errorCode,
		})
	}
}
