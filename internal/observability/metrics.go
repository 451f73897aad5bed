package observability

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

var (
	// TelemetrySystem is the global telemetry system. It stays nil unless
	// InitMetrics succeeds, so counters are no-ops in ordinary CLI runs.
	TelemetrySystem *telemetry.System

	// PrometheusExporter is the prometheus metrics exporter
	PrometheusExporter *exporters.PrometheusExporter

	metricsPort int
)

// DisableGlobalTelemetry installs a disabled global system so library code
// does not emit metrics to stdout.
func DisableGlobalTelemetry() {
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}
}

// InitMetrics starts a Prometheus exporter on port (0 picks a free port) and
// enables the telemetry system behind it.
func InitMetrics(namespace string, port int) error {
	if port < 0 {
		port = 0
	}
	metricsPort = port

	PrometheusExporter = exporters.NewPrometheusExporter(namespace, fmt.Sprintf(":%d", port))
	if err := PrometheusExporter.Start(); err != nil {
		return fmt.Errorf("start prometheus exporter: %w", err)
	}

	if actual, err := resolvePort(PrometheusExporter.GetAddr()); err == nil {
		metricsPort = actual
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: PrometheusExporter,
	})
	if err != nil {
		return fmt.Errorf("create telemetry system: %w", err)
	}

	TelemetrySystem = sys
	return nil
}

// GetMetricsPort returns the port the Prometheus exporter is listening on
func GetMetricsPort() int {
	return metricsPort
}

func resolvePort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
