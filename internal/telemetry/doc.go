// Package telemetry содержит наблюдаемость toolflow.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — метрики Prometheus по выполнениям flow и узлов
//   - tracing.go — OpenTelemetry трассировка (OTLP/HTTP)
package telemetry
