// Package telemetry provides keyed.Observer implementations that export
// reconciliation cycles as Prometheus metrics and OpenTelemetry spans.
//
//	reg := prometheus.NewRegistry()
//	r, err := keyed.New(todos, renderTodo,
//		keyed.WithName("todos"),
//		keyed.WithObserver(telemetry.NewMetrics(telemetry.WithRegistry(reg))),
//		keyed.WithObserver(telemetry.NewTracing()),
//	)
package telemetry
