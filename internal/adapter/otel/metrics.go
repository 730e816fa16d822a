package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "pmforge"

// Metrics holds the PMForge metric instruments.
type Metrics struct {
	Refreshes        metric.Int64Counter
	RefreshErrors    metric.Int64Counter
	RefreshDuration  metric.Float64Histogram
	BusEmits         metric.Int64Counter
	ListenerFailures metric.Int64Counter
	Notifications    metric.Int64Counter
	NotifyFailures   metric.Int64Counter
	AgentCalls       metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.Refreshes, err = meter.Int64Counter("pmforge.refresh.count",
		metric.WithDescription("Data refreshes performed")); err != nil {
		return nil, err
	}
	if m.RefreshErrors, err = meter.Int64Counter("pmforge.refresh.errors",
		metric.WithDescription("Fetch failures recorded by refreshes")); err != nil {
		return nil, err
	}
	if m.RefreshDuration, err = meter.Float64Histogram("pmforge.refresh.duration_seconds",
		metric.WithDescription("Refresh duration in seconds")); err != nil {
		return nil, err
	}
	if m.BusEmits, err = meter.Int64Counter("pmforge.bus.emits",
		metric.WithDescription("Events emitted on the event bus")); err != nil {
		return nil, err
	}
	if m.ListenerFailures, err = meter.Int64Counter("pmforge.bus.listener_failures",
		metric.WithDescription("Listener errors and panics during dispatch")); err != nil {
		return nil, err
	}
	if m.Notifications, err = meter.Int64Counter("pmforge.notify.published",
		metric.WithDescription("Project change notifications published")); err != nil {
		return nil, err
	}
	if m.NotifyFailures, err = meter.Int64Counter("pmforge.notify.failures",
		metric.WithDescription("Project change notifications that failed to publish")); err != nil {
		return nil, err
	}
	if m.AgentCalls, err = meter.Int64Counter("pmforge.agent.calls",
		metric.WithDescription("Calls made to the agent service")); err != nil {
		return nil, err
	}

	return m, nil
}
