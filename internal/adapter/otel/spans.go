package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "pmforge"

// StartRefreshSpan starts a span for a data refresh of the given scope
// ("all", "prd", "spec", "roadmap").
func StartRefreshSpan(ctx context.Context, projectID, scope string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "refresh",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("refresh.scope", scope),
		),
	)
}

// StartAgentSpan starts a span for a call to the agent service.
func StartAgentSpan(ctx context.Context, op, agentType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("agent.type", agentType)),
	)
}

// StartNotifySpan starts a span for publishing a change notification.
func StartNotifySpan(ctx context.Context, projectID, updateType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "notify",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("update.type", updateType),
		),
	)
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
