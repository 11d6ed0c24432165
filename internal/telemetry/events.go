package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceReportGeneration starts a span around rendering one donor report
func TraceReportGeneration(ctx context.Context, donorID, template string, stories int) (context.Context, trace.Span) {
	return otel.Tracer("business-events").Start(ctx, "report.generate",
		trace.WithAttributes(
			attribute.String("donor.id", donorID),
			attribute.String("report.template", template),
			attribute.Int("report.stories", stories),
		),
	)
}

// TraceStoryPublished starts a span around publish side effects
func TraceStoryPublished(ctx context.Context, storyID string, recipients int) (context.Context, trace.Span) {
	return otel.Tracer("business-events").Start(ctx, "story.publish_notify",
		trace.WithAttributes(
			attribute.String("story.id", storyID),
			attribute.Int("notify.recipients", recipients),
		),
	)
}

// TraceRollup starts a span around a one-day analytics rollup
func TraceRollup(ctx context.Context, date string) (context.Context, trace.Span) {
	return otel.Tracer("business-events").Start(ctx, "analytics.rollup_day",
		trace.WithAttributes(attribute.String("rollup.date", date)),
	)
}
