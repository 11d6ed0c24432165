package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HTTPClientConfig holds configuration for an instrumented HTTP client
type HTTPClientConfig struct {
	ServiceName string
	Timeout     time.Duration
	Transport   http.RoundTripper
}

// NewInstrumentedHTTPClient returns a client whose requests are traced
func NewInstrumentedHTTPClient(cfg HTTPClientConfig) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: otelhttp.NewTransport(base,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if cfg.ServiceName != "" {
					return cfg.ServiceName + " " + r.Method
				}
				return "HTTP " + r.Method
			}),
		),
	}
}

// ExternalCall describes a call to a dependency outside the process
type ExternalCall struct {
	Service    string
	Operation  string
	ResourceID string
}

// TraceExternalCall starts a client span for an external call
func TraceExternalCall(ctx context.Context, call ExternalCall) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("external-api").Start(ctx, fmt.Sprintf("%s.%s", call.Service, call.Operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("external.service", call.Service),
			attribute.String("external.operation", call.Operation),
		),
	)
	if call.ResourceID != "" {
		span.SetAttributes(attribute.String("external.resource_id", call.ResourceID))
	}
	return ctx, span
}

// RecordExternalCallError marks span failed
func RecordExternalCallError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
