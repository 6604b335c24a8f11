// Package tracing wraps Wikia API calls, page resolution and MCP tool calls
// in OpenTelemetry spans. Tracing stays off unless OTEL_ENABLED=true or an
// OTLP endpoint is configured.
package tracing

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "wikia-mcp-server"

// Span names.
const (
	SpanRequest = "wikia.request"
	SpanResolve = "wikia.resolve"
)

// Attribute keys set on Wikia spans.
const (
	AttrAction    = attribute.Key("wikia.api.action")
	AttrSubWiki   = attribute.Key("wikia.sub_wiki")
	AttrLanguage  = attribute.Key("wikia.language")
	AttrPage      = attribute.Key("wikia.page.title")
	AttrRequestID = attribute.Key("wikia.request.id")
	AttrHops      = attribute.Key("wikia.redirect.hops")
	AttrErrorCode = attribute.Key("wikia.error.code")
	AttrStatus    = attribute.Key("http.response.status_code")
)

// Config holds tracing configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
	OTLPEndpoint   string // OTLP/HTTP when set, otherwise stderr
	SampleRate     float64
}

// ConfigFromEnv reads OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_ENVIRONMENT and WIKIA_TRACE_SAMPLE_RATE.
func ConfigFromEnv() (Config, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg := Config{
		ServiceName:    TracerName,
		ServiceVersion: "1.0.0",
		Environment:    cmp.Or(os.Getenv("OTEL_ENVIRONMENT"), "development"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true" || endpoint != "",
		OTLPEndpoint:   endpoint,
		SampleRate:     1.0,
	}
	if v := os.Getenv("WIKIA_TRACE_SAMPLE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate < 0 || rate > 1 {
			return Config{}, fmt.Errorf("WIKIA_TRACE_SAMPLE_RATE: want a number between 0 and 1, got %q", v)
		}
		cfg.SampleRate = rate
	}
	return cfg, nil
}

// Setup installs the global tracer provider and returns its shutdown
// function. The fallback exporter writes to stderr because stdout carries
// the MCP protocol.
func Setup(ctx context.Context, config Config) (func(context.Context) error, error) {
	if !config.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	var exporter sdktrace.SpanExporter
	if config.OTLPEndpoint != "" {
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(config.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	}
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(config.SampleRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// StartSpan starts a span on the server's tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// StartRequest opens the client span around one Wikia API call. page may
// be empty for calls that do not name a page.
func StartRequest(ctx context.Context, action, subWiki, language, page string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		AttrAction.String(action),
		AttrSubWiki.String(subWiki),
		AttrLanguage.String(language),
	}
	if page != "" {
		attrs = append(attrs, AttrPage.String(page))
	}
	return StartSpan(ctx, SpanRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

// FinishRequest records the outcome of an API call. A zero status means
// the transport never answered.
func FinishRequest(span trace.Span, requestID string, status int) {
	span.SetAttributes(AttrRequestID.String(requestID))
	if status != 0 {
		span.SetAttributes(AttrStatus.Int(status))
	}
}

// StartResolve opens the span around resolving one page reference.
func StartResolve(ctx context.Context, subWiki, ref string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanResolve, trace.WithAttributes(
		AttrSubWiki.String(subWiki),
		AttrPage.String(ref),
	))
}

// FinishResolve records how many redirect hops a resolution followed.
func FinishResolve(span trace.Span, hops int) {
	span.SetAttributes(AttrHops.Int(hops))
}

// AddToolAttributes adds standard tool attributes to a span
func AddToolAttributes(span trace.Span, toolName, category string) {
	span.SetAttributes(
		attribute.String("mcp.tool.name", toolName),
		attribute.String("mcp.tool.category", category),
	)
}

// RecordError marks the span failed. code is the client's error
// classification and is skipped when empty. A nil err is a no-op.
func RecordError(span trace.Span, err error, code string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code != "" {
		span.SetAttributes(AttrErrorCode.String(code))
	}
}
