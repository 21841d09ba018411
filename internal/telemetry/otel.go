// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Disabled turns tracing export off when used as the endpoint.
const Disabled = "off"

// Endpoint is a parsed OTLP/HTTP traces endpoint.
type Endpoint struct {
	Host     string
	Path     string
	Insecure bool
}

// ParseEndpoint accepts a full URL or a host:port.
func ParseEndpoint(raw string) (Endpoint, error) {
	ep := Endpoint{Host: "localhost:4318", Path: "/v1/traces", Insecure: true}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ep, nil
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		ep.Host = raw
		return ep, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse traces endpoint %q: %w", raw, err)
	}
	if u.Host != "" {
		ep.Host = u.Host
	}
	if u.Path != "" {
		ep.Path = u.Path
	}
	ep.Insecure = u.Scheme == "http"
	return ep, nil
}

// InitTracer installs the propagators and, unless endpoint is "off", an
// OTLP/HTTP exporting tracer provider. The returned func flushes and stops it.
func InitTracer(ctx context.Context, serviceName, endpoint string, logger *log.Logger) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if strings.EqualFold(strings.TrimSpace(endpoint), Disabled) {
		logger.Printf("[Telemetry] trace export disabled")
		return func(context.Context) error { return nil }, nil
	}

	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(ep.Host),
		otlptracehttp.WithURLPath(ep.Path),
	}
	if ep.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)

	logger.Printf("[Telemetry] exporting traces for %s to %s%s", serviceName, ep.Host, ep.Path)
	return tp.Shutdown, nil
}
