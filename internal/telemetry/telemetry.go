// Package telemetry wires OpenTelemetry tracing for BLE operations.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"blescope/internal/config"
)

const tracerName = "blescope"

// ShutdownFunc flushes and stops the installed provider.
type ShutdownFunc func(context.Context) error

// Setup installs the global TracerProvider selected by cfg.Exporter.
// "noop" (or empty) installs a noop provider; "stdout" writes spans as JSON to
// cfg.Output; "otlp" exports over HTTP to cfg.Endpoint.
func Setup(ctx context.Context, cfg config.TracingConfig) (ShutdownFunc, error) {
	noopShutdown := func(context.Context) error { return nil }

	var (
		exporter sdktrace.SpanExporter
		closeOut = noopShutdown
		err      error
	)
	switch cfg.Exporter {
	case "", "noop":
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	case "stdout":
		f, ferr := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if ferr != nil {
			return nil, fmt.Errorf("open span output: %w", ferr)
		}
		closeOut = func(context.Context) error { return f.Close() }
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	case "otlp":
		exporter, err = otlptracehttp.New(ctx, otlpOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = tracerName
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if cerr := closeOut(ctx); err == nil {
			err = cerr
		}
		return err
	}, nil
}

func otlpOptions(cfg config.TracingConfig) []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if strings.Contains(cfg.Endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// Tracer returns the application tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

type taskIDKey struct{}

// WithTaskID tags ctx with the ID of the task running under it.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

// TaskID returns the task ID carried by ctx, if any.
func TaskID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(taskIDKey{}).(string)
	return id, ok && id != ""
}

// StartSpan starts a named span on t, or on the global tracer when t is nil.
// Spans started under a task carry its ID.
func StartSpan(ctx context.Context, t trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil {
		t = Tracer()
	}
	if id, ok := TaskID(ctx); ok {
		attrs = append(attrs, AttrTaskID.String(id))
	}
	return t.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on the span (if any) and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		RecordError(span, err)
	} else {
		SetOK(span)
	}
	span.End()
}

// RecordError records an error on the span and sets error status.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK sets the span status to OK.
func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Attribute keys used on BLE spans.
const (
	AttrAddress  = attribute.Key("ble.address")
	AttrCharUUID = attribute.Key("ble.characteristic.uuid")
	AttrDevices  = attribute.Key("ble.devices")
	AttrTaskID   = attribute.Key("blescope.task.id")
)
