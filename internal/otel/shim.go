//go:build no_otel

package otel

import (
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func Tracer(name string) trace.Tracer {
	return noop.NewTracerProvider().Tracer(name)
}
