//go:build !no_otel

// Package otel hands out the tracers of the authorization server packages.
// Building with the no_otel tag replaces them with no-op tracers.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
