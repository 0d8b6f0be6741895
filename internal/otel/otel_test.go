package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracer(t *testing.T) {
	tracer := Tracer("github.com/zitadel/authserver/internal/otel")
	ctx, span := tracer.Start(context.Background(), "Test")
	defer span.End()
	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}
