package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerDisabled(t *testing.T) {
	tr, closer, err := InitTracer(Config{})
	require.NoError(t, err)
	assert.IsType(t, opentracing.NoopTracer{}, tr)
	closer()
}

func TestStartSpanTagsAndFail(t *testing.T) {
	mt := mocktracer.New()
	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(mt)
	defer opentracing.SetGlobalTracer(prev)

	span, ctx := StartSpan(context.Background(), "turtle.on_candle", map[string]any{"symbol": "BTCUSDT"})
	assert.NotNil(t, opentracing.SpanFromContext(ctx))
	Fail(span, errors.New("boom"))
	span.Finish()

	finished := mt.FinishedSpans()
	require.Len(t, finished, 1)
	assert.Equal(t, "turtle.on_candle", finished[0].OperationName)
	assert.Equal(t, "BTCUSDT", finished[0].Tag("symbol"))
	assert.Equal(t, true, finished[0].Tag("error"))
}
