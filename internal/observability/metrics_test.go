package observability_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prism/internal/observability"
)

func TestNewPipelineMetrics(t *testing.T) {
	t.Parallel()

	meter, _, err := observability.PrometheusMeter()
	require.NoError(t, err)

	metrics, err := observability.NewPipelineMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()

	metrics.RecordEmitted(ctx, "commit")
	metrics.RecordDropped(ctx, "robots")
	metrics.PassCompleted(ctx, "user_info", 3, 50*time.Millisecond)
}

func TestPipelineMetrics_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *observability.PipelineMetrics

	ctx := context.Background()

	metrics.RecordEmitted(ctx, "commit")
	metrics.RecordDropped(ctx, "robots")
	metrics.PassCompleted(ctx, "user_info", 1, time.Second)
}

func TestPrometheusMeter_ServesScrapeEndpoint(t *testing.T) {
	t.Parallel()

	meter, handler, err := observability.PrometheusMeter()
	require.NoError(t, err)
	require.NotNil(t, handler)

	metrics, err := observability.NewPipelineMetrics(meter)
	require.NoError(t, err)

	metrics.RecordEmitted(context.Background(), "commit")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "prism_records_emitted_total")
}

func TestPrometheusMeter_IndependentRegistries(t *testing.T) {
	t.Parallel()

	_, first, err := observability.PrometheusMeter()
	require.NoError(t, err)

	_, second, err := observability.PrometheusMeter()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}
