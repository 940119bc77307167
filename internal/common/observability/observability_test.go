package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"fitment-workers/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New("fitment-workers", "test", logger.NewTestLogger(t), WithRegisterer(reg), WithoutGlobal())
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "resolve-vehicle-fitment", "completed")
	obs.RecordJobDuration(ctx, "resolve-vehicle-fitment", 15*time.Millisecond, "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var processed, duration bool
	for _, f := range families {
		processed = processed || strings.HasPrefix(f.GetName(), "jobs_processed")
		duration = duration || strings.HasPrefix(f.GetName(), "jobs_duration")
	}
	assert.True(t, processed)
	assert.True(t, duration)
}

func TestObservability_Tracer(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("fitment-workers", "test", nil,
		WithRegisterer(prometheus.NewRegistry()),
		WithSpanProcessor(recorder),
		WithoutGlobal(),
	)
	require.NoError(t, err)

	_, span := obs.Tracer("test").Start(context.Background(), "resolve")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "resolve", ended[0].Name())

	assert.NoError(t, obs.Shutdown(context.Background()))
}
