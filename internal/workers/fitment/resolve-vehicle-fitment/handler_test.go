package resolvevehiclefitment

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitment-workers/internal/common/config"
	fitmenterrors "fitment-workers/internal/common/errors"
	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/fitment/catalog"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"
	"fitment-workers/internal/workers/fitment/fitmenttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T, cfg *Config) (*Handler, *fitmenttest.Fixture) {
	fx := fitmenttest.NewFixture(t)
	return NewHandler(cfg, fx.Resolver, logger.NewTestLogger(t)), fx
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		wantResolved bool
		wantSlug     string
		wantMethod   models.MatchMethod
	}{
		{
			name: "structured query",
			input: &Input{YMMS: &models.StructuredQuery{
				Year: intPtr(2016), Make: "chevy", Model: "Camaro SS",
			}},
			wantResolved: true,
			wantSlug:     "chevrolet-camaro-ss-2016-2023",
			wantMethod:   models.MethodYMMS,
		},
		{
			name:         "vendor tags",
			input:        &Input{Tags: []string{"E46", "M3"}},
			wantResolved: true,
			wantSlug:     "bmw-m3-e46",
			wantMethod:   models.MethodPattern,
		},
		{
			name:         "free text",
			input:        &Input{Text: "2017 Honda Civic Type R FK8 intake"},
			wantResolved: true,
			wantSlug:     "honda-civic-type-r-fk8",
		},
		{
			name:         "nothing recognisable",
			input:        &Input{Text: "universal floor mats"},
			wantResolved: false,
		},
		{
			name:         "empty input",
			input:        &Input{},
			wantResolved: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := createTestHandler(t, nil)

			output, err := handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			require.NotNil(t, output)
			assert.Equal(t, tt.wantResolved, output.Resolved)

			if !tt.wantResolved {
				assert.Nil(t, output.Match)
				assert.Nil(t, output.variables()["fitmentMatch"])
				return
			}
			require.NotNil(t, output.Match)
			assert.Equal(t, tt.wantSlug, output.Match.VehicleSlug)
			if tt.wantMethod != "" {
				assert.Equal(t, tt.wantMethod, output.Match.Method)
			}
			assert.Equal(t, tt.wantSlug, output.variables()["vehicleSlug"])
		})
	}
}

func TestHandler_Execute_ConfidenceFloor(t *testing.T) {
	// FK8 alone scores 0.6
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.65
	handler, _ := createTestHandler(t, cfg)
	ctx := context.Background()

	output, err := handler.Execute(ctx, &Input{Tags: []string{"FK8"}})
	require.NoError(t, err)
	assert.False(t, output.Resolved, "configured floor applies when the job sets none")

	output, err = handler.Execute(ctx, &Input{Tags: []string{"FK8"}, MinConfidence: floatPtr(0.5)})
	require.NoError(t, err)
	assert.True(t, output.Resolved, "job floor overrides the configured floor")
	assert.Equal(t, 0.6, output.Match.Confidence)
}

func TestHandler_Execute_ZeroFloorIsHonoured(t *testing.T) {
	handler, _ := createTestHandler(t, nil)
	ctx := context.Background()
	// make-only evidence scores 0.3
	input := &Input{YMMS: &models.StructuredQuery{Make: "chevrolet", Model: "Malibu"}}

	output, err := handler.Execute(ctx, input)
	require.NoError(t, err)
	assert.False(t, output.Resolved)

	input.MinConfidence = floatPtr(0)
	output, err = handler.Execute(ctx, input)
	require.NoError(t, err)
	require.True(t, output.Resolved)
	assert.Equal(t, "chevrolet-camaro-ss-2016-2023", output.Match.VehicleSlug)
	assert.Equal(t, 0.3, output.Match.Confidence)
}

func TestHandler_Execute_CatalogUnavailable(t *testing.T) {
	handler, fx := createTestHandler(t, nil)
	fx.Catalog.Fail(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	_, err := handler.Execute(context.Background(), &Input{Tags: []string{"E46"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)

	stdErr := fitmentjob.Classify(err)
	assert.Equal(t, fitmenterrors.ErrCodeCatalogUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_CatalogEmpty(t *testing.T) {
	handler, fx := createTestHandler(t, nil)
	fx.Catalog.SetVehicles(nil)

	_, err := handler.Execute(context.Background(), &Input{Tags: []string{"E46"}})
	require.Error(t, err)
	assert.Equal(t, fitmenterrors.ErrCodeCatalogEmpty, fitmentjob.Classify(err).Code)
}

func TestInputSchema(t *testing.T) {
	var input Input
	err := fitmentjob.DecodeVariables(fitmenttest.Job(TaskType, `{
		"ymms": {"year": 2016, "make": "Chevrolet", "model": "Camaro", "submodel": "SS"},
		"families": ["Chevrolet Camaro"],
		"orderId": "ord-1"
	}`), inputSchema, &input)
	require.NoError(t, err)
	require.NotNil(t, input.YMMS)
	assert.Equal(t, "SS", input.YMMS.SubmodelValue())
	assert.Nil(t, input.MinConfidence)

	err = fitmentjob.DecodeVariables(fitmenttest.Job(TaskType, `{"ymms": {"year": "2016"}}`), inputSchema, &input)
	assert.Error(t, err)

	err = fitmentjob.DecodeVariables(fitmenttest.Job(TaskType, `{"tags": "E46"}`), inputSchema, &input)
	assert.Error(t, err)
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		Fitment: config.FitmentConfig{MinConfidence: 0.7},
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: true, MaxJobsActive: 8, Timeout: 5000},
		},
	}

	wc := FromAppConfig(cfg)
	assert.Equal(t, 8, wc.MaxJobsActive)
	assert.Equal(t, 5*time.Second, wc.Timeout)
	assert.Equal(t, 0.7, wc.MinConfidence)
	assert.NoError(t, wc.Validate())

	wc.Timeout = 0
	assert.Error(t, wc.Validate())
}
