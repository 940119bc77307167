package invalidatevehiclecatalog

import (
	"context"
	"errors"
	"testing"

	fitmenterrors "fitment-workers/internal/common/errors"
	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/models"
	"fitment-workers/internal/workers/fitment/fitmentjob"
	"fitment-workers/internal/workers/fitment/fitmenttest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) (*Handler, *fitmenttest.Fixture) {
	fx := fitmenttest.NewFixture(t)
	return NewHandler(nil, fx.Resolver, logger.NewTestLogger(t)), fx
}

func TestHandler_Execute_InvalidateOnly(t *testing.T) {
	handler, fx := createTestHandler(t)
	ctx := context.Background()

	_, err := fx.Resolver.WarmCatalog(ctx)
	require.NoError(t, err)

	output, err := handler.Execute(ctx, &Input{})
	require.NoError(t, err)
	assert.True(t, output.Invalidated)
	assert.False(t, output.Reloaded)
	assert.Equal(t, 1, fx.Catalog.Calls(), "invalidation alone does not fetch")
	assert.NotContains(t, output.variables(), "catalogSize")

	_, err = fx.Resolver.Resolve(ctx, models.ResolveInput{Tags: []string{"FK8"}}, models.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, fx.Catalog.Calls(), "next resolution refetches")
}

func TestHandler_Execute_Reload(t *testing.T) {
	handler, fx := createTestHandler(t)
	ctx := context.Background()

	_, err := fx.Resolver.WarmCatalog(ctx)
	require.NoError(t, err)

	fx.Catalog.SetVehicles(append(fitmenttest.Vehicles(), models.CanonicalVehicle{
		ID: "v08", Slug: "volkswagen-golf-r-mk8", Name: "2022-Present Volkswagen Golf R",
	}))

	output, err := handler.Execute(ctx, &Input{Reload: true})
	require.NoError(t, err)
	assert.True(t, output.Reloaded)
	assert.Equal(t, len(fitmenttest.Vehicles())+1, output.Size)
	assert.Equal(t, output.Size, output.variables()["catalogSize"])

	match, err := fx.Resolver.Resolve(ctx, models.ResolveInput{Tags: []string{"Golf R", "MK8"}}, models.ResolveOptions{})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "volkswagen-golf-r-mk8", match.VehicleSlug)
}

func TestHandler_Execute_ReloadWithoutCatalog(t *testing.T) {
	handler, fx := createTestHandler(t)
	fx.Catalog.Fail(errors.New("connection refused"))

	_, err := handler.Execute(context.Background(), &Input{Reload: true})
	require.Error(t, err)
	assert.Equal(t, fitmenterrors.ErrCodeCatalogUnavailable, fitmentjob.Classify(err).Code)
}

func TestHandler_Execute_ReloadFailureServesStaleSnapshot(t *testing.T) {
	handler, fx := createTestHandler(t)
	ctx := context.Background()

	_, err := fx.Resolver.WarmCatalog(ctx)
	require.NoError(t, err)
	fx.Catalog.Fail(errors.New("connection refused"))

	output, err := handler.Execute(ctx, &Input{Reload: true})
	require.NoError(t, err)
	assert.Equal(t, len(fitmenttest.Vehicles()), output.Size)
}

func TestInputSchema(t *testing.T) {
	var input Input
	require.NoError(t, fitmentjob.DecodeVariables(fitmenttest.Job(TaskType, `{"reload": true}`), inputSchema, &input))
	assert.True(t, input.Reload)

	input = Input{}
	require.NoError(t, fitmentjob.DecodeVariables(fitmenttest.Job(TaskType, ``), inputSchema, &input))
	assert.False(t, input.Reload)

	assert.Error(t, fitmentjob.DecodeVariables(fitmenttest.Job(TaskType, `{"reload": "yes"}`), inputSchema, &input))
}
