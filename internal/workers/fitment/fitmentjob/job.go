// Package fitmentjob holds what the fitment workers share: variable decoding,
// error classification and job failure.
package fitmentjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	fitmenterrors "fitment-workers/internal/common/errors"
	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/common/validation"
	"fitment-workers/internal/fitment/catalog"
	"fitment-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// DecodeVariables validates the job variables against schema and decodes them into dst.
func DecodeVariables(job entities.Job, schema *validation.Schema, dst interface{}) error {
	raw := strings.TrimSpace(job.GetVariables())
	if raw == "" {
		raw = "{}"
	}

	var variables map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &variables); err != nil {
		return fitmenterrors.NewInvalidFitmentInputError(fmt.Sprintf("parse job variables: %v", err))
	}
	if variables == nil {
		variables = map[string]interface{}{}
	}

	if result := schema.Validate(variables); !result.Valid {
		return fitmenterrors.NewInvalidFitmentInputError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("schema", schema.Name())
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fitmenterrors.NewInvalidFitmentInputError(fmt.Sprintf("decode job variables: %v", err))
	}
	return nil
}

// Classify maps resolver errors onto workflow error codes.
func Classify(err error) *fitmenterrors.StandardError {
	var stdErr *fitmenterrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case errors.Is(err, catalog.ErrCatalogEmpty):
		return fitmenterrors.NewCatalogEmptyError()
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return fitmenterrors.NewCatalogUnavailableError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return fitmenterrors.NewQueryTimeoutError("fitment resolution")
	default:
		return fitmenterrors.NewResolutionFailedError(err)
	}
}

// Fail records the failure and hands the job to the error handler, which either
// fails it with retries or throws a BPMN error.
func Fail(ctx context.Context, client worker.JobClient, job entities.Job, taskType string, err error, log logger.Logger) {
	stdErr := Classify(err)
	metrics.WorkerJobsFailed.WithLabelValues(taskType, string(stdErr.Code)).Inc()
	fitmenterrors.NewErrorHandler(log).HandleJobError(ctx, client, job, stdErr)
}

// Options builds resolve options, falling back to the configured floor.
func Options(minConfidence *float64, families []string, fallback float64) models.ResolveOptions {
	floor := fallback
	if minConfidence != nil {
		floor = *minConfidence
	}
	return models.ResolveOptions{Families: families}.WithMinConfidence(floor)
}

// Complete sends the output variables for job.
func Complete(ctx context.Context, client worker.JobClient, job entities.Job, variables map[string]interface{}) error {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}
	if _, err := request.Send(ctx); err != nil {
		return fmt.Errorf("send complete job command: %w", err)
	}
	return nil
}
