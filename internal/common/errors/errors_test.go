package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "catalog unavailable retries",
			err:             NewCatalogUnavailableError(fmt.Errorf("dial tcp: refused")),
			expectedCode:    "CATALOG_UNAVAILABLE",
			expectedRetries: 3,
		},
		{
			name:            "empty catalog is terminal",
			err:             NewCatalogEmptyError(),
			expectedCode:    "CATALOG_EMPTY",
			expectedRetries: 0,
		},
		{
			name:            "invalid input is terminal",
			err:             NewInvalidFitmentInputError("tags: at least one item required"),
			expectedCode:    "INVALID_FITMENT_INPUT",
			expectedRetries: 0,
		},
		{
			name:            "timeout retries twice",
			err:             NewQueryTimeoutError("catalog fetch"),
			expectedCode:    "QUERY_TIMEOUT",
			expectedRetries: 2,
		},
		{
			name: "non-retryable overrides code default",
			err: &StandardError{
				Code:      ErrCodeCatalogUnavailable,
				Message:   "catalog unavailable",
				Retryable: false,
			},
			expectedCode:    "CATALOG_UNAVAILABLE",
			expectedRetries: 0,
		},
		{
			name:            "unknown code falls back to itself",
			err:             &StandardError{Code: "SOMETHING_ELSE", Message: "x"},
			expectedCode:    "SOMETHING_ELSE",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmn.Code)
			assert.Equal(t, tt.expectedRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestBPMNError_ToErrorVariablesIncludesMetadata(t *testing.T) {
	stdErr := NewInvalidFitmentInputError("vendorKey is required").WithMetadata("taskType", "resolve-vendor-tags")

	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "INVALID_FITMENT_INPUT", vars["errorCode"])
	assert.Equal(t, "vendorKey is required", vars["errorDetails"])
	assert.Equal(t, false, vars["retryable"])
	assert.Equal(t, "resolve-vendor-tags", vars["taskType"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogEmpty))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "BROKER", GetErrorCategory(ErrCodeBrokerUnavailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidFitmentInput))
	assert.Equal(t, "RESOLUTION", GetErrorCategory(ErrCodeResolutionFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeCatalogUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeCatalogEmpty))
	assert.False(t, IsRetryableErrorCode(ErrCodeResolutionFailed))
}
