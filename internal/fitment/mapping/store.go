// Package mapping persists learned vendor-tag to vehicle resolutions.
package mapping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fitment-workers/internal/models"
)

// ErrInvalidMapping is returned by SaveMapping for a mapping missing its key or target.
var ErrInvalidMapping = errors.New("invalid learned mapping")

// Store is keyed by (vendorKey, vendorTag). At most one mapping exists per key
// and saving the same mapping twice leaves a single record.
type Store interface {
	// GetExistingMapping returns nil and no error when nothing is stored for the key.
	GetExistingMapping(ctx context.Context, vendorKey, vendorTag string) (*models.LearnedMapping, error)
	SaveMapping(ctx context.Context, m models.LearnedMapping) error
}

// Validate checks the fields every store requires.
func Validate(m models.LearnedMapping) error {
	switch {
	case strings.TrimSpace(m.VendorKey) == "":
		return fmt.Errorf("%w: vendor key is required", ErrInvalidMapping)
	case strings.TrimSpace(m.VendorTag) == "":
		return fmt.Errorf("%w: vendor tag is required", ErrInvalidMapping)
	case strings.TrimSpace(m.VehicleSlug) == "":
		return fmt.Errorf("%w: vehicle slug is required", ErrInvalidMapping)
	case m.Confidence < 0 || m.Confidence > 1:
		return fmt.Errorf("%w: confidence %.4f out of range", ErrInvalidMapping, m.Confidence)
	}
	return nil
}
