// Package catalog holds the in-memory snapshot of the reference vehicle catalog
// and the stores it is refreshed from.
package catalog

import (
	"context"
	"errors"

	"fitment-workers/internal/models"
)

var (
	// ErrCatalogUnavailable means the catalog store could not be reached and no snapshot exists.
	ErrCatalogUnavailable = errors.New("CATALOG_UNAVAILABLE")
	// ErrCatalogEmpty means the store answered with zero vehicles on first load.
	ErrCatalogEmpty = errors.New("CATALOG_EMPTY")
)

// Store lists the full reference catalog, ordered by name.
type Store interface {
	ListVehicles(ctx context.Context) ([]models.CanonicalVehicle, error)
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ctx context.Context) ([]models.CanonicalVehicle, error)

func (f StoreFunc) ListVehicles(ctx context.Context) ([]models.CanonicalVehicle, error) {
	return f(ctx)
}

// IsConfigurationError reports whether err means scoring cannot run at all,
// as opposed to a resolution that found nothing.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrCatalogUnavailable) || errors.Is(err, ErrCatalogEmpty)
}
