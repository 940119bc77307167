package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"fitment-workers/internal/models"
)

const listVehiclesQuery = `SELECT id, slug, name FROM vehicles ORDER BY name, id`

// PostgresStore reads the catalog from the vehicles table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListVehicles(ctx context.Context) ([]models.CanonicalVehicle, error) {
	rows, err := s.db.QueryContext(ctx, listVehiclesQuery)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.CanonicalVehicle
	for rows.Next() {
		var v models.CanonicalVehicle
		if err := rows.Scan(&v.ID, &v.Slug, &v.Name); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}
	return vehicles, nil
}
