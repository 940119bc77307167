package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitment-workers/internal/models"

	"github.com/google/uuid"
)

const (
	getMappingQuery = `SELECT id, vendor_key, vendor_tag, vehicle_slug, confidence, verified, source_method, resolved_at
		FROM vendor_tag_mappings
		WHERE vendor_key = $1 AND vendor_tag = $2`

	upsertMappingQuery = `INSERT INTO vendor_tag_mappings
			(id, vendor_key, vendor_tag, vehicle_slug, confidence, verified, source_method, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (vendor_key, vendor_tag) DO UPDATE
		SET vehicle_slug = EXCLUDED.vehicle_slug,
			confidence = EXCLUDED.confidence,
			verified = EXCLUDED.verified,
			source_method = EXCLUDED.source_method,
			resolved_at = EXCLUDED.resolved_at`
)

// PostgresStore reads and upserts rows in vendor_tag_mappings.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) GetExistingMapping(ctx context.Context, vendorKey, vendorTag string) (*models.LearnedMapping, error) {
	var m models.LearnedMapping
	err := s.db.QueryRowContext(ctx, getMappingQuery, vendorKey, vendorTag).Scan(
		&m.ID, &m.VendorKey, &m.VendorTag, &m.VehicleSlug,
		&m.Confidence, &m.Verified, &m.SourceMethod, &m.ResolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query vendor tag mapping: %w", err)
	}
	return &m, nil
}

// SaveMapping upserts on (vendor_key, vendor_tag). An existing row keeps its id.
func (s *PostgresStore) SaveMapping(ctx context.Context, m models.LearnedMapping) error {
	if err := Validate(m); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.ResolvedAt.IsZero() {
		m.ResolvedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx, upsertMappingQuery,
		m.ID, m.VendorKey, m.VendorTag, m.VehicleSlug,
		m.Confidence, m.Verified, m.SourceMethod, m.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert vendor tag mapping: %w", err)
	}
	return nil
}
