package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// AdvisoryRepo implements ports.AdvisoryRepository. Feature geometry is
// stored as JSONB: the scan reads whole advisories, never individual
// rings, so there is nothing to gain from normalizing it.
type AdvisoryRepo struct {
	db *DB
}

func NewAdvisoryRepo(db *DB) *AdvisoryRepo { return &AdvisoryRepo{db: db} }

func (r *AdvisoryRepo) Upsert(ctx context.Context, adv *domain.Advisory) error {
	features, err := json.Marshal(adv.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO advisories (id, storm_id, name, basin, revision, issued_at, active, features, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (storm_id) DO UPDATE
		SET name = EXCLUDED.name, basin = EXCLUDED.basin, revision = EXCLUDED.revision,
		    issued_at = EXCLUDED.issued_at, active = EXCLUDED.active, features = EXCLUDED.features
	`, adv.ID, adv.StormID, adv.Name, adv.Basin, adv.Revision,
		adv.IssuedAt, adv.Active, features, adv.CreatedAt)
	return err
}

const advisoryColumns = `id, storm_id, name, basin, revision, issued_at, active, features, created_at`

func (r *AdvisoryRepo) GetByID(ctx context.Context, id string) (*domain.Advisory, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+advisoryColumns+` FROM advisories WHERE id = $1`, id)
	return scanAdvisory(row)
}

func (r *AdvisoryRepo) GetByRevision(ctx context.Context, stormID, revision string) (*domain.Advisory, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+advisoryColumns+` FROM advisories WHERE storm_id = $1 AND revision = $2`,
		stormID, revision)
	return scanAdvisory(row)
}

// ListActive returns active advisories oldest issue time first; the
// scan's first-hit rule depends on this order.
func (r *AdvisoryRepo) ListActive(ctx context.Context) ([]domain.Advisory, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+advisoryColumns+` FROM advisories WHERE active ORDER BY issued_at, storm_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdvisories(rows)
}

func (r *AdvisoryRepo) List(ctx context.Context, basin string, limit, offset int) ([]domain.Advisory, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+advisoryColumns+` FROM advisories
		WHERE ($1 = '' OR basin = $1)
		ORDER BY issued_at DESC, storm_id
		LIMIT $2 OFFSET $3
	`, basin, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdvisories(rows)
}

func (r *AdvisoryRepo) Deactivate(ctx context.Context, stormID string, before time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE advisories SET active = false
		WHERE storm_id = $1 AND issued_at < $2
	`, stormID, before)
	return err
}

func scanAdvisory(row pgx.Row) (*domain.Advisory, error) {
	var adv domain.Advisory
	var features []byte
	err := row.Scan(&adv.ID, &adv.StormID, &adv.Name, &adv.Basin, &adv.Revision,
		&adv.IssuedAt, &adv.Active, &features, &adv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &adv.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features: %w", err)
	}
	return &adv, nil
}

func collectAdvisories(rows pgx.Rows) ([]domain.Advisory, error) {
	var advisories []domain.Advisory
	for rows.Next() {
		adv, err := scanAdvisory(rows)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, *adv)
	}
	return advisories, rows.Err()
}
