package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// WarningRepo implements ports.WarningRepository. The crossing point is
// stored as plain lat/lon columns rather than a geography value: it
// lives in the route's unwrapped frame, where longitudes past 180 are
// meaningful and must not be re-wrapped by the database.
type WarningRepo struct {
	db *DB
}

func NewWarningRepo(db *DB) *WarningRepo { return &WarningRepo{db: db} }

func (r *WarningRepo) Insert(ctx context.Context, w *domain.Warning) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO warnings (id, route_id, advisory_id, storm_id, kind, point_lat, point_lon, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, w.ID, w.RouteID, w.AdvisoryID, w.StormID, string(w.Kind),
		w.Point.Lat, w.Point.Lon, w.IssuedAt)
	return err
}

func (r *WarningRepo) GetByID(ctx context.Context, id string) (*domain.Warning, error) {
	var w domain.Warning
	var kind string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, route_id, advisory_id, storm_id, kind, point_lat, point_lon, issued_at, acknowledged_at
		FROM warnings WHERE id = $1
	`, id).Scan(&w.ID, &w.RouteID, &w.AdvisoryID, &w.StormID, &kind,
		&w.Point.Lat, &w.Point.Lon, &w.IssuedAt, &w.AcknowledgedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w.Kind = domain.FeatureKind(kind)
	return &w, nil
}

func (r *WarningRepo) ListByRoute(ctx context.Context, routeID string, includeAcked bool) ([]domain.Warning, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, route_id, advisory_id, storm_id, kind, point_lat, point_lon, issued_at, acknowledged_at
		FROM warnings
		WHERE route_id = $1 AND ($2 OR acknowledged_at IS NULL)
		ORDER BY issued_at DESC
	`, routeID, includeAcked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warnings []domain.Warning
	for rows.Next() {
		var w domain.Warning
		var kind string
		if err := rows.Scan(&w.ID, &w.RouteID, &w.AdvisoryID, &w.StormID, &kind,
			&w.Point.Lat, &w.Point.Lon, &w.IssuedAt, &w.AcknowledgedAt); err != nil {
			return nil, err
		}
		w.Kind = domain.FeatureKind(kind)
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

func (r *WarningRepo) Acknowledge(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE warnings SET acknowledged_at = now()
		WHERE id = $1 AND acknowledged_at IS NULL
	`, id)
	return err
}

func (r *WarningRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM warnings WHERE id = $1`, id)
	return err
}
