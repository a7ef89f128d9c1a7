package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

func (r *RouteRepo) Create(ctx context.Context, route *domain.Route) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO routes (id, name, origin, destination, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, route.ID, route.Name, route.Origin, route.Destination, route.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert route: %w", err)
	}

	if err := insertWaypoints(ctx, tx, route); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *RouteRepo) Upsert(ctx context.Context, route *domain.Route) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO routes (id, name, origin, destination, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, origin = EXCLUDED.origin, destination = EXCLUDED.destination
	`, route.ID, route.Name, route.Origin, route.Destination, route.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert route: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM route_waypoints WHERE route_id = $1`, route.ID); err != nil {
		return fmt.Errorf("clear waypoints: %w", err)
	}
	if err := insertWaypoints(ctx, tx, route); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertWaypoints(ctx context.Context, tx pgx.Tx, route *domain.Route) error {
	batch := &pgx.Batch{}
	for i, wp := range route.Waypoints {
		batch.Queue(`
			INSERT INTO route_waypoints (route_id, seq, name, location, cumulative_nm)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6)
		`, route.ID, i, wp.Name, wp.Location.Lon, wp.Location.Lat, wp.CumulativeNM)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range route.Waypoints {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert waypoint: %w", err)
		}
	}
	return nil
}

func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	var rt domain.Route
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, origin, destination, created_at
		FROM routes WHERE id = $1
	`, id).Scan(&rt.ID, &rt.Name, &rt.Origin, &rt.Destination, &rt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadWaypoints(ctx, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RouteRepo) loadWaypoints(ctx context.Context, rt *domain.Route) error {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       cumulative_nm
		FROM route_waypoints
		WHERE route_id = $1
		ORDER BY seq
	`, rt.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var wp domain.Waypoint
		if err := rows.Scan(&wp.Name, &wp.Location.Lat, &wp.Location.Lon, &wp.CumulativeNM); err != nil {
			return err
		}
		rt.Waypoints = append(rt.Waypoints, wp)
	}
	return rows.Err()
}

func (r *RouteRepo) List(ctx context.Context, limit, offset int) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, origin, destination, created_at
		FROM routes ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []domain.Route
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Origin, &rt.Destination, &rt.CreatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range routes {
		if err := r.loadWaypoints(ctx, &routes[i]); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

func (r *RouteRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM routes`).Scan(&n)
	return n, err
}

func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	// route_waypoints and warnings cascade via FK.
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	return err
}
