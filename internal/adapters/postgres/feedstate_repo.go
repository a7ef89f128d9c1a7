package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// FeedStateRepo implements ports.FeedStateRepository.
type FeedStateRepo struct {
	db *DB
}

func NewFeedStateRepo(db *DB) *FeedStateRepo { return &FeedStateRepo{db: db} }

func (r *FeedStateRepo) Get(ctx context.Context, feedID string) (*domain.FeedState, error) {
	var fs domain.FeedState
	err := r.db.Pool.QueryRow(ctx, `
		SELECT feed_id, url, basin, last_polled_at, last_revision, last_error, failure_count
		FROM feed_states WHERE feed_id = $1
	`, feedID).Scan(&fs.FeedID, &fs.URL, &fs.Basin, &fs.LastPolledAt,
		&fs.LastRevision, &fs.LastError, &fs.FailureCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

func (r *FeedStateRepo) Upsert(ctx context.Context, fs *domain.FeedState) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO feed_states (feed_id, url, basin, last_polled_at, last_revision, last_error, failure_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (feed_id) DO UPDATE
		SET url = EXCLUDED.url, basin = EXCLUDED.basin, last_polled_at = EXCLUDED.last_polled_at,
		    last_revision = EXCLUDED.last_revision, last_error = EXCLUDED.last_error,
		    failure_count = EXCLUDED.failure_count
	`, fs.FeedID, fs.URL, fs.Basin, fs.LastPolledAt, fs.LastRevision, fs.LastError, fs.FailureCount)
	return err
}

func (r *FeedStateRepo) List(ctx context.Context) ([]domain.FeedState, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT feed_id, url, basin, last_polled_at, last_revision, last_error, failure_count
		FROM feed_states ORDER BY feed_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.FeedState
	for rows.Next() {
		var fs domain.FeedState
		if err := rows.Scan(&fs.FeedID, &fs.URL, &fs.Basin, &fs.LastPolledAt,
			&fs.LastRevision, &fs.LastError, &fs.FailureCount); err != nil {
			return nil, err
		}
		states = append(states, fs)
	}
	return states, rows.Err()
}
