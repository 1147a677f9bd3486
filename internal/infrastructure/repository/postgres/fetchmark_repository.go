package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/fetchmark"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

type FetchMarkerRepository struct {
	db *sqlx.DB
}

func NewFetchMarkerRepository(db *sqlx.DB) *FetchMarkerRepository {
	return &FetchMarkerRepository{db: db}
}

func (r *FetchMarkerRepository) Get(ctx context.Context, key string) (fetchmark.Marker, bool, error) {
	query, args, err := qb.Select("cache_key", "last_fetched").From("fetch_markers").
		Where(qb.Eq("cache_key", key)).
		Limit(1).
		ToSQL()
	if err != nil {
		return fetchmark.Marker{}, false, fmt.Errorf("build get fetch marker query: %w", err)
	}

	var row struct {
		Key         string    `db:"cache_key"`
		LastFetched time.Time `db:"last_fetched"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fetchmark.Marker{}, false, nil
		}
		return fetchmark.Marker{}, false, fmt.Errorf("get fetch marker key=%s: %w", key, err)
	}

	return fetchmark.Marker{Key: row.Key, LastFetched: row.LastFetched}, true, nil
}

func (r *FetchMarkerRepository) Touch(ctx context.Context, key string, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx touch fetch marker: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := touchMarkerTx(ctx, tx, key, at); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit touch fetch marker tx: %w", err)
	}
	return nil
}

func touchMarkerTx(ctx context.Context, tx *sqlx.Tx, key string, at time.Time) error {
	query, args, err := qb.InsertInto("fetch_markers").
		Columns("cache_key", "last_fetched").
		Values(key, at).
		Suffix("ON CONFLICT (cache_key) DO UPDATE SET last_fetched = EXCLUDED.last_fetched").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build touch fetch marker query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("touch fetch marker key=%s: %w", key, err)
	}
	return nil
}
