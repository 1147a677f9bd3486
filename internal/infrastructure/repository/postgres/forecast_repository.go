package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/forecast"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

const forecastHistoryUpsertSuffix = `ON CONFLICT (fixture_id, week_section_id)
DO UPDATE SET
    forecast = EXCLUDED.forecast,
    actual_outcome = EXCLUDED.actual_outcome,
    is_correct = EXCLUDED.is_correct,
    home_goals = EXCLUDED.home_goals,
    away_goals = EXCLUDED.away_goals,
    created_at = EXCLUDED.created_at`

type ForecastHistoryRepository struct {
	db *sqlx.DB
}

func NewForecastHistoryRepository(db *sqlx.DB) *ForecastHistoryRepository {
	return &ForecastHistoryRepository{db: db}
}

func (r *ForecastHistoryRepository) List(ctx context.Context, limit int) ([]forecast.History, error) {
	builder := qb.Select("*").From("forecast_history").
		OrderBy("created_at DESC", "fixture_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list forecast history query: %w", err)
	}

	var rows []forecastHistoryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list forecast history: %w", err)
	}

	out := make([]forecast.History, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ForecastHistoryRepository) ListBySection(ctx context.Context, sectionID string, limit int) ([]forecast.History, error) {
	builder := qb.Select("*").From("forecast_history").
		Where(qb.Eq("week_section_id", sectionID)).
		OrderBy("fixture_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list forecast history by section query: %w", err)
	}

	var rows []forecastHistoryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list forecast history by section: %w", err)
	}

	out := make([]forecast.History, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ForecastHistoryRepository) Upsert(ctx context.Context, rows []forecast.History) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert forecast history: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range rows {
		if err := upsertHistoryTx(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert forecast history tx: %w", err)
	}
	return nil
}

func (r *ForecastHistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := qb.DeleteFrom("forecast_history").
		Where(qb.Expr("created_at < ?", cutoff)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete old forecast history query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete old forecast history: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

func upsertHistoryTx(ctx context.Context, tx *sqlx.Tx, item forecast.History) error {
	query, args, err := qb.InsertModel("forecast_history", newForecastHistoryModel(item), forecastHistoryUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert forecast history query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert forecast history fixture=%d section=%s: %w", item.FixtureID, item.WeekSectionID, err)
	}
	return nil
}
