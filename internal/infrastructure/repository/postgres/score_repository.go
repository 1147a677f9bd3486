package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday/internal/domain/forecast"
	"github.com/riskibarqy/matchday/internal/domain/score"
	qb "github.com/riskibarqy/matchday/internal/platform/querybuilder"
)

const scoreRowUpsertSuffix = `ON CONFLICT (fixture_id, section_id)
DO UPDATE SET
    row_number = EXCLUDED.row_number,
    kickoff_at = EXCLUDED.kickoff_at,
    day_label = EXCLUDED.day_label,
    status = EXCLUDED.status,
    elapsed = EXCLUDED.elapsed,
    home_winner = EXCLUDED.home_winner,
    away_winner = EXCLUDED.away_winner,
    league_round = EXCLUDED.league_round,
    odds_home = EXCLUDED.odds_home,
    odds_draw = EXCLUDED.odds_draw,
    odds_away = EXCLUDED.odds_away,
    home_goals = EXCLUDED.home_goals,
    away_goals = EXCLUDED.away_goals,
    last_updated = EXCLUDED.last_updated`

type ScoreRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db, now: time.Now}
}

func (r *ScoreRepository) ListBySection(ctx context.Context, sectionID string) ([]score.Row, error) {
	query, args, err := qb.Select("*").From("score_rows").
		Where(qb.Eq("section_id", sectionID)).
		OrderBy("row_number", "fixture_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list score rows query: %w", err)
	}

	var rows []scoreRowTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list score rows: %w", err)
	}

	out := make([]score.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ReconcileSection applies one fetched batch atomically: upsert every incoming
// row, delete stored rows that left the window, write history for fixtures
// that finished during this pass, and stamp the fetch marker. The deletions
// are derived from identifiers read at the start of the same transaction.
func (r *ScoreRepository) ReconcileSection(
	ctx context.Context,
	sectionID string,
	rows []score.Row,
	historyCandidates map[int64]forecast.History,
	markerKey string,
) (score.ReconcileOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return score.ReconcileOutcome{}, fmt.Errorf("begin tx reconcile section: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existingStatus, err := loadSectionStatuses(ctx, tx, sectionID)
	if err != nil {
		return score.ReconcileOutcome{}, err
	}

	now := r.now().UTC()
	outcome := score.ReconcileOutcome{}
	incoming := make(map[int64]struct{}, len(rows))

	for _, row := range rows {
		incoming[row.FixtureID] = struct{}{}

		query, args, err := qb.InsertModel("score_rows", newScoreRowInsertModel(row, now), scoreRowUpsertSuffix)
		if err != nil {
			return score.ReconcileOutcome{}, fmt.Errorf("build upsert score row query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return score.ReconcileOutcome{}, fmt.Errorf("upsert score row fixture=%d: %w", row.FixtureID, err)
		}

		previous, existed := existingStatus[row.FixtureID]
		if existed {
			outcome.Updated++
		} else {
			outcome.Inserted++
		}

		if transitionedToFinished(previous, existed, row.Status) {
			outcome.Finished = append(outcome.Finished, row.FixtureID)
			if history, ok := historyCandidates[row.FixtureID]; ok {
				if err := upsertHistoryTx(ctx, tx, history); err != nil {
					return score.ReconcileOutcome{}, err
				}
				outcome.HistoryWritten++
			}
		}
	}

	stale := staleFixtureIDs(existingStatus, incoming)
	if len(stale) > 0 {
		query, args, err := qb.DeleteFrom("score_rows").
			Where(qb.Eq("section_id", sectionID), qb.In("fixture_id", stale)).
			ToSQL()
		if err != nil {
			return score.ReconcileOutcome{}, fmt.Errorf("build delete stale score rows query: %w", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return score.ReconcileOutcome{}, fmt.Errorf("delete stale score rows: %w", err)
		}
		if affected, err := result.RowsAffected(); err == nil {
			outcome.Deleted = int(affected)
		} else {
			outcome.Deleted = len(stale)
		}
	}

	if markerKey != "" {
		if err := touchMarkerTx(ctx, tx, markerKey, now); err != nil {
			return score.ReconcileOutcome{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return score.ReconcileOutcome{}, fmt.Errorf("commit reconcile section tx: %w", err)
	}
	return outcome, nil
}

func (r *ScoreRepository) ApplyLiveScores(
	ctx context.Context,
	sectionID string,
	updates []score.LiveScore,
	historyCandidates map[int64]forecast.History,
) (score.LiveOutcome, error) {
	if len(updates) == 0 {
		return score.LiveOutcome{}, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return score.LiveOutcome{}, fmt.Errorf("begin tx apply live scores: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existingStatus, err := loadSectionStatuses(ctx, tx, sectionID)
	if err != nil {
		return score.LiveOutcome{}, err
	}

	now := r.now().UTC()
	outcome := score.LiveOutcome{}

	for _, update := range updates {
		previous, existed := existingStatus[update.FixtureID]
		if !existed {
			continue
		}

		query, args, err := qb.Update("score_rows").
			Set("status", update.Status).
			Set("elapsed", update.Elapsed).
			Set("home_goals", update.HomeGoals).
			Set("away_goals", update.AwayGoals).
			Set("last_updated", now).
			Where(qb.Eq("section_id", sectionID), qb.Eq("fixture_id", update.FixtureID)).
			ToSQL()
		if err != nil {
			return score.LiveOutcome{}, fmt.Errorf("build live update query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return score.LiveOutcome{}, fmt.Errorf("apply live score fixture=%d: %w", update.FixtureID, err)
		}
		outcome.Updated++

		if transitionedToFinished(previous, true, update.Status) {
			outcome.Finished = append(outcome.Finished, update.FixtureID)
			if history, ok := historyCandidates[update.FixtureID]; ok {
				if err := upsertHistoryTx(ctx, tx, history); err != nil {
					return score.LiveOutcome{}, err
				}
				outcome.HistoryWritten++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return score.LiveOutcome{}, fmt.Errorf("commit apply live scores tx: %w", err)
	}
	return outcome, nil
}

func loadSectionStatuses(ctx context.Context, tx *sqlx.Tx, sectionID string) (map[int64]string, error) {
	query, args, err := qb.Select("fixture_id", "status").From("score_rows").
		Where(qb.Eq("section_id", sectionID)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build section statuses query: %w", err)
	}

	var rows []struct {
		FixtureID int64  `db:"fixture_id"`
		Status    string `db:"status"`
	}
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("load section statuses: %w", err)
	}

	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.FixtureID] = row.Status
	}
	return out, nil
}

// staleFixtureIDs lists stored fixtures absent from the incoming batch; those
// rows left the window and must be deleted in the same pass.
func staleFixtureIDs(existing map[int64]string, incoming map[int64]struct{}) []any {
	stale := make([]any, 0)
	for fixtureID := range existing {
		if _, ok := incoming[fixtureID]; !ok {
			stale = append(stale, fixtureID)
		}
	}
	return stale
}

// transitionedToFinished reports a not-finished -> finished status change. A
// fixture first seen already finished did not transition during this pass.
func transitionedToFinished(previousStatus string, existed bool, incomingStatus string) bool {
	if !existed {
		return false
	}
	return !score.IsFinishedStatus(previousStatus) && score.IsFinishedStatus(incomingStatus)
}
