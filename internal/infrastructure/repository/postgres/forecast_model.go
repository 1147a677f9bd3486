package postgres

import (
	"time"

	"github.com/riskibarqy/matchday/internal/domain/forecast"
)

type forecastHistoryTableModel struct {
	FixtureID     int64     `db:"fixture_id"`
	WeekSectionID string    `db:"week_section_id"`
	Forecast      string    `db:"forecast"`
	ActualOutcome *string   `db:"actual_outcome"`
	IsCorrect     *bool     `db:"is_correct"`
	HomeGoals     *int      `db:"home_goals"`
	AwayGoals     *int      `db:"away_goals"`
	CreatedAt     time.Time `db:"created_at"`
}

func newForecastHistoryModel(item forecast.History) forecastHistoryTableModel {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return forecastHistoryTableModel{
		FixtureID:     item.FixtureID,
		WeekSectionID: item.WeekSectionID,
		Forecast:      item.Label,
		ActualOutcome: item.ActualOutcome,
		IsCorrect:     item.IsCorrect,
		HomeGoals:     item.HomeGoals,
		AwayGoals:     item.AwayGoals,
		CreatedAt:     createdAt,
	}
}

func (m forecastHistoryTableModel) toDomain() forecast.History {
	return forecast.History{
		FixtureID:     m.FixtureID,
		WeekSectionID: m.WeekSectionID,
		Label:         m.Forecast,
		ActualOutcome: m.ActualOutcome,
		IsCorrect:     m.IsCorrect,
		HomeGoals:     m.HomeGoals,
		AwayGoals:     m.AwayGoals,
		CreatedAt:     m.CreatedAt,
	}
}
