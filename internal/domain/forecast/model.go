package forecast

import (
	"context"
	"time"
)

// Two-outcome forecast labels.
const (
	LabelHomeOrDraw = "1/X"
	LabelHomeOrAway = "1/2"
	LabelDrawOrAway = "X/2"
)

// Final-score outcomes.
const (
	OutcomeHome = "1"
	OutcomeDraw = "X"
	OutcomeAway = "2"
)

// labelByRow is the static forecast table: the label a score row carries is a
// function of its display row number alone. Row numbers outside the table
// carry no forecast.
var labelByRow = map[int]string{
	1:  LabelHomeOrDraw,
	2:  LabelDrawOrAway,
	3:  LabelHomeOrAway,
	4:  LabelHomeOrDraw,
	5:  LabelHomeOrAway,
	6:  LabelDrawOrAway,
	7:  LabelHomeOrDraw,
	8:  LabelHomeOrAway,
	9:  LabelDrawOrAway,
	10: LabelHomeOrDraw,
}

// History is one evaluated forecast, at most one per
// (FixtureID, WeekSectionID); later writes overwrite earlier ones.
type History struct {
	FixtureID     int64
	WeekSectionID string
	Label         string
	ActualOutcome *string
	IsCorrect     *bool
	HomeGoals     *int
	AwayGoals     *int
	CreatedAt     time.Time
}

type Repository interface {
	List(ctx context.Context, limit int) ([]History, error)
	ListBySection(ctx context.Context, sectionID string, limit int) ([]History, error)
	Upsert(ctx context.Context, rows []History) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
