package forecast

import "time"

// LabelForRow looks up the canned forecast for a display row number.
func LabelForRow(rowNumber int) (string, bool) {
	label, ok := labelByRow[rowNumber]
	return label, ok
}

// Outcome derives "1"/"X"/"2" from a final score. Nil when either side's
// goals are unknown: callers must treat that as "not evaluable", never as a
// wrong forecast.
func Outcome(homeGoals, awayGoals *int) *string {
	if homeGoals == nil || awayGoals == nil {
		return nil
	}
	var outcome string
	switch {
	case *homeGoals > *awayGoals:
		outcome = OutcomeHome
	case *homeGoals < *awayGoals:
		outcome = OutcomeAway
	default:
		outcome = OutcomeDraw
	}
	return &outcome
}

// IsCorrect reports whether the final score lands on one of the two outcomes
// the label covers.
func IsCorrect(label string, homeGoals, awayGoals int) bool {
	switch label {
	case LabelHomeOrDraw:
		return homeGoals >= awayGoals
	case LabelHomeOrAway:
		return homeGoals != awayGoals
	case LabelDrawOrAway:
		return homeGoals <= awayGoals
	default:
		return false
	}
}

// Evaluate builds the history row for a finished fixture. The second return
// is false when the row number carries no forecast or the score is incomplete.
func Evaluate(fixtureID int64, sectionID string, rowNumber int, homeGoals, awayGoals *int, now time.Time) (History, bool) {
	label, ok := LabelForRow(rowNumber)
	if !ok {
		return History{}, false
	}
	outcome := Outcome(homeGoals, awayGoals)
	if outcome == nil {
		return History{}, false
	}
	correct := IsCorrect(label, *homeGoals, *awayGoals)

	return History{
		FixtureID:     fixtureID,
		WeekSectionID: sectionID,
		Label:         label,
		ActualOutcome: outcome,
		IsCorrect:     &correct,
		HomeGoals:     homeGoals,
		AwayGoals:     awayGoals,
		CreatedAt:     now,
	}, true
}
