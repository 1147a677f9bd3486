package score

import (
	"sort"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/schedule"
)

// Assemble joins fixtures with their odds triples, drops fixtures without a
// complete triple, sorts the survivors by kickoff (stable, no secondary key)
// and assigns dense 1-based row numbers. Pure: inputs are never mutated.
func Assemble(fixtures []Fixture, oddsByFixture map[int64]OddsTriple, sectionID string, loc *time.Location) []Row {
	rows := make([]Row, 0, len(fixtures))
	for _, f := range fixtures {
		triple, ok := oddsByFixture[f.ID]
		if !ok || !triple.Complete() {
			continue
		}
		rows = append(rows, Row{
			FixtureID: f.ID,
			Kickoff:   f.Kickoff,
			DayLabel:  schedule.DayLabel(f.Kickoff, loc),
			Status:    f.Status,
			Elapsed:   f.Elapsed,
			HomeTeam:  f.HomeTeam,
			AwayTeam:  f.AwayTeam,
			League:    f.League,
			HomeGoals: f.HomeGoals,
			AwayGoals: f.AwayGoals,
			Odds:      triple,
			SectionID: sectionID,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Kickoff.Before(rows[j].Kickoff)
	})
	for i := range rows {
		rows[i].RowNumber = i + 1
	}
	return rows
}
