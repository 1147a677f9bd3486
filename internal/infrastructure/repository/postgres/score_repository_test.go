package postgres

import (
	"sort"
	"strings"
	"testing"

	"github.com/riskibarqy/matchday/internal/domain/score"
)

func TestTransitionedToFinished(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous string
		existed  bool
		incoming string
		want     bool
	}{
		{"not started to full time", score.StatusNotStarted, true, score.StatusFullTime, true},
		{"in play to full time", "2H", true, score.StatusFullTime, true},
		{"not started to after extra time", score.StatusNotStarted, true, score.StatusAfterExtra, true},
		{"not started to penalties", score.StatusNotStarted, true, score.StatusPenalties, true},
		{"first seen already full time", "", false, score.StatusFullTime, false},
		{"first seen already after extra time", "", false, score.StatusAfterExtra, false},
		{"full time stays full time", score.StatusFullTime, true, score.StatusFullTime, false},
		{"after extra time to penalties", score.StatusAfterExtra, true, score.StatusPenalties, false},
		{"not started stays not started", score.StatusNotStarted, true, score.StatusNotStarted, false},
		{"full time back to postponed", score.StatusFullTime, true, score.StatusPostponed, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := transitionedToFinished(tc.previous, tc.existed, tc.incoming)
			if got != tc.want {
				t.Fatalf("transitionedToFinished(%q, %v, %q) = %v, want %v",
					tc.previous, tc.existed, tc.incoming, got, tc.want)
			}
		})
	}
}

func TestStaleFixtureIDs(t *testing.T) {
	t.Parallel()

	existing := map[int64]string{
		1: score.StatusNotStarted,
		2: score.StatusFullTime,
		3: "2H",
	}
	incoming := map[int64]struct{}{
		2: {},
		4: {},
	}

	stale := staleFixtureIDs(existing, incoming)

	ids := make([]int64, 0, len(stale))
	for _, v := range stale {
		id, ok := v.(int64)
		if !ok {
			t.Fatalf("stale entry %v is %T, want int64", v, v)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("stale fixture ids = %v, want [1 3]", ids)
	}
}

func TestStaleFixtureIDs_EmptySets(t *testing.T) {
	t.Parallel()

	if got := staleFixtureIDs(nil, map[int64]struct{}{1: {}}); len(got) != 0 {
		t.Fatalf("no stored rows must yield no deletions, got %v", got)
	}
	if got := staleFixtureIDs(map[int64]string{1: score.StatusNotStarted}, nil); len(got) != 1 {
		t.Fatalf("empty batch must mark every stored row stale, got %v", got)
	}
}

func TestScoreRowUpsert_RefreshesKickoffWithDayLabel(t *testing.T) {
	t.Parallel()

	// A rescheduled fixture changes kickoff and day label together; the
	// conflict update must refresh both or the pair drifts apart.
	for _, column := range []string{
		"kickoff_at = EXCLUDED.kickoff_at",
		"day_label = EXCLUDED.day_label",
		"status = EXCLUDED.status",
		"last_updated = EXCLUDED.last_updated",
	} {
		if !strings.Contains(scoreRowUpsertSuffix, column) {
			t.Fatalf("upsert conflict clause missing %q", column)
		}
	}
}
