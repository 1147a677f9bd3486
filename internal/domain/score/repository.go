package score

import (
	"context"

	"github.com/riskibarqy/matchday/internal/domain/forecast"
)

// ReconcileOutcome reports what one reconciliation pass changed.
type ReconcileOutcome struct {
	Inserted       int
	Updated        int
	Deleted        int
	Finished       []int64
	HistoryWritten int
}

// LiveOutcome reports what one live-score pass changed.
type LiveOutcome struct {
	Updated        int
	Finished       []int64
	HistoryWritten int
}

// Repository persists assembled score rows.
//
// ReconcileSection runs in one transaction: upsert every row by fixture ID,
// delete stored rows absent from the batch, and for fixtures whose stored
// status was not finished but whose incoming status is, upsert the matching
// candidate history row. Candidates the pass does not transition are ignored.
// A non-empty markerKey stamps that fetch marker inside the same transaction
// so the cooldown window and the reconciled data commit together.
//
// ApplyLiveScores only mutates score/status/elapsed of already-stored rows;
// unknown fixture IDs are skipped. Transitions write history the same way.
type Repository interface {
	ListBySection(ctx context.Context, sectionID string) ([]Row, error)
	ReconcileSection(ctx context.Context, sectionID string, rows []Row, historyCandidates map[int64]forecast.History, markerKey string) (ReconcileOutcome, error)
	ApplyLiveScores(ctx context.Context, sectionID string, updates []LiveScore, historyCandidates map[int64]forecast.History) (LiveOutcome, error)
}
