package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/fetchmark"
	"github.com/riskibarqy/matchday/internal/domain/forecast"
	"github.com/riskibarqy/matchday/internal/domain/schedule"
	"github.com/riskibarqy/matchday/internal/domain/score"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

// FixtureProvider is the upstream data source; implemented by the apifootball
// client and wired in by the application layer.
type FixtureProvider interface {
	FixturesForDates(ctx context.Context, dates []string, leagueIDs []int64) ([]score.Fixture, error)
	OddsForDates(ctx context.Context, dates []string, bookmakerID, betID int64) (map[int64]score.OddsTriple, error)
	LiveFixtures(ctx context.Context, leagueIDs []int64) ([]score.Fixture, error)
}

// JobPublisher schedules a follow-up pipeline run through the external job
// queue. Optional: a nil publisher disables self-scheduling.
type JobPublisher interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

const (
	RefreshStatusOK              = "ok"
	RefreshStatusSkippedCooldown = "skipped_cooldown"
)

type RefreshConfig struct {
	Schedule    schedule.Config
	LeagueIDs   []int64
	BookmakerID int64
	BetID       int64
	Cooldown    time.Duration
}

type RefreshResult struct {
	Status         string `json:"status"`
	SectionID      string `json:"sectionId"`
	SectionKind    string `json:"sectionKind"`
	FixtureCount   int    `json:"fixtureCount"`
	RowCount       int    `json:"rowCount"`
	Inserted       int    `json:"inserted"`
	Updated        int    `json:"updated"`
	Deleted        int    `json:"deleted"`
	HistoryWritten int    `json:"historyWritten"`
	DurationMs     int64  `json:"durationMs"`
}

type RefreshService struct {
	provider  FixtureProvider
	scores    score.Repository
	markers   fetchmark.Repository
	publisher JobPublisher
	cfg       RefreshConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewRefreshService(
	provider FixtureProvider,
	scores score.Repository,
	markers fetchmark.Repository,
	publisher JobPublisher,
	cfg RefreshConfig,
	logger *logging.Logger,
) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		provider:  provider,
		scores:    scores,
		markers:   markers,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// RunBaseRefresh executes one full pipeline pass: resolve the active section,
// fetch fixtures and odds for its dates, assemble the batch and reconcile it.
// The cooldown marker throttles repeated runs unless force is set.
func (s *RefreshService) RunBaseRefresh(ctx context.Context, force bool) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "RefreshService.RunBaseRefresh")
	defer span.End()

	start := s.now()
	section := schedule.Resolve(start, s.cfg.Schedule)
	result := RefreshResult{
		Status:      RefreshStatusOK,
		SectionID:   section.SectionID,
		SectionKind: string(section.Kind),
	}

	if !force && s.cfg.Cooldown > 0 {
		marker, found, err := s.markers.Get(ctx, fetchmark.KeyBaseRefresh)
		if err != nil {
			return RefreshResult{}, fmt.Errorf("read base refresh marker: %w", err)
		}
		if found && start.Sub(marker.LastFetched) < s.cfg.Cooldown {
			s.logger.InfoContext(ctx, "base refresh skipped by cooldown",
				"section_id", section.SectionID,
				"last_fetched", marker.LastFetched,
			)
			result.Status = RefreshStatusSkippedCooldown
			result.DurationMs = time.Since(start).Milliseconds()
			return result, nil
		}
	}

	var (
		fixtures    []score.Fixture
		fixturesErr error
		odds        map[int64]score.OddsTriple
		oddsErr     error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		fixtures, fixturesErr = s.provider.FixturesForDates(ctx, section.Dates, s.cfg.LeagueIDs)
	})
	wg.Go(func() {
		odds, oddsErr = s.provider.OddsForDates(ctx, section.Dates, s.cfg.BookmakerID, s.cfg.BetID)
	})
	wg.Wait()

	if fixturesErr != nil {
		return RefreshResult{}, fmt.Errorf("fetch fixtures for section %s: %w", section.SectionID, fixturesErr)
	}
	if oddsErr != nil {
		return RefreshResult{}, fmt.Errorf("fetch odds for section %s: %w", section.SectionID, oddsErr)
	}

	rows := score.Assemble(fixtures, odds, section.SectionID, s.cfg.Schedule.Location)
	candidates := s.historyCandidates(rows)

	outcome, err := s.scores.ReconcileSection(ctx, section.SectionID, rows, candidates, fetchmark.KeyBaseRefresh)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("reconcile section %s: %w", section.SectionID, err)
	}

	result.FixtureCount = len(fixtures)
	result.RowCount = len(rows)
	result.Inserted = outcome.Inserted
	result.Updated = outcome.Updated
	result.Deleted = outcome.Deleted
	result.HistoryWritten = outcome.HistoryWritten
	result.DurationMs = time.Since(start).Milliseconds()

	s.logger.InfoContext(ctx, "base refresh completed",
		"section_id", section.SectionID,
		"rows", result.RowCount,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"history_written", result.HistoryWritten,
	)

	s.scheduleNextRun(ctx, section)
	return result, nil
}

// RunLiveRefresh folds current in-play scores into already-stored rows. It
// never inserts unknown fixtures and never touches odds.
func (s *RefreshService) RunLiveRefresh(ctx context.Context) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "RefreshService.RunLiveRefresh")
	defer span.End()

	start := s.now()
	section := schedule.Resolve(start, s.cfg.Schedule)
	result := RefreshResult{
		Status:      RefreshStatusOK,
		SectionID:   section.SectionID,
		SectionKind: string(section.Kind),
	}

	live, err := s.provider.LiveFixtures(ctx, s.cfg.LeagueIDs)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("fetch live fixtures: %w", err)
	}
	result.FixtureCount = len(live)

	stored, err := s.scores.ListBySection(ctx, section.SectionID)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("list stored rows for section %s: %w", section.SectionID, err)
	}
	rowNumberByFixture := make(map[int64]int, len(stored))
	for _, row := range stored {
		rowNumberByFixture[row.FixtureID] = row.RowNumber
	}

	updates := make([]score.LiveScore, 0, len(live))
	candidates := make(map[int64]forecast.History, 4)
	for _, fx := range live {
		rowNumber, stored := rowNumberByFixture[fx.ID]
		if !stored {
			continue
		}
		updates = append(updates, score.LiveScore{
			FixtureID: fx.ID,
			Status:    fx.Status,
			Elapsed:   fx.Elapsed,
			HomeGoals: fx.HomeGoals,
			AwayGoals: fx.AwayGoals,
		})
		if score.IsFinishedStatus(fx.Status) {
			if history, ok := s.evaluateForHistory(fx.ID, fx.Kickoff, rowNumber, fx.HomeGoals, fx.AwayGoals); ok {
				candidates[fx.ID] = history
			}
		}
	}

	outcome, err := s.scores.ApplyLiveScores(ctx, section.SectionID, updates, candidates)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("apply live scores for section %s: %w", section.SectionID, err)
	}

	if err := s.markers.Touch(ctx, fetchmark.KeyLiveRefresh, start); err != nil {
		s.logger.WarnContext(ctx, "touch live refresh marker failed", "error", err)
	}

	result.RowCount = len(updates)
	result.Updated = outcome.Updated
	result.HistoryWritten = outcome.HistoryWritten
	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil
}

// historyCandidates prepares forecast rows for every incoming fixture that is
// already finished with a known score. The repository only writes the ones
// that actually transition during the pass.
func (s *RefreshService) historyCandidates(rows []score.Row) map[int64]forecast.History {
	candidates := make(map[int64]forecast.History, 4)
	for _, row := range rows {
		if !score.IsFinishedStatus(row.Status) {
			continue
		}
		if history, ok := s.evaluateForHistory(row.FixtureID, row.Kickoff, row.RowNumber, row.HomeGoals, row.AwayGoals); ok {
			candidates[row.FixtureID] = history
		}
	}
	return candidates
}

// evaluateForHistory keys the history row by the section the KICKOFF falls in,
// not the section being refreshed; only the 3-day weekend window is evaluated.
func (s *RefreshService) evaluateForHistory(fixtureID int64, kickoff time.Time, rowNumber int, homeGoals, awayGoals *int) (forecast.History, bool) {
	kickoffSection := schedule.Resolve(kickoff, s.cfg.Schedule)
	if kickoffSection.Kind != schedule.KindSatMon {
		return forecast.History{}, false
	}
	return forecast.Evaluate(fixtureID, kickoffSection.SectionID, rowNumber, homeGoals, awayGoals, s.now().UTC())
}

func (s *RefreshService) scheduleNextRun(ctx context.Context, section schedule.Section) {
	if s.publisher == nil || s.cfg.Cooldown <= 0 {
		return
	}

	dedupKey := fmt.Sprintf("refresh-base:%s:%d", section.SectionID, s.now().Unix()/int64(s.cfg.Cooldown.Seconds()))
	if err := s.publisher.Enqueue(ctx, "/v1/internal/jobs/refresh-base", nil, s.cfg.Cooldown, dedupKey); err != nil {
		s.logger.WarnContext(ctx, "enqueue next base refresh failed", "error", err)
	}
}
