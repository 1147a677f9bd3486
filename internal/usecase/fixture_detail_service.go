package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/riskibarqy/matchday/internal/platform/cache"
)

// DetailProvider serves the pass-through endpoints relayed straight from the
// upstream provider.
type DetailProvider interface {
	FixturePredictions(ctx context.Context, fixtureID int64) (json.RawMessage, error)
	FixtureStatistics(ctx context.Context, fixtureID int64) (json.RawMessage, error)
	FixtureLineups(ctx context.Context, fixtureID int64) (json.RawMessage, error)
	FixtureEvents(ctx context.Context, fixtureID int64) (json.RawMessage, error)
	TeamStatistics(ctx context.Context, teamID, leagueID int64, season int) (json.RawMessage, error)
}

// FixtureDetailService relays per-fixture detail with a short-TTL cache in
// front so modal polling does not hammer the upstream quota.
type FixtureDetailService struct {
	provider DetailProvider
	store    *cache.Store
}

func NewFixtureDetailService(provider DetailProvider, store *cache.Store) *FixtureDetailService {
	return &FixtureDetailService{provider: provider, store: store}
}

func (s *FixtureDetailService) Predictions(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return s.fixtureDetail(ctx, "predictions", fixtureID, s.provider.FixturePredictions)
}

func (s *FixtureDetailService) Statistics(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return s.fixtureDetail(ctx, "statistics", fixtureID, s.provider.FixtureStatistics)
}

func (s *FixtureDetailService) Lineups(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return s.fixtureDetail(ctx, "lineups", fixtureID, s.provider.FixtureLineups)
}

func (s *FixtureDetailService) Events(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return s.fixtureDetail(ctx, "events", fixtureID, s.provider.FixtureEvents)
}

func (s *FixtureDetailService) TeamStatistics(ctx context.Context, teamID, leagueID int64, season int) (json.RawMessage, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureDetailService.TeamStatistics")
	defer span.End()

	if teamID <= 0 {
		return nil, fmt.Errorf("%w: team id must be greater than zero", ErrInvalidInput)
	}
	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}

	key := "team-statistics:" + strconv.FormatInt(teamID, 10) + ":" + strconv.FormatInt(leagueID, 10) + ":" + strconv.Itoa(season)
	return s.load(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		return s.provider.TeamStatistics(ctx, teamID, leagueID, season)
	})
}

func (s *FixtureDetailService) fixtureDetail(
	ctx context.Context,
	kind string,
	fixtureID int64,
	fetch func(context.Context, int64) (json.RawMessage, error),
) (json.RawMessage, error) {
	ctx, span := startUsecaseSpan(ctx, "FixtureDetailService."+kind)
	defer span.End()

	if fixtureID <= 0 {
		return nil, fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}

	key := "fixture-" + kind + ":" + strconv.FormatInt(fixtureID, 10)
	return s.load(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		return fetch(ctx, fixtureID)
	})
}

func (s *FixtureDetailService) load(ctx context.Context, key string, loader func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if s.store == nil {
		return loader(ctx)
	}

	value, err := s.store.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if err != nil {
		return nil, err
	}

	payload, ok := value.(json.RawMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected cached payload type %T", value)
	}
	return payload, nil
}
