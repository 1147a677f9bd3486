package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/forecast"
	"github.com/riskibarqy/matchday/internal/platform/logging"
)

const defaultHistoryLimit = 200

type ForecastService struct {
	history forecast.Repository
	logger  *logging.Logger
	now     func() time.Time
}

func NewForecastService(history forecast.Repository, logger *logging.Logger) *ForecastService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ForecastService{
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *ForecastService) ListHistory(ctx context.Context, sectionID string, limit int) ([]forecast.History, error) {
	ctx, span := startUsecaseSpan(ctx, "ForecastService.ListHistory")
	defer span.End()

	if limit <= 0 || limit > 1000 {
		limit = defaultHistoryLimit
	}

	sectionID = strings.TrimSpace(sectionID)
	if sectionID == "" {
		return s.history.List(ctx, limit)
	}
	return s.history.ListBySection(ctx, sectionID, limit)
}

// RecordObservationInput is a manually submitted forecast outcome; the label
// is derived from the row number, never taken from the caller.
type RecordObservationInput struct {
	FixtureID     int64  `json:"fixtureId" validate:"required,gt=0"`
	WeekSectionID string `json:"weekSectionId" validate:"required"`
	RowNumber     int    `json:"rowNumber" validate:"required,gt=0"`
	HomeGoals     int    `json:"homeGoals" validate:"gte=0"`
	AwayGoals     int    `json:"awayGoals" validate:"gte=0"`
}

func (s *ForecastService) RecordObservation(ctx context.Context, input RecordObservationInput) (forecast.History, error) {
	ctx, span := startUsecaseSpan(ctx, "ForecastService.RecordObservation")
	defer span.End()

	input.WeekSectionID = strings.TrimSpace(input.WeekSectionID)
	if input.FixtureID <= 0 {
		return forecast.History{}, fmt.Errorf("%w: fixture id must be greater than zero", ErrInvalidInput)
	}
	if input.WeekSectionID == "" {
		return forecast.History{}, fmt.Errorf("%w: week section id is required", ErrInvalidInput)
	}
	if input.HomeGoals < 0 || input.AwayGoals < 0 {
		return forecast.History{}, fmt.Errorf("%w: goals cannot be negative", ErrInvalidInput)
	}

	home := input.HomeGoals
	away := input.AwayGoals
	history, ok := forecast.Evaluate(input.FixtureID, input.WeekSectionID, input.RowNumber, &home, &away, s.now().UTC())
	if !ok {
		return forecast.History{}, fmt.Errorf("%w: row number %d carries no forecast", ErrInvalidInput, input.RowNumber)
	}

	if err := s.history.Upsert(ctx, []forecast.History{history}); err != nil {
		return forecast.History{}, fmt.Errorf("record forecast observation: %w", err)
	}
	return history, nil
}

type CleanupResult struct {
	Deleted       int64     `json:"deleted"`
	Cutoff        time.Time `json:"cutoff"`
	RetentionDays int       `json:"retentionDays"`
}

// CleanupHistory prunes forecast rows older than the retention window.
func (s *ForecastService) CleanupHistory(ctx context.Context, retentionDays int) (CleanupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ForecastService.CleanupHistory")
	defer span.End()

	if retentionDays <= 0 {
		return CleanupResult{}, fmt.Errorf("%w: retention days must be greater than zero", ErrInvalidInput)
	}

	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("cleanup forecast history: %w", err)
	}

	s.logger.InfoContext(ctx, "forecast history cleanup completed", "deleted", deleted, "cutoff", cutoff)
	return CleanupResult{Deleted: deleted, Cutoff: cutoff, RetentionDays: retentionDays}, nil
}
