package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/matchday/internal/domain/schedule"
	"github.com/riskibarqy/matchday/internal/domain/score"
)

type ScoreService struct {
	scores      score.Repository
	scheduleCfg schedule.Config
	now         func() time.Time
}

func NewScoreService(scores score.Repository, scheduleCfg schedule.Config) *ScoreService {
	return &ScoreService{
		scores:      scores,
		scheduleCfg: scheduleCfg,
		now:         time.Now,
	}
}

// CurrentSection resolves the display window the reference instant falls in.
func (s *ScoreService) CurrentSection(ctx context.Context) (schedule.Section, error) {
	_, span := startUsecaseSpan(ctx, "ScoreService.CurrentSection")
	defer span.End()

	return schedule.Resolve(s.now(), s.scheduleCfg), nil
}

// CurrentScores returns the cached rows for the active section together with
// the section metadata. An empty cache is a valid result, not an error.
func (s *ScoreService) CurrentScores(ctx context.Context) (schedule.Section, []score.Row, error) {
	ctx, span := startUsecaseSpan(ctx, "ScoreService.CurrentScores")
	defer span.End()

	section := schedule.Resolve(s.now(), s.scheduleCfg)
	rows, err := s.scores.ListBySection(ctx, section.SectionID)
	if err != nil {
		return schedule.Section{}, nil, fmt.Errorf("list scores for section %s: %w", section.SectionID, err)
	}
	return section, rows, nil
}
