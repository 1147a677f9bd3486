package httpapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchday/internal/domain/forecast"
	"github.com/riskibarqy/matchday/internal/domain/schedule"
	"github.com/riskibarqy/matchday/internal/domain/score"
	"github.com/riskibarqy/matchday/internal/usecase"
)

type Handler struct {
	scoreService    *usecase.ScoreService
	refreshService  *usecase.RefreshService
	forecastService *usecase.ForecastService
	detailService   *usecase.FixtureDetailService
	logger          *slog.Logger
	validator       *validator.Validate
	retentionDays   int
}

func NewHandler(
	scoreService *usecase.ScoreService,
	refreshService *usecase.RefreshService,
	forecastService *usecase.ForecastService,
	detailService *usecase.FixtureDetailService,
	retentionDays int,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		scoreService:    scoreService,
		refreshService:  refreshService,
		forecastService: forecastService,
		detailService:   detailService,
		logger:          logger,
		validator:       validator.New(),
		retentionDays:   retentionDays,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSONBody rejects unknown fields; an empty body yields the zero value so
// trigger endpoints can be called without a payload.
func decodeJSONBody(body io.Reader, out any) error {
	decoder := sonic.ConfigDefault.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type sectionDTO struct {
	SectionID string   `json:"sectionId"`
	Kind      string   `json:"kind"`
	StartsAt  string   `json:"startsAt"`
	EndsAt    string   `json:"endsAt"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Dates     []string `json:"dates"`
}

type scoresPageDTO struct {
	Section sectionDTO    `json:"section"`
	Rows    []scoreRowDTO `json:"rows"`
}

type teamDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Logo   string `json:"logo,omitempty"`
	Winner *bool  `json:"winner,omitempty"`
}

type leagueDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Flag    string `json:"flag,omitempty"`
	Season  int    `json:"season"`
	Round   string `json:"round,omitempty"`
}

type oddsDTO struct {
	Home string `json:"home"`
	Draw string `json:"draw"`
	Away string `json:"away"`
}

type scoreRowDTO struct {
	RowNumber   int       `json:"rowNumber"`
	FixtureID   int64     `json:"fixtureId"`
	Kickoff     string    `json:"kickoffAt"`
	DayLabel    string    `json:"dayLabel"`
	Status      string    `json:"status"`
	Elapsed     *int      `json:"elapsed,omitempty"`
	HomeTeam    teamDTO   `json:"homeTeam"`
	AwayTeam    teamDTO   `json:"awayTeam"`
	League      leagueDTO `json:"league"`
	HomeGoals   *int      `json:"homeGoals"`
	AwayGoals   *int      `json:"awayGoals"`
	Odds        oddsDTO   `json:"odds"`
	LastUpdated string    `json:"lastUpdatedAt"`
}

type forecastHistoryDTO struct {
	FixtureID     int64   `json:"fixtureId"`
	WeekSectionID string  `json:"weekSectionId"`
	Forecast      string  `json:"forecast"`
	ActualOutcome *string `json:"actualOutcome"`
	IsCorrect     *bool   `json:"isCorrect"`
	HomeGoals     *int    `json:"homeGoals"`
	AwayGoals     *int    `json:"awayGoals"`
	CreatedAt     string  `json:"createdAt"`
}

func sectionToDTO(v schedule.Section) sectionDTO {
	dates := append([]string(nil), v.Dates...)
	return sectionDTO{
		SectionID: v.SectionID,
		Kind:      string(v.Kind),
		StartsAt:  v.Start.Format(time.RFC3339),
		EndsAt:    v.End.Format(time.RFC3339),
		StartDate: v.StartDate(),
		EndDate:   v.EndDate(),
		Dates:     dates,
	}
}

func teamToDTO(v score.Team) teamDTO {
	return teamDTO{
		ID:     v.ID,
		Name:   v.Name,
		Logo:   v.Logo,
		Winner: v.Winner,
	}
}

func leagueToDTO(v score.League) leagueDTO {
	return leagueDTO{
		ID:      v.ID,
		Name:    v.Name,
		Country: v.Country,
		Logo:    v.Logo,
		Flag:    v.Flag,
		Season:  v.Season,
		Round:   v.Round,
	}
}

func scoreRowToDTO(v score.Row) scoreRowDTO {
	return scoreRowDTO{
		RowNumber: v.RowNumber,
		FixtureID: v.FixtureID,
		Kickoff:   v.Kickoff.UTC().Format(time.RFC3339),
		DayLabel:  v.DayLabel,
		Status:    v.Status,
		Elapsed:   v.Elapsed,
		HomeTeam:  teamToDTO(v.HomeTeam),
		AwayTeam:  teamToDTO(v.AwayTeam),
		League:    leagueToDTO(v.League),
		HomeGoals: v.HomeGoals,
		AwayGoals: v.AwayGoals,
		Odds: oddsDTO{
			Home: v.Odds.Home,
			Draw: v.Odds.Draw,
			Away: v.Odds.Away,
		},
		LastUpdated: v.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func forecastHistoryToDTO(v forecast.History) forecastHistoryDTO {
	return forecastHistoryDTO{
		FixtureID:     v.FixtureID,
		WeekSectionID: v.WeekSectionID,
		Forecast:      v.Label,
		ActualOutcome: v.ActualOutcome,
		IsCorrect:     v.IsCorrect,
		HomeGoals:     v.HomeGoals,
		AwayGoals:     v.AwayGoals,
		CreatedAt:     v.CreatedAt.UTC().Format(time.RFC3339),
	}
}
