package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchday/internal/usecase"
)

func (h *Handler) GetFixturePredictions(w http.ResponseWriter, r *http.Request) {
	h.relayFixtureDetail(w, r, "httpapi.Handler.GetFixturePredictions", h.detailService.Predictions)
}

func (h *Handler) GetFixtureStatistics(w http.ResponseWriter, r *http.Request) {
	h.relayFixtureDetail(w, r, "httpapi.Handler.GetFixtureStatistics", h.detailService.Statistics)
}

func (h *Handler) GetFixtureLineups(w http.ResponseWriter, r *http.Request) {
	h.relayFixtureDetail(w, r, "httpapi.Handler.GetFixtureLineups", h.detailService.Lineups)
}

func (h *Handler) GetFixtureEvents(w http.ResponseWriter, r *http.Request) {
	h.relayFixtureDetail(w, r, "httpapi.Handler.GetFixtureEvents", h.detailService.Events)
}

func (h *Handler) GetTeamStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamStatistics")
	defer span.End()

	teamID, err := parsePathID(r, "teamID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	leagueID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("league_id")), 10, 64)
	if err != nil || leagueID <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: league_id query parameter is required", usecase.ErrInvalidInput))
		return
	}
	season, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("season")))
	if err != nil || season <= 0 {
		writeError(ctx, w, fmt.Errorf("%w: season query parameter is required", usecase.ErrInvalidInput))
		return
	}

	payload, err := h.detailService.TeamStatistics(ctx, teamID, leagueID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "team statistics relay failed", "team_id", teamID, "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func (h *Handler) relayFixtureDetail(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	fetch func(context.Context, int64) (json.RawMessage, error),
) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	fixtureID, err := parsePathID(r, "fixtureID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	payload, err := fetch(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "fixture detail relay failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, payload)
}

func parsePathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, name)
	}
	return id, nil
}
