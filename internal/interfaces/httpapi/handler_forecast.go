package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchday/internal/usecase"
)

func (h *Handler) ListForecastHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListForecastHistory")
	defer span.End()

	sectionID := strings.TrimSpace(r.URL.Query().Get("section"))
	limit, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))

	rows, err := h.forecastService.ListHistory(ctx, sectionID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list forecast history failed", "section_id", sectionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]forecastHistoryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, forecastHistoryToDTO(row))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RecordForecastObservation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordForecastObservation")
	defer span.End()

	var req usecase.RecordObservationInput
	if err := decodeJSONBody(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	history, err := h.forecastService.RecordObservation(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "record forecast observation failed",
			"fixture_id", req.FixtureID,
			"section_id", req.WeekSectionID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, forecastHistoryToDTO(history))
}
