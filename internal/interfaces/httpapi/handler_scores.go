package httpapi

import "net/http"

func (h *Handler) ListCurrentScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCurrentScores")
	defer span.End()

	section, rows, err := h.scoreService.CurrentScores(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list current scores failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]scoreRowDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, scoreRowToDTO(row))
	}

	writeSuccess(ctx, w, http.StatusOK, scoresPageDTO{
		Section: sectionToDTO(section),
		Rows:    items,
	})
}

func (h *Handler) GetCurrentSection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentSection")
	defer span.End()

	section, err := h.scoreService.CurrentSection(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve current section failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sectionToDTO(section))
}
