package httpapi

import "net/http"

type baseRefreshJobRequest struct {
	Force bool `json:"force"`
}

type historyCleanupJobRequest struct {
	RetentionDays int `json:"retentionDays" validate:"gte=0"`
}

func (h *Handler) RunBaseRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBaseRefreshJob")
	defer span.End()

	var req baseRefreshJobRequest
	if err := decodeJSONBody(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.refreshService.RunBaseRefresh(ctx, req.Force)
	if err != nil {
		h.logger.ErrorContext(ctx, "base refresh job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunLiveRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunLiveRefreshJob")
	defer span.End()

	result, err := h.refreshService.RunLiveRefresh(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "live refresh job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunHistoryCleanupJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunHistoryCleanupJob")
	defer span.End()

	var req historyCleanupJobRequest
	if err := decodeJSONBody(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	retention := req.RetentionDays
	if retention <= 0 {
		retention = h.retentionDays
	}

	result, err := h.forecastService.CleanupHistory(ctx, retention)
	if err != nil {
		h.logger.ErrorContext(ctx, "history cleanup job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
