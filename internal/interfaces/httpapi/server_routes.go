package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/scores", handler.ListCurrentScores)
	mux.HandleFunc("GET /v1/scores/section", handler.GetCurrentSection)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}/predictions", handler.GetFixturePredictions)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}/statistics", handler.GetFixtureStatistics)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}/lineups", handler.GetFixtureLineups)
	mux.HandleFunc("GET /v1/fixtures/{fixtureID}/events", handler.GetFixtureEvents)
	mux.HandleFunc("GET /v1/teams/{teamID}/statistics", handler.GetTeamStatistics)
	mux.HandleFunc("GET /v1/forecasts", handler.ListForecastHistory)
	mux.HandleFunc("POST /v1/forecasts", handler.RecordForecastObservation)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/refresh-base", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBaseRefreshJob)))
	mux.Handle("POST /v1/internal/jobs/refresh-live", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunLiveRefreshJob)))
	mux.Handle("POST /v1/internal/jobs/cleanup-history", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunHistoryCleanupJob)))
}
