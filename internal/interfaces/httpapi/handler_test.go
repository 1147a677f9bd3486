package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday/internal/domain/fetchmark"
	"github.com/riskibarqy/matchday/internal/domain/forecast"
	"github.com/riskibarqy/matchday/internal/domain/schedule"
	"github.com/riskibarqy/matchday/internal/domain/score"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const testJobToken = "job-secret"

type stubScoreRepo struct {
	rows []score.Row
}

func (s *stubScoreRepo) ListBySection(_ context.Context, _ string) ([]score.Row, error) {
	out := make([]score.Row, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *stubScoreRepo) ReconcileSection(_ context.Context, _ string, rows []score.Row, _ map[int64]forecast.History, _ string) (score.ReconcileOutcome, error) {
	return score.ReconcileOutcome{Inserted: len(rows)}, nil
}

func (s *stubScoreRepo) ApplyLiveScores(_ context.Context, _ string, updates []score.LiveScore, _ map[int64]forecast.History) (score.LiveOutcome, error) {
	return score.LiveOutcome{Updated: len(updates)}, nil
}

type stubForecastRepo struct {
	stored   []forecast.History
	upserted []forecast.History
	deleted  int64
}

func (s *stubForecastRepo) List(_ context.Context, _ int) ([]forecast.History, error) {
	return s.stored, nil
}

func (s *stubForecastRepo) ListBySection(_ context.Context, sectionID string, _ int) ([]forecast.History, error) {
	out := make([]forecast.History, 0, len(s.stored))
	for _, row := range s.stored {
		if row.WeekSectionID == sectionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubForecastRepo) Upsert(_ context.Context, rows []forecast.History) error {
	s.upserted = append(s.upserted, rows...)
	return nil
}

func (s *stubForecastRepo) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return s.deleted, nil
}

type stubMarkerRepo struct{}

func (stubMarkerRepo) Get(_ context.Context, _ string) (fetchmark.Marker, bool, error) {
	return fetchmark.Marker{}, false, nil
}

func (stubMarkerRepo) Touch(_ context.Context, _ string, _ time.Time) error {
	return nil
}

type stubFixtureProvider struct{}

func (stubFixtureProvider) FixturesForDates(_ context.Context, _ []string, _ []int64) ([]score.Fixture, error) {
	return nil, nil
}

func (stubFixtureProvider) OddsForDates(_ context.Context, _ []string, _, _ int64) (map[int64]score.OddsTriple, error) {
	return nil, nil
}

func (stubFixtureProvider) LiveFixtures(_ context.Context, _ []int64) ([]score.Fixture, error) {
	return nil, nil
}

type stubDetailProvider struct {
	payload json.RawMessage
}

func (s *stubDetailProvider) FixturePredictions(_ context.Context, _ int64) (json.RawMessage, error) {
	return s.payload, nil
}

func (s *stubDetailProvider) FixtureStatistics(_ context.Context, _ int64) (json.RawMessage, error) {
	return s.payload, nil
}

func (s *stubDetailProvider) FixtureLineups(_ context.Context, _ int64) (json.RawMessage, error) {
	return s.payload, nil
}

func (s *stubDetailProvider) FixtureEvents(_ context.Context, _ int64) (json.RawMessage, error) {
	return s.payload, nil
}

func (s *stubDetailProvider) TeamStatistics(_ context.Context, _, _ int64, _ int) (json.RawMessage, error) {
	return s.payload, nil
}

type routerFixture struct {
	router    http.Handler
	scores    *stubScoreRepo
	forecasts *stubForecastRepo
}

func newTestRouter(t *testing.T) *routerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduleCfg := schedule.Config{Location: time.UTC, CutoverHour: 10}

	scores := &stubScoreRepo{}
	forecasts := &stubForecastRepo{deleted: 3}

	refreshSvc := usecase.NewRefreshService(stubFixtureProvider{}, scores, stubMarkerRepo{}, nil, usecase.RefreshConfig{
		Schedule:    scheduleCfg,
		LeagueIDs:   []int64{286},
		BookmakerID: 6,
		BetID:       1,
	}, nil)
	scoreSvc := usecase.NewScoreService(scores, scheduleCfg)
	forecastSvc := usecase.NewForecastService(forecasts, nil)
	detailSvc := usecase.NewFixtureDetailService(&stubDetailProvider{payload: json.RawMessage(`{"response":[]}`)}, nil)

	handler := NewHandler(scoreSvc, refreshSvc, forecastSvc, detailSvc, 30, logger)
	router := NewRouter(handler, logger, nil, testJobToken)

	return &routerFixture{router: router, scores: scores, forecasts: forecasts}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	return body
}

func TestHandler_Healthz(t *testing.T) {
	fx := newTestRouter(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", data["status"])
	}
}

func TestHandler_ListCurrentScores(t *testing.T) {
	fx := newTestRouter(t)
	elapsed := 67
	home, away := 2, 1
	fx.scores.rows = []score.Row{
		{
			RowNumber: 1,
			FixtureID: 9001,
			Kickoff:   time.Date(2025, 1, 4, 15, 0, 0, 0, time.UTC),
			DayLabel:  "SAT",
			Status:    "2H",
			Elapsed:   &elapsed,
			HomeTeam:  score.Team{ID: 10, Name: "Home FC"},
			AwayTeam:  score.Team{ID: 20, Name: "Away FC"},
			League:    score.League{ID: 286, Name: "Super Liga", Season: 2024},
			HomeGoals: &home,
			AwayGoals: &away,
			Odds:      score.OddsTriple{Home: "1.85", Draw: "3.40", Away: "4.20"},
		},
	}

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scores", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)

	section, _ := data["section"].(map[string]any)
	sectionID, _ := section["sectionId"].(string)
	if sectionID == "" || !strings.Contains(sectionID, "-W") {
		t.Fatalf("expected section id in <year>-W<week>-<kind> form, got %q", sectionID)
	}

	rows, _ := data["rows"].([]any)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row, _ := rows[0].(map[string]any)
	if got, _ := row["fixtureId"].(float64); int64(got) != 9001 {
		t.Fatalf("expected fixtureId=9001, got %v", row["fixtureId"])
	}
	odds, _ := row["odds"].(map[string]any)
	if odds["home"] != "1.85" || odds["draw"] != "3.40" || odds["away"] != "4.20" {
		t.Fatalf("unexpected odds payload: %v", odds)
	}
}

func TestHandler_GetCurrentSection(t *testing.T) {
	fx := newTestRouter(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/scores/section", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	kind, _ := data["kind"].(string)
	if kind != string(schedule.KindSatMon) && kind != string(schedule.KindTueFri) {
		t.Fatalf("unexpected section kind %q", kind)
	}
	dates, _ := data["dates"].([]any)
	if len(dates) != 3 && len(dates) != 4 {
		t.Fatalf("expected 3 or 4 section dates, got %d", len(dates))
	}
}

func TestHandler_FixtureDetailRelay(t *testing.T) {
	fx := newTestRouter(t)

	for _, path := range []string{
		"/v1/fixtures/42/predictions",
		"/v1/fixtures/42/statistics",
		"/v1/fixtures/42/lineups",
		"/v1/fixtures/42/events",
	} {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, rec.Code)
		}
		body := decodeEnvelope(t, rec)
		data, _ := body["data"].(map[string]any)
		if _, ok := data["response"]; !ok {
			t.Fatalf("%s: expected relayed upstream payload, got %v", path, body["data"])
		}
	}
}

func TestHandler_FixtureDetail_InvalidID(t *testing.T) {
	fx := newTestRouter(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fixtures/abc/predictions", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	errorObj, _ := body["error"].(map[string]any)
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestHandler_GetTeamStatistics_RequiresQueryParams(t *testing.T) {
	fx := newTestRouter(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams/10/statistics", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without league_id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/teams/10/statistics?league_id=286&season=2024", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_RecordForecastObservation(t *testing.T) {
	fx := newTestRouter(t)

	payload := `{"fixtureId":9001,"weekSectionId":"2025-W1-SatMon","rowNumber":5,"homeGoals":2,"awayGoals":1}`
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/forecasts", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["forecast"] != forecast.LabelHomeOrAway {
		t.Fatalf("row 5 must carry %q, got %v", forecast.LabelHomeOrAway, data["forecast"])
	}
	if correct, _ := data["isCorrect"].(bool); !correct {
		t.Fatalf("2:1 satisfies 1/2, expected isCorrect=true")
	}
	if len(fx.forecasts.upserted) != 1 {
		t.Fatalf("expected 1 upserted history row, got %d", len(fx.forecasts.upserted))
	}
}

func TestHandler_RecordForecastObservation_RejectsUnknownRow(t *testing.T) {
	fx := newTestRouter(t)

	payload := `{"fixtureId":9001,"weekSectionId":"2025-W1-SatMon","rowNumber":99,"homeGoals":1,"awayGoals":0}`
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/forecasts", strings.NewReader(payload)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a row without forecast, got %d", rec.Code)
	}
}

func TestHandler_RecordForecastObservation_RejectsUnknownFields(t *testing.T) {
	fx := newTestRouter(t)

	payload := `{"fixtureId":9001,"weekSectionId":"2025-W1-SatMon","rowNumber":1,"homeGoals":1,"awayGoals":0,"bogus":true}`
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/forecasts", strings.NewReader(payload)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown field, got %d", rec.Code)
	}
}

func TestHandler_ListForecastHistory_FiltersBySection(t *testing.T) {
	fx := newTestRouter(t)
	now := time.Date(2025, 1, 6, 22, 0, 0, 0, time.UTC)
	fx.forecasts.stored = []forecast.History{
		{FixtureID: 1, WeekSectionID: "2025-W1-SatMon", Label: "1/X", CreatedAt: now},
		{FixtureID: 2, WeekSectionID: "2025-W2-SatMon", Label: "X/2", CreatedAt: now},
	}

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/forecasts?section=2025-W1-SatMon", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	items, _ := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 filtered row, got %d", len(items))
	}
	item, _ := items[0].(map[string]any)
	if got, _ := item["fixtureId"].(float64); int64(got) != 1 {
		t.Fatalf("expected fixtureId=1, got %v", item["fixtureId"])
	}
}

func TestInternalJobRoutes_RequireToken(t *testing.T) {
	fx := newTestRouter(t)

	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-base", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-base", nil)
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec = httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 with wrong token, got %d", rec.Code)
	}
}

func TestRunBaseRefreshJob_WithToken(t *testing.T) {
	fx := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-base", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["status"] != usecase.RefreshStatusOK {
		t.Fatalf("expected refresh status %q, got %v", usecase.RefreshStatusOK, data["status"])
	}
}

func TestRunLiveRefreshJob_WithToken(t *testing.T) {
	fx := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-live", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRunHistoryCleanupJob_DefaultsRetention(t *testing.T) {
	fx := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/cleanup-history", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["retentionDays"].(float64); int(got) != 30 {
		t.Fatalf("expected default retention of 30 days, got %v", data["retentionDays"])
	}
	if got, _ := data["deleted"].(float64); int64(got) != 3 {
		t.Fatalf("expected 3 deleted rows, got %v", data["deleted"])
	}
}

func TestInternalJobRoutes_MissingConfiguredToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(nil, nil, nil, nil, 30, logger)
	router := NewRouter(handler, logger, nil, "")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/refresh-base", nil)
	req.Header.Set("X-Internal-Job-Token", "anything")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 when no token is configured, got %d", rec.Code)
	}
}
