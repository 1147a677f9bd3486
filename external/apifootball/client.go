package apifootball

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchday/internal/domain/score"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/platform/resilience"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const (
	defaultBaseURL     = "https://v3.football.api-sports.io"
	defaultWorkerCount = 4
	maxResponseBytes   = 6 << 20
)

var errAPIFootballTransient = crerr.New("apifootball transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int
	Workers        int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	workers        int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkerCount
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		workers:        workers,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FixturesByDate returns every fixture on one calendar day, filtered to the
// configured leagues, following continuation pages until the reported total is
// exhausted. A failed page is logged and skipped.
func (c *Client) FixturesByDate(ctx context.Context, date string, leagueIDs []int64) ([]score.Fixture, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, fmt.Errorf("date is required")
	}

	items, err := c.fetchPaged(ctx, "/fixtures", map[string]string{"date": date})
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures date=%s: %w", date, err)
	}

	allowed := leagueIDSet(leagueIDs)
	out := make([]score.Fixture, 0, len(items))
	for _, raw := range items {
		var item fixtureItem
		if err := sonic.Unmarshal(raw, &item); err != nil {
			c.logger.WarnContext(ctx, "skip malformed fixture payload", "date", date, "error", err)
			continue
		}
		fx, ok := mapFixture(item)
		if !ok {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[fx.League.ID]; !ok {
				continue
			}
		}
		out = append(out, fx)
	}
	return out, nil
}

// FixturesForDates fans the per-date fetches out over a worker pool and merges
// the results. A failed date contributes nothing; only a fully failed batch
// returns an error.
func (c *Client) FixturesForDates(ctx context.Context, dates []string, leagueIDs []int64) ([]score.Fixture, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(minInt(c.workers, len(dates)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	merged := make([]score.Fixture, 0, 32)
	failures := 0

	var workers sync.WaitGroup
	for _, date := range dates {
		date := date
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			fixtures, fetchErr := c.FixturesByDate(ctx, date, leagueIDs)
			mu.Lock()
			defer mu.Unlock()
			if fetchErr != nil {
				failures++
				c.logger.WarnContext(ctx, "fetch fixtures for date failed, continuing", "date", date, "error", fetchErr)
				return
			}
			merged = append(merged, fixtures...)
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit fixture fetch to worker pool: %w", err)
		}
	}
	workers.Wait()

	if failures == len(dates) {
		return nil, fmt.Errorf("%w: all %d fixture date fetches failed", usecase.ErrDependencyUnavailable, len(dates))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Kickoff.Before(merged[j].Kickoff)
	})
	return merged, nil
}

// OddsForDates collects the three-way match-winner triples for the designated
// bookmaker and bet market across the given dates. Fixtures with an incomplete
// triple are omitted; a failed date or page is logged and skipped.
func (c *Client) OddsForDates(ctx context.Context, dates []string, bookmakerID, betID int64) (map[int64]score.OddsTriple, error) {
	if len(dates) == 0 {
		return map[int64]score.OddsTriple{}, nil
	}

	pool, err := ants.NewPool(minInt(c.workers, len(dates)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	byFixture := make(map[int64]score.OddsTriple, 64)
	failures := 0

	var workers sync.WaitGroup
	for _, date := range dates {
		date := date
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			items, fetchErr := c.fetchPaged(ctx, "/odds", map[string]string{
				"date":      strings.TrimSpace(date),
				"bookmaker": strconv.FormatInt(bookmakerID, 10),
				"bet":       strconv.FormatInt(betID, 10),
			})

			mu.Lock()
			defer mu.Unlock()
			if fetchErr != nil {
				failures++
				c.logger.WarnContext(ctx, "fetch odds for date failed, continuing", "date", date, "error", fetchErr)
				return
			}
			for _, raw := range items {
				var item oddsItem
				if err := sonic.Unmarshal(raw, &item); err != nil {
					c.logger.WarnContext(ctx, "skip malformed odds payload", "date", date, "error", err)
					continue
				}
				fixtureID, triple, ok := mapOdds(item, bookmakerID, betID)
				if !ok {
					continue
				}
				byFixture[fixtureID] = triple
			}
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit odds fetch to worker pool: %w", err)
		}
	}
	workers.Wait()

	if failures == len(dates) {
		return nil, fmt.Errorf("%w: all %d odds date fetches failed", usecase.ErrDependencyUnavailable, len(dates))
	}
	return byFixture, nil
}

// LiveFixtures returns all currently in-play fixtures for the configured
// leagues.
func (c *Client) LiveFixtures(ctx context.Context, leagueIDs []int64) ([]score.Fixture, error) {
	items, err := c.fetchPaged(ctx, "/fixtures", map[string]string{"live": "all"})
	if err != nil {
		return nil, fmt.Errorf("fetch live fixtures: %w", err)
	}

	allowed := leagueIDSet(leagueIDs)
	out := make([]score.Fixture, 0, len(items))
	for _, raw := range items {
		var item fixtureItem
		if err := sonic.Unmarshal(raw, &item); err != nil {
			c.logger.WarnContext(ctx, "skip malformed live fixture payload", "error", err)
			continue
		}
		fx, ok := mapFixture(item)
		if !ok {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[fx.League.ID]; !ok {
				continue
			}
		}
		out = append(out, fx)
	}
	return out, nil
}

// Pass-through detail lookups. Each returns the upstream response array as
// raw JSON for the HTTP layer to relay unchanged.

func (c *Client) FixturePredictions(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return c.passthrough(ctx, "/predictions", map[string]string{"fixture": strconv.FormatInt(fixtureID, 10)})
}

func (c *Client) FixtureStatistics(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return c.passthrough(ctx, "/fixtures/statistics", map[string]string{"fixture": strconv.FormatInt(fixtureID, 10)})
}

func (c *Client) FixtureLineups(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return c.passthrough(ctx, "/fixtures/lineups", map[string]string{"fixture": strconv.FormatInt(fixtureID, 10)})
}

func (c *Client) FixtureEvents(ctx context.Context, fixtureID int64) (json.RawMessage, error) {
	return c.passthrough(ctx, "/fixtures/events", map[string]string{"fixture": strconv.FormatInt(fixtureID, 10)})
}

func (c *Client) TeamStatistics(ctx context.Context, teamID, leagueID int64, season int) (json.RawMessage, error) {
	return c.passthrough(ctx, "/teams/statistics", map[string]string{
		"team":   strconv.FormatInt(teamID, 10),
		"league": strconv.FormatInt(leagueID, 10),
		"season": strconv.Itoa(season),
	})
}

func (c *Client) passthrough(ctx context.Context, path string, query map[string]string) (json.RawMessage, error) {
	var env envelope
	if err := c.doJSON(ctx, path, query, &env); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if len(env.Response) == 0 {
		return json.RawMessage("[]"), nil
	}
	return env.Response, nil
}

// fetchPaged follows continuation pages until paging.total is exhausted and
// concatenates the response items. A failed continuation page is logged and
// skipped; only a failed first page aborts, since without it the page count is
// unknown.
func (c *Client) fetchPaged(ctx context.Context, path string, query map[string]string) ([]json.RawMessage, error) {
	first, err := c.fetchPage(ctx, path, query, 1)
	if err != nil {
		return nil, err
	}

	items := make([]json.RawMessage, 0, len(first.items))
	items = append(items, first.items...)

	for page := 2; page <= first.totalPages; page++ {
		result, err := c.fetchPage(ctx, path, query, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.WarnContext(ctx, "fetch continuation page failed, skipping", "path", path, "page", page, "error", err)
			continue
		}
		items = append(items, result.items...)
	}
	return items, nil
}

type pageResult struct {
	items      []json.RawMessage
	totalPages int
}

func (c *Client) fetchPage(ctx context.Context, path string, query map[string]string, page int) (pageResult, error) {
	pageQuery := make(map[string]string, len(query)+1)
	for key, value := range query {
		pageQuery[key] = value
	}
	if page > 1 {
		pageQuery["page"] = strconv.Itoa(page)
	}

	var env envelope
	if err := c.doJSON(ctx, path, pageQuery, &env); err != nil {
		return pageResult{}, err
	}

	var items []json.RawMessage
	if len(env.Response) > 0 {
		if err := sonic.Unmarshal(env.Response, &items); err != nil {
			return pageResult{}, fmt.Errorf("decode response items: %w", err)
		}
	}
	return pageResult{items: items, totalPages: env.Paging.Total}, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "apifootball circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: football data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isAPIFootballCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}

	if env, ok := target.(*envelope); ok {
		if message := env.errorMessage(); message != "" {
			return fmt.Errorf("provider rejected request: %s", sanitizeSensitiveText(message, c.apiKey))
		}
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("x-apisports-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errAPIFootballTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errAPIFootballTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errAPIFootballTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "apifootball request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" || apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, apiKey, "REDACTED")
}

func isAPIFootballCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errAPIFootballTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func leagueIDSet(leagueIDs []int64) map[int64]struct{} {
	if len(leagueIDs) == 0 {
		return nil
	}
	set := make(map[int64]struct{}, len(leagueIDs))
	for _, id := range leagueIDs {
		set[id] = struct{}{}
	}
	return set
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}

func minInt(left, right int) int {
	if left < right {
		return left
	}
	return right
}
