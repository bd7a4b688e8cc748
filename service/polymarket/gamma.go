package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brojonat/polywatch/service/metrics"
)

// DefaultGammaAPIURL is the public Polymarket gamma (market metadata) API.
const DefaultGammaAPIURL = "https://gamma-api.polymarket.com"

// ErrMarketNotFound is returned when a condition id matches no market.
var ErrMarketNotFound = errors.New("market not found")

// GammaClient looks up market metadata. It is used by operators to discover
// the condition ids that the activity filter accepts.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewGammaClient creates a new gamma API client.
func NewGammaClient(baseURL string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &GammaClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

// MarketByConditionID returns the market with the given condition id.
// The endpoint answers with either a list or a single object.
func (g *GammaClient) MarketByConditionID(ctx context.Context, conditionID string) (*Market, error) {
	params := url.Values{}
	params.Set("condition_ids", conditionID)

	body, err := g.get(ctx, "markets_by_condition", params)
	if err != nil {
		return nil, err
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err == nil {
		if len(markets) == 0 {
			return nil, ErrMarketNotFound
		}
		return &markets[0], nil
	}

	var market Market
	if err := json.Unmarshal(body, &market); err != nil {
		return nil, fmt.Errorf("failed to decode market: %w", err)
	}
	if market.ConditionID == "" && market.ID == "" {
		return nil, ErrMarketNotFound
	}
	return &market, nil
}

// MarketsByTags returns open markets for each tag id, up to limit per tag.
// A failing tag is logged and skipped so one bad tag does not hide the rest.
func (g *GammaClient) MarketsByTags(ctx context.Context, tagIDs []string, limit int) ([]Market, error) {
	var all []Market
	var lastErr error
	failed := 0

	for _, tagID := range tagIDs {
		params := url.Values{}
		params.Set("tag_id", tagID)
		params.Set("closed", "false")
		params.Set("limit", strconv.Itoa(limit))

		body, err := g.get(ctx, "markets_by_tag", params)
		if err != nil {
			g.logger.WarnContext(ctx, "failed to fetch markets for tag", "tag_id", tagID, "error", err)
			lastErr = err
			failed++
			continue
		}

		var markets []Market
		if err := json.Unmarshal(body, &markets); err != nil {
			g.logger.WarnContext(ctx, "failed to decode markets for tag", "tag_id", tagID, "error", err)
			lastErr = err
			failed++
			continue
		}

		for i := range markets {
			markets[i].TagID = tagID
		}
		all = append(all, markets...)

		g.logger.DebugContext(ctx, "fetched markets for tag", "tag_id", tagID, "count", len(markets))
	}

	if failed > 0 && failed == len(tagIDs) {
		return nil, fmt.Errorf("all tag lookups failed: %w", lastErr)
	}

	return all, nil
}

func (g *GammaClient) get(ctx context.Context, method string, params url.Values) ([]byte, error) {
	start := time.Now()
	body, err := g.doGet(ctx, params)
	status := "success"
	if err != nil {
		status = "error"
	}
	g.metrics.RecordAPICall(method, status, metrics.Since(start))
	return body, err
}

func (g *GammaClient) doGet(ctx context.Context, params url.Values) ([]byte, error) {
	u := g.baseURL + "/markets?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %w", resp.StatusCode, parseErrorResponse(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
