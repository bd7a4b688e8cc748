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

// DefaultDataAPIURL is the public Polymarket data API.
const DefaultDataAPIURL = "https://data-api.polymarket.com"

// Client fetches wallet activity from the Polymarket data API.
type Client struct {
	baseURL    string
	limit      int
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a new data API client.
// limit is the page size requested per fetch. If httpClient is nil a client
// with a 30s timeout is used. If metrics is nil, no metrics are recorded.
func NewClient(baseURL string, limit int, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultDataAPIURL
	}
	if limit <= 0 {
		limit = 25
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		limit:      limit,
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

// FetchActivity returns the most recent activity for wallet, newest first.
// When since is positive it instead returns the oldest records after since,
// oldest first; callers must still compare timestamps themselves since the
// API window is best-effort.
// Every failure is returned as a *FetchError.
func (c *Client) FetchActivity(ctx context.Context, wallet string, since int64) ([]Activity, error) {
	params := url.Values{}
	params.Set("user", wallet)
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("sortBy", "TIMESTAMP")
	params.Set("sortDirection", "DESC")
	if since > 0 {
		// Oldest page after the cursor, so a burst larger than the limit is
		// drained over several ticks instead of skipped.
		params.Set("sortDirection", "ASC")
		params.Set("start", strconv.FormatInt(since+1, 10))
	}

	start := time.Now()
	activities, err := c.fetchActivity(ctx, wallet, params)
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordAPICall("activity", status, metrics.Since(start))

	if err != nil {
		c.logger.WarnContext(ctx, "failed to fetch activity",
			"wallet", wallet,
			"error", err,
		)
		return nil, err
	}

	c.logger.DebugContext(ctx, "fetched activity",
		"wallet", wallet,
		"since", since,
		"count", len(activities),
	)

	return activities, nil
}

func (c *Client) fetchActivity(ctx context.Context, wallet string, params url.Values) ([]Activity, error) {
	u := c.baseURL + "/activity?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Wallet: wallet, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Wallet: wallet, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Wallet: wallet, StatusCode: resp.StatusCode, Err: parseErrorResponse(resp)}
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &FetchError{Wallet: wallet, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	activities := make([]Activity, 0, len(raw))
	for _, item := range raw {
		var a Activity
		if err := json.Unmarshal(item, &a); err != nil {
			c.logger.WarnContext(ctx, "skipping malformed activity record",
				"wallet", wallet,
				"error", err,
			)
			continue
		}
		if a.Timestamp <= 0 {
			c.logger.WarnContext(ctx, "skipping activity record without timestamp",
				"wallet", wallet,
				"id", a.ID,
			)
			continue
		}
		activities = append(activities, a)
	}

	return activities, nil
}

// parseErrorResponse extracts the API error message from a non-200 response.
func parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		if len(body) == 0 {
			return errors.New(http.StatusText(resp.StatusCode))
		}
		return errors.New(string(body))
	}

	return errors.New(errResp.Error)
}
