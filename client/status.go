package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the notifier does not watch the wallet.
var ErrNotFound = errors.New("wallet not watched")

// WalletStatus is the notifier's view of one watched wallet.
type WalletStatus struct {
	Address        string     `json:"address"`
	Label          string     `json:"label,omitempty"`
	Cursor         int64      `json:"cursor"`
	LastPoll       *time.Time `json:"last_poll,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	Ticks          int64      `json:"ticks"`
	FetchErrors    int64      `json:"fetch_errors"`
	NewActivity    int64      `json:"new_activity"`
	Filtered       int64      `json:"filtered"`
	Notified       int64      `json:"notified"`
	DeliveryErrors int64      `json:"delivery_errors"`
}

// CursorTime returns the cursor as a time, or the zero time for cursor 0.
func (s *WalletStatus) CursorTime() time.Time {
	if s.Cursor == 0 {
		return time.Time{}
	}
	return time.Unix(s.Cursor, 0).UTC()
}

// Client is the HTTP client for the polywatch status API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new status API client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Health reports whether the server answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned unhealthy status: %d", resp.StatusCode)
	}
	return nil
}

// Get retrieves the status of a specific wallet.
func (c *Client) Get(ctx context.Context, address string) (*WalletStatus, error) {
	u := fmt.Sprintf("%s/api/v1/wallets/%s", c.baseURL, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var status WalletStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("fetched wallet status", "address", status.Address, "cursor", status.Cursor)
	return &status, nil
}

// List retrieves the status of every watched wallet.
func (c *Client) List(ctx context.Context) ([]*WalletStatus, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/wallets", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var response struct {
		Wallets []*WalletStatus `json:"wallets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Wallets, nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
