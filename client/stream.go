package client

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Event is one Server-Sent Event read from the activity stream.
type Event struct {
	Type string
	Data string
}

// StreamActivity connects to the activity stream and calls fn for every
// event until ctx is cancelled, the server closes the stream, or fn returns
// an error. An empty address streams every wallet. Cancellation is not an
// error.
func (c *Client) StreamActivity(ctx context.Context, address string, fn func(Event) error) error {
	u := c.baseURL + "/api/v1/stream/activity"
	if address != "" {
		u += "/" + url.PathEscape(address)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The shared client may carry a timeout; streams need none.
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to connect to SSE endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var current Event
	for scanner.Scan() {
		line := scanner.Text()

		// Empty line indicates end of event
		if line == "" {
			if current.Type != "" && current.Data != "" {
				if err := fn(current); err != nil {
					return err
				}
			}
			current = Event{}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			current.Type = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			current.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error reading SSE stream: %w", err)
	}

	return nil
}
