package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamActivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stream/activity/"+testWallet, r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "event: connected\ndata: {\"wallet\":%q}\n\n", testWallet)
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: activity\ndata: {\"event_id\":\"1\"}\n\n")
		fmt.Fprint(w, "event: activity\ndata: {\"event_id\":\"2\"}\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)

	var events []Event
	err := client.StreamActivity(context.Background(), testWallet, func(e Event) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "connected", events[0].Type)
	assert.Equal(t, "activity", events[1].Type)
	assert.Equal(t, `{"event_id":"2"}`, events[2].Data)
}

func TestStreamActivity_AllWallets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stream/activity", r.URL.Path)
		fmt.Fprint(w, "event: activity\ndata: {}\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	stop := errors.New("stop")
	err := client.StreamActivity(context.Background(), "", func(e Event) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestStreamActivity_Disabled(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	err := client.StreamActivity(context.Background(), "", func(Event) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
