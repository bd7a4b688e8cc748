package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestHealth_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", nil, nil)
	assert.NoError(t, client.Health(context.Background()))
}

func TestHealth_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGet_Success(t *testing.T) {
	lastPoll := time.Date(2024, 8, 16, 1, 41, 40, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/wallets/"+testWallet, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"address":         testWallet,
			"label":           "whale",
			"cursor":          1723772500,
			"last_poll":       lastPoll,
			"ticks":           12,
			"notified":        3,
			"delivery_errors": 1,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	status, err := client.Get(context.Background(), testWallet)
	require.NoError(t, err)

	assert.Equal(t, testWallet, status.Address)
	assert.Equal(t, "whale", status.Label)
	assert.Equal(t, int64(1723772500), status.Cursor)
	assert.Equal(t, int64(12), status.Ticks)
	assert.Equal(t, int64(3), status.Notified)
	assert.Equal(t, int64(1), status.DeliveryErrors)
	require.NotNil(t, status.LastPoll)
	assert.True(t, lastPoll.Equal(*status.LastPoll))
	assert.Equal(t, time.Unix(1723772500, 0).UTC(), status.CursorTime())
}

func TestGet_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "wallet not watched"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.Get(context.Background(), testWallet)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid address"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}

func TestList_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/wallets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":2,"wallets":[{"address":"0xa","cursor":5},{"address":"0xb","cursor":0,"last_error":"timeout"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	wallets, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "0xa", wallets[0].Address)
	assert.Equal(t, int64(5), wallets[0].Cursor)
	assert.Equal(t, "timeout", wallets[1].LastError)
	assert.True(t, wallets[1].CursorTime().IsZero())
}

func TestList_ServerErrorPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500: boom")
}
