package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCommand_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	t.Setenv("SERVER_URL", server.URL)

	out, err := runApp(t, "server", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is healthy")
}

func TestHealthCommand_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	t.Setenv("SERVER_URL", server.URL)

	_, err := runApp(t, "server", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhealthy status")
}

func TestHealthCommand_MissingServerURL(t *testing.T) {
	_, err := runApp(t, "--server-url", "", "server", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server-url is required")
}

func TestVersionCommand(t *testing.T) {
	version = "1.0.0"
	commit = "abc123"
	date = "2025-10-10"

	out, err := runApp(t, "server", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: 1.0.0")
	assert.Contains(t, out, "Commit:  abc123")
}
