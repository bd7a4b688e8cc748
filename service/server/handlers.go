package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/polywatch/service/watcher"
	"github.com/ethereum/go-ethereum/common"
)

// handleHealth returns a liveness probe.
// GET /health
func handleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// handleListWallets returns the status of every watched wallet.
// GET /api/v1/wallets
func handleListWallets(status StatusReader, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallets := status.List()

		logger.DebugContext(r.Context(), "listed wallets", "count", len(wallets))

		writeJSON(w, map[string]interface{}{
			"wallets": wallets,
			"count":   len(wallets),
		}, http.StatusOK)
	})
}

// handleGetWallet returns one wallet's status.
// GET /api/v1/wallets/{address}
func handleGetWallet(status StatusReader, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address, err := normalizeAddress(r.PathValue("address"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		wallet, ok := status.Get(address)
		if !ok {
			logger.DebugContext(r.Context(), "wallet not watched", "address", address)
			writeError(w, "wallet not watched", http.StatusNotFound)
			return
		}

		writeJSON(w, wallet, http.StatusOK)
	})
}

// normalizeAddress validates a wallet address and lower-cases it to match
// the configured form.
func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errorf("address is required")
	}
	if !common.IsHexAddress(address) {
		return "", errorf("invalid address: must be a 0x-prefixed 20-byte hex address")
	}
	return strings.ToLower(address), nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// errorf is a helper to format error strings.
func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

var _ StatusReader = (*watcher.Registry)(nil)
