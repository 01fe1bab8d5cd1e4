package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Prober is satisfied by *storage.BucketProber and allows tests to inject a
// mock.
type Prober interface {
	Probe(ctx context.Context) error
}

// HealthResponse is the JSON body returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Bucket string `json:"bucket"`
}

const probeTimeout = 5 * time.Second

// NewHealthHandler returns an http.HandlerFunc for GET /health.
// It probes the upload bucket and reports the result as JSON; a nil prober
// skips the check.
//
// Probe error details are logged server-side only; the response body always
// returns the generic string "unavailable".
func NewHealthHandler(prober Prober, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if prober == nil {
			writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Bucket: "skipped"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		if err := prober.Probe(ctx); err != nil {
			logger.Warn("health check: bucket probe failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "error", Bucket: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Bucket: "reachable"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
