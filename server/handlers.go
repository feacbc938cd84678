package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"teraplay/internal"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := internal.WithFields(map[string]interface{}{
		"request_id": RequestID(r.Context()),
	})

	var req internal.ResolutionRequest
	body := http.MaxBytesReader(w, r.Body, s.bodyLimit)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Rejected request body: %v", err)
		writeResult(w, internal.FailureResult(internal.NewInternalError(err)))
		return
	}

	desc, err := s.resolver.Resolve(r.Context(), req.URL)

	var result internal.ResolutionResult
	if err != nil {
		result = internal.FailureResult(err)
		logger = logger.WithField("status", result.StatusCode())
		if internal.IsKind(err, internal.ErrInput) {
			logger.Info("Rejected input in %v: %v", time.Since(start).Round(time.Millisecond), err)
		} else {
			logger.Warn("Resolve failed in %v: %v", time.Since(start).Round(time.Millisecond), err)
		}
	} else {
		result = internal.SuccessResult(desc)
		logger.Info("Resolved %s in %v", desc.Filename, time.Since(start).Round(time.Millisecond))
	}

	writeResult(w, result)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

func writeResult(w http.ResponseWriter, result internal.ResolutionResult) {
	writeJSON(w, result.StatusCode(), result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.LogError("Failed to write response: %v", err)
	}
}
