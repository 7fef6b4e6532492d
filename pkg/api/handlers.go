package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/verityhq/verdict/pkg/cache"
	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/engine"
	"github.com/verityhq/verdict/pkg/results"
)

const maxRequestBody = 1 << 20 // 1MB

type verifyResponse struct {
	*contracts.VerificationResult
	Receipt string `json:"receipt,omitempty"`
}

type cancelResponse struct {
	VerificationID string `json:"verification_id"`
	Cancelled      bool   `json:"cancelled"`
}

type modulesResponse struct {
	Modules             []string `json:"modules"`
	ActiveVerifications int      `json:"active_verifications"`
}

type recentResponse struct {
	Results []*contracts.VerificationResult `json:"results"`
	Count   int                             `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req contracts.VerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	result, err := s.engine.Verify(r.Context(), req)
	if err != nil {
		s.writeVerifyError(w, err)
		return
	}

	resp := verifyResponse{VerificationResult: result}
	if s.receipts != nil {
		resp.Receipt = s.issueReceipt(r, req, result)
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeVerifyError maps the engine's error taxonomy onto HTTP statuses.
func (s *Server) writeVerifyError(w http.ResponseWriter, err error) {
	var invalid *engine.InvalidRequestError
	switch {
	case errors.As(err, &invalid):
		WriteBadRequest(w, invalid.Reason)
	case errors.Is(err, engine.ErrResourceExhausted):
		WriteServiceUnavailable(w, 5, "Verification capacity exhausted. Retry after the specified interval.")
	case errors.Is(err, engine.ErrCancelled):
		WriteConflict(w, "Verification was cancelled before completion")
	default:
		WriteInternal(w, err)
	}
}

// issueReceipt signs a receipt for the result. Receipt failures degrade to
// a response without one; they never fail the verification itself.
func (s *Server) issueReceipt(r *http.Request, req contracts.VerificationRequest, result *contracts.VerificationResult) string {
	fp, err := cache.Fingerprint(req.Content, req.Domain, req.Options)
	if err != nil {
		s.logger.WarnContext(r.Context(), "receipt fingerprint failed",
			"verification_id", result.VerificationID, "error", err)
		fp = ""
	}

	token, err := s.receipts.Issue(result, req.Domain, fp)
	if err != nil {
		s.logger.WarnContext(r.Context(), "receipt issuance failed",
			"verification_id", result.VerificationID, "error", err)
		return ""
	}
	return token
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.engine.GetVerificationStatus(id)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			WriteNotFound(w, "No active verification with that ID")
			return
		}
		WriteInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !s.engine.CancelVerification(id) {
		WriteNotFound(w, "No active verification with that ID")
		return
	}

	writeJSON(w, http.StatusAccepted, cancelResponse{VerificationID: id, Cancelled: true})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := s.results.GetResult(r.Context(), id)
	if err != nil {
		if errors.Is(err, results.ErrResultNotFound) {
			WriteNotFound(w, "No result for that verification ID")
			return
		}
		WriteInternal(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	listed := []*contracts.VerificationResult{}
	if s.recent != nil {
		var err error
		listed, err = s.recent.ListRecent(r.Context(), limit)
		if err != nil {
			WriteInternal(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, recentResponse{Results: listed, Count: len(listed)})
}

func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modulesResponse{
		Modules:             s.engine.RegisteredModules(),
		ActiveVerifications: s.engine.ActiveVerifications(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.results.ProcessingMetrics())
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.results.CacheStats(r.Context())
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCachePurge clears the whole cache, or one fingerprint when ?key=
// is given.
func (s *Server) handleCachePurge(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if err := s.results.InvalidateCache(r.Context(), key); err != nil {
		WriteInternal(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
