package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest             = "bad_request"
	CodeValidationFailed       = "validation_failed"
	CodeUnknownFilterKey       = "unknown_filter_key"
	CodeSourceFetchFailed      = "source_fetch_failed"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeProviderNotConfigured  = "provider_not_configured"
	CodeNotFound               = "not_found"
	CodeMethodNotAllowed       = "method_not_allowed"
	CodeInternalError          = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMapping binds a sentinel to its HTTP status. Order matters: first match wins.
type errorMapping struct {
	sentinel error
	status   int
	code     string
	// expose passes err.Error() to the client instead of the sentinel text.
	expose bool
}

var errorMappings = []errorMapping{
	{domain.ErrUnknownFilterKey, http.StatusBadRequest, CodeUnknownFilterKey, true},
	{domain.ErrInvalidArgument, http.StatusBadRequest, CodeValidationFailed, true},
	// a provider returning the wrong vector size is an upstream fault, not a bad request
	{domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeEmbeddingProviderError, false},
	{domain.ErrDimensionMismatch, http.StatusBadRequest, CodeValidationFailed, true},
	{domain.ErrSourceFetch, http.StatusUnprocessableEntity, CodeSourceFetchFailed, true},
	{domain.ErrProviderNotConfigured, http.StatusInternalServerError, CodeProviderNotConfigured, false},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		msg := m.sentinel.Error()
		if m.expose {
			msg = err.Error()
		}
		if m.status >= http.StatusInternalServerError {
			s.logger.Error("request failed", zap.Error(err))
		} else {
			s.logger.Warn("domain error", zap.Error(err))
		}
		writeError(w, m.status, m.code, msg)
		return
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
