// Package httputil centralizes JSON encoding and domain error translation
// for the HTTP transport, so every handler returns the same error envelope.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "realmgate/pkg/domain-errors"
)

// errorBody is the JSON error envelope, shaped after the OAuth 2.0 error
// response so the token endpoint and the rest of the API speak one format.
type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized, dErrors.CodeExpired:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func wireCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeInvalidInput:
		return "invalid_input"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeExpired:
		return "expired"
	case dErrors.CodeForbidden:
		return "forbidden"
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

// WriteError translates a domain error into the JSON error envelope. Server
// faults deliberately omit the description so internals never leak to
// callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := statusOf(code)

	body := errorBody{Error: wireCode(code)}
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.Description = de.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeAndPrepare decodes the JSON request body into T. On failure it
// writes a bad-request envelope and returns false; the handler just returns.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return &req, true
}
