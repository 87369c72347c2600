package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"
	"fxconvert-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorEnvelope{Code: code, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, "bad_request", msg)
}

// writeDomainError maps err to a status code. Program rejections carry
// their own code; unknown errors are logged and hidden.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logx.WithFields(r.Context()).Error("http.internal_error", zap.Error(err))
		msg = http.StatusText(status)
	}
	writeError(w, status, code, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrBadSignature):
		return http.StatusUnauthorized, "bad_signature"
	case errors.Is(err, application.ErrExpired):
		return http.StatusBadRequest, "expired"
	case errors.Is(err, application.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	code := domain.Code(err)
	switch code {
	case "":
		return http.StatusInternalServerError, "internal"
	case "invalid_instruction":
		return http.StatusBadRequest, code
	case "unauthorized":
		return http.StatusForbidden, code
	case "already_initialized":
		return http.StatusConflict, code
	default:
		return http.StatusUnprocessableEntity, code
	}
}
