package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/and161185/tokenstall/internal/errs"
)

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{Status: "error", Code: code, Message: message})
}

// writeMappedError translates domain sentinels into wire errors. The caller is
// already authenticated here, so ErrUnauthorized means "not allowed", not
// "who are you" — it maps to 403.
func writeMappedError(w http.ResponseWriter, err error) {
	status, code, msg := mapDomainError(err)
	writeError(w, status, code, msg)
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
	case errors.Is(err, errs.ErrInvalidConfig):
		return http.StatusBadRequest, "INVALID_CONFIG", err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusForbidden, "FORBIDDEN", "operation not allowed"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, errs.ErrNoOp):
		return http.StatusConflict, "NO_CHANGE", "value already set"
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, "ALREADY_EXISTS", "already exists"
	case errors.Is(err, errs.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "INSUFFICIENT_BALANCE", "insufficient balance"
	case errors.Is(err, errs.ErrInsufficientAllowance):
		return http.StatusPaymentRequired, "INSUFFICIENT_ALLOWANCE", "insufficient allowance"
	case errors.Is(err, errs.ErrTransferFailed):
		return http.StatusConflict, "TRANSFER_FAILED", "token transfer failed"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, retry later"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func readIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host := strings.TrimSpace(r.RemoteAddr)
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}
