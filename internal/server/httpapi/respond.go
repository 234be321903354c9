package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/dmitrijs2005/anoninbox/internal/common"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return common.ErrInvalidInput
	}
	return nil
}

// statusFor maps service errors onto HTTP statuses and stable error codes.
func statusFor(err error) (int, string) {
	switch {
	case common.IsFatal(err):
		return http.StatusInternalServerError, "integrity_error"
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusConflict, "duplicate_username"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrInvalidLink):
		return http.StatusNotFound, "invalid_link"
	case errors.Is(err, common.ErrRecipientNotFound):
		return http.StatusNotFound, "recipient_not_found"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "fatal", common.IsFatal(err), "error", err)
	}
	writeJSON(w, status, errorBody{Error: code})
}

// clientIP is the peer address of the connection.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
