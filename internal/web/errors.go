package web

// errors.go turns handler errors into responses.
//
// Every error is logged with its technical detail and request id, mapped
// through core.MapError, and returned as JSON for API clients or as an
// HTML fragment for HTMX and browser requests. The status code follows the
// error's category.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvmaster/internal/core"
	"github.com/JonMunkholm/csvmaster/internal/logging"
	"github.com/JonMunkholm/csvmaster/internal/web/templates"
)

// ErrorResponse is the JSON body of a failed API request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a mapped error code.
func statusFor(err error, code string) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	switch code {
	case "SES001":
		return http.StatusNotFound
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "BUSY001":
		return http.StatusServiceUnavailable
	case "DB002":
		return http.StatusNotImplemented
	case "AUTH001":
		return http.StatusUnauthorized
	case "ENC001", "READ001", "READ002", "COL001", "ARG001", "FILE002", "WRITE001":
		return http.StatusBadRequest
	case "DB001":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes a user-friendly response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(err, userMsg.Code)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "method", r.Method, "status", status, "error", err.Error(), "code", userMsg.Code)
	} else {
		logger.Warn("request error", "path", r.URL.Path, "method", r.Method, "status", status, "error", err.Error(), "code", userMsg.Code)
	}

	if isHTMX(r) || !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   err.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers JSON. API routes default to
// JSON unless the client asks for HTML.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
