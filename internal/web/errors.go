package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged server-side with the request id and returned to the
// client as a user-friendly message with a suggested action and a code:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via mapError to a cache.UserMessage
//  4. Response is JSON, or an HTML page when the client asked for HTML

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/banboard/internal/cache"
	"github.com/JonMunkholm/banboard/internal/supplemental"
	"github.com/JonMunkholm/banboard/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	msgSupplementalMissing = cache.UserMessage{
		Message: "Supplemental information is unavailable",
		Action:  "Check that the supplemental file exists on the server",
		Code:    "SUPP001",
	}
	msgSupplementalInvalid = cache.UserMessage{
		Message: "Supplemental information is malformed",
		Action:  "Fix the JSON syntax in the supplemental file",
		Code:    "SUPP002",
	}
	rateLimitMessage = cache.UserMessage{
		Message: "Rate limit exceeded",
		Action:  "Slow down and retry after the Retry-After interval",
		Code:    "RATE001",
	}
)

// mapError extends cache.MapError with the web layer's own sources.
func mapError(err error) cache.UserMessage {
	switch {
	case errors.Is(err, supplemental.ErrInvalid):
		return msgSupplementalInvalid
	case errors.Is(err, supplemental.ErrRead):
		return msgSupplementalMissing
	default:
		return cache.MapError(err)
	}
}

// statusFor picks the HTTP status for a record source failure.
func statusFor(err error) int {
	switch cache.KindOf(err) {
	case cache.KindFetch, cache.KindDecode:
		return http.StatusBadGateway
	case cache.KindTimeout:
		return http.StatusGatewayTimeout
	case cache.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns JSON, or an HTML page
// when the client prefers HTML.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := mapError(err)

	loggerFor(r).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"kind", cache.KindOf(err),
	)

	if wantsHTML(r) {
		respondErrorHTML(w, r, userMsg, statusCode)
		return
	}
	respondErrorJSON(w, userMsg, statusCode)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg cache.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML renders the error page.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg cache.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// wantsHTML reports whether a browser navigated to the URL directly. Script
// fetches and API clients get JSON.
func wantsHTML(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
