// Package errors holds response/logging helpers shared by the API handlers.
// Log lines carry the chi request ID so a booking can be traced across the
// handler, engine, and store layers.
package errors

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// InternalError logs the failure with its request ID and answers the client
// with a generic 500; upstream detail never leaks into the response body.
func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logf(r, "ERROR", "%s: %v", message, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// BadRequestError logs the rejected input and answers 400 with the supplied
// client-safe message.
func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	logf(r, "WARN", "bad request: %v", err)
	http.Error(w, clientMessage, http.StatusBadRequest)
}

// LogError records a failure that has its own response path.
func LogError(r *http.Request, message string, err error) {
	logf(r, "ERROR", "%s: %v", message, err)
}

// LogInfo records a notable request-scoped event.
func LogInfo(r *http.Request, message string) {
	logf(r, "INFO", "%s", message)
}

func logf(r *http.Request, level, format string, args ...any) {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		log.Printf("["+level+"] RequestID=%s: "+format, append([]any{reqID}, args...)...)
		return
	}
	log.Printf("["+level+"] "+format, args...)
}
