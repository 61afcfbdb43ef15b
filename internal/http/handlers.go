package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	httperrors "github.com/docsched/docsched/internal/http/errors"
	"github.com/docsched/docsched/internal/schedule"
	"github.com/docsched/docsched/internal/store"
)

// Scheduler is the engine surface the API layer drives.
type Scheduler interface {
	Book(ctx context.Context, req schedule.BookingRequest) schedule.BookingOutcome
	Cancel(ctx context.Context, req schedule.CancellationRequest) schedule.CancellationOutcome
	UpcomingAppointments(ctx context.Context, doctorEmail string) ([]schedule.AppointmentSummary, error)
}

// Registrar is the OAuth surface used by the registration endpoints.
type Registrar interface {
	AuthCodeURL(doctorID string) string
	RegisterDoctor(ctx context.Context, code, doctorID string) (*store.DoctorCredential, error)
}

// Handler serves the appointment API.
type Handler struct {
	engine    Scheduler
	registrar Registrar
	audits    store.AuditRepository
}

func NewHandler(engine Scheduler, registrar Registrar, audits store.AuditRepository) *Handler {
	return &Handler{engine: engine, registrar: registrar, audits: audits}
}

// BookAppointment books a one-hour slot. The outcome message's leading
// marker selects the status code: success maps to 200, anything else to 409.
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req schedule.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}

	outcome := h.engine.Book(r.Context(), req)

	status := http.StatusOK
	if !outcome.Success() {
		status = http.StatusConflict
	}
	writeText(w, status, outcome.Message())
}

// CancelAppointment deletes a booked event; failures map to 400.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req schedule.CancellationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid request body")
		return
	}

	outcome := h.engine.Cancel(r.Context(), req)

	status := http.StatusOK
	if !outcome.Success() {
		status = http.StatusBadRequest
	}
	writeText(w, status, outcome.Message())
}

// ListAppointments returns the next week of appointments for a doctor
// (or the operator calendar when no doctor is given).
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	doctor := r.URL.Query().Get("doctor")

	list, err := h.engine.UpcomingAppointments(r.Context(), doctor)
	if err != nil {
		httperrors.InternalError(w, r, err, "list appointments")
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// ListAudits returns the booking audit trail filtered by doctor or patient email.
func (h *Handler) ListAudits(w http.ResponseWriter, r *http.Request) {
	doctor := r.URL.Query().Get("doctor")
	patient := r.URL.Query().Get("patient")

	var (
		list []store.AppointmentAudit
		err  error
	)
	switch {
	case doctor != "":
		list, err = h.audits.ListByDoctorEmail(r.Context(), doctor)
	case patient != "":
		list, err = h.audits.ListByPatientEmail(r.Context(), patient)
	default:
		http.Error(w, "doctor or patient query parameter is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "list audits")
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// OAuthLogin returns the provider authorization URL for a doctor. The state
// parameter carries the doctor id through the redirect.
func (h *Handler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctorId")
	if doctorID == "" {
		http.Error(w, "doctorId query parameter is required", http.StatusBadRequest)
		return
	}
	writeText(w, http.StatusOK, h.registrar.AuthCodeURL(doctorID))
}

// OAuthCallback completes registration: the provider redirects here with the
// authorization code and the doctor id in state.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	doctorID := r.URL.Query().Get("state")
	if code == "" || doctorID == "" {
		http.Error(w, "code and state query parameters are required", http.StatusBadRequest)
		return
	}

	cred, err := h.registrar.RegisterDoctor(r.Context(), code, doctorID)
	if err != nil {
		httperrors.LogError(r, "register doctor", err)
		writeText(w, http.StatusOK, "❌ Failed to register doctor: "+err.Error())
		return
	}

	httperrors.LogInfo(r, "registered doctor "+cred.DoctorID+" with email "+cred.Email)
	writeText(w, http.StatusOK, "✅ Doctor registered successfully")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		httperrors.LogError(r, "encode response", err)
	}
}
