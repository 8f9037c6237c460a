// Package handlers exposes the scheduling assistant over HTTP.
package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/healthfirst/scheduling-assistant/internal/dialogue"
	"github.com/healthfirst/scheduling-assistant/internal/observability/metrics"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// CancellationNotifier tells the patient their appointment was
// cancelled. Channel results are reported, never errors.
type CancellationNotifier interface {
	SendCancellationNotice(ctx context.Context, appt *store.Appointment, patient *store.Patient, reason string) (emailOK, smsOK bool)
}

// SchedulingHandler serves the chat, slot, appointment and report
// endpoints.
type SchedulingHandler struct {
	sessions *dialogue.SessionManager
	store    store.Store
	notifier CancellationNotifier
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

// NewSchedulingHandler wires the HTTP handler. notifier and metrics may
// be nil.
func NewSchedulingHandler(sessions *dialogue.SessionManager, st store.Store, notifier CancellationNotifier, m *metrics.SchedulingMetrics, logger *logging.Logger) *SchedulingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchedulingHandler{
		sessions: sessions,
		store:    st,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Response  string `json:"response"`
}

// Greeting returns the onboarding prompt chat clients display before
// the patient's first message.
func (h *SchedulingHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chatResponse{Response: h.sessions.Greeting()})
}

// Chat handles one conversational turn.
func (h *SchedulingHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID, response := h.sessions.ProcessMessage(r.Context(), req.SessionID, req.Message)
	writeJSON(w, http.StatusOK, chatResponse{SessionID: sessionID, Response: response})
}

// ResetSession discards a conversation draft.
func (h *SchedulingHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.sessions.Reset(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// Slots lists open slots for a doctor on a date.
func (h *SchedulingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	doctor := strings.TrimSpace(r.URL.Query().Get("doctor"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if doctor == "" || date == "" {
		writeError(w, http.StatusBadRequest, "doctor and date query parameters are required")
		return
	}

	slots, err := h.store.GetAvailableSlots(r.Context(), doctor, date)
	if err != nil {
		h.logger.Error("list slots failed", "doctor", doctor, "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "could not list slots")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doctor": doctor,
		"date":   date,
		"slots":  slots,
	})
}

// Appointment returns one appointment by id.
func (h *SchedulingHandler) Appointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	appt, err := h.store.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrAppointmentNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("get appointment failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load appointment")
		return
	}
	writeJSON(w, http.StatusOK, appointmentPayload(appt))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel cancels an appointment, frees its slot and notifies the
// patient.
func (h *SchedulingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")

	// Reason body is optional.
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appt, err := h.store.GetAppointment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrAppointmentNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("get appointment failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load appointment")
		return
	}

	ok, err := h.store.CancelAppointment(r.Context(), id)
	if err != nil {
		h.logger.Error("cancel appointment failed", "appointment_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "could not cancel appointment")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}

	h.metrics.ObserveCancellation()
	h.logger.Info("appointment cancelled", "appointment_id", id, "reason", req.Reason)

	if h.notifier != nil {
		patient, err := h.store.GetPatient(r.Context(), appt.PatientID)
		if err != nil {
			h.logger.Warn("cancellation notice skipped, patient lookup failed",
				"appointment_id", id, "patient_id", appt.PatientID, "error", err)
		} else {
			emailOK, smsOK := h.notifier.SendCancellationNotice(r.Context(), appt, patient, req.Reason)
			h.metrics.ObserveNotification("cancellation", "email", emailOK)
			h.metrics.ObserveNotification("cancellation", "sms", smsOK)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"appointment_id": id,
		"status":         string(store.StatusCancelled),
	})
}

// Report streams the administrative export as CSV.
func (h *SchedulingHandler) Report(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ExportReport(r.Context())
	if err != nil {
		h.logger.Error("export report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not export report")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments_report.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(store.ReportColumns)
	for _, row := range rows {
		_ = cw.Write(row)
	}
	cw.Flush()
}

// Health returns a simple health check response.
func (h *SchedulingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func appointmentPayload(appt *store.Appointment) map[string]any {
	return map[string]any{
		"appointment_id":   appt.AppointmentID,
		"patient_id":       appt.PatientID,
		"doctor_name":      appt.DoctorName,
		"date":             appt.Date,
		"time":             appt.Time,
		"duration":         appt.DurationMinutes,
		"status":           string(appt.Status),
		"intake_form_sent": appt.IntakeFormSent,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
