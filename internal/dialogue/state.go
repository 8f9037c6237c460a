// Package dialogue drives the slot-filling scheduling conversation.
package dialogue

import (
	"github.com/google/uuid"

	"github.com/healthfirst/scheduling-assistant/internal/store"
)

// State names one step of the scheduling conversation.
type State string

const (
	StateGreeting              State = "greeting"
	StateCollectingPatientInfo State = "collecting_patient_info"
	StateSelectDoctor          State = "select_doctor"
	StateSelectDate            State = "select_date"
	StateSelectTime            State = "select_time"
	StateCollectInsurance      State = "collect_insurance"
	StateConfirmation          State = "confirmation"
)

// PatientInfo is the identity portion of the conversation draft. An
// empty PatientID means the patient is not registered yet; the
// insurance fields hold the snapshot from an existing record, not the
// answers collected later in the conversation.
type PatientInfo struct {
	PatientID        string
	FirstName        string
	LastName         string
	DateOfBirth      string
	Phone            string
	Email            string
	IsNewPatient     bool
	InsuranceCarrier string
	MemberID         string
	GroupNumber      string
}

// AppointmentInfo is the appointment portion of the draft.
type AppointmentInfo struct {
	AppointmentID   string
	DoctorName      string
	Date            string
	Time            string
	Location        string
	DurationMinutes int
}

// InsuranceInfo holds the answers to the three insurance sub-prompts,
// verbatim as typed. An empty string means the field has not been
// asked-and-answered yet.
type InsuranceInfo struct {
	Carrier     string
	MemberID    string
	GroupNumber string
}

// Conversation is the ephemeral per-session draft. It is never
// persisted; the session manager discards it on reset.
type Conversation struct {
	ID          string
	State       State
	Patient     PatientInfo
	Appointment AppointmentInfo
	Insurance   InsuranceInfo

	// AvailableSlots are the slots most recently offered to the user,
	// in the 1-based order they were displayed.
	AvailableSlots []store.AvailableSlot

	confirmationSent bool
	intakeFormSent   bool
}

// NewConversation returns a fresh draft in the greeting state. Patients
// are treated as new until a record lookup proves otherwise.
func NewConversation() *Conversation {
	return &Conversation{
		ID:      uuid.New().String(),
		State:   StateGreeting,
		Patient: PatientInfo{IsNewPatient: true},
	}
}
