package store

import "context"

// Store is the single owner of the patient, schedule and appointment
// collections. Booking and cancellation apply their slot, appointment
// and patient mutations as one logical unit.
type Store interface {
	// FindPatient matches patients by case-insensitive first and last name.
	// An empty result is not an error.
	FindPatient(ctx context.Context, firstName, lastName string) ([]Patient, error)

	// GetPatient looks a patient up by id.
	GetPatient(ctx context.Context, patientID string) (*Patient, error)

	// AddPatient registers a patient and returns the assigned id.
	AddPatient(ctx context.Context, p NewPatient) (string, error)

	// UpdatePatient merges the given column updates into a patient record.
	// Returns false without error when the id is unknown.
	UpdatePatient(ctx context.Context, patientID string, updates map[string]string) (bool, error)

	// GetAvailableSlots lists open slots for a doctor on a date, in the
	// insertion order of the schedule collection.
	GetAvailableSlots(ctx context.Context, doctorName, date string) ([]AvailableSlot, error)

	// BookAppointment books one appointment: appends the appointment
	// record, claims the schedule slot and updates the patient's visit
	// metadata atomically. Returns ErrSlotUnavailable when the slot does
	// not exist or is already claimed.
	BookAppointment(ctx context.Context, req BookingRequest) (string, error)

	// GetAppointment looks an appointment up by id.
	GetAppointment(ctx context.Context, appointmentID string) (*Appointment, error)

	// CancelAppointment marks an appointment cancelled and frees its slot.
	// Returns false without error when the id is unknown.
	CancelAppointment(ctx context.Context, appointmentID string) (bool, error)

	// GetUpcomingAppointments returns confirmed appointments dated within
	// [today, today+windowDays], ordered by date then time.
	GetUpcomingAppointments(ctx context.Context, windowDays int) ([]Appointment, error)

	// UpdateReminderStatus sets one of the three staged reminder flags.
	// Idempotent; returns false when the appointment is unknown.
	UpdateReminderStatus(ctx context.Context, appointmentID string, reminderNumber int) (bool, error)

	// MarkIntakeFormSent sets the intake-form flag. Idempotent; returns
	// false when the appointment is unknown.
	MarkIntakeFormSent(ctx context.Context, appointmentID string) (bool, error)

	// ExportReport left-joins appointments with patient and schedule
	// metadata. Rows follow ReportColumns order.
	ExportReport(ctx context.Context) ([][]string, error)
}
