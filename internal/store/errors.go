package store

import "errors"

var (
	// ErrValidation is returned when a write is missing required fields.
	ErrValidation = errors.New("required field missing")

	// ErrPatientNotFound is returned when a patient id is unknown.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrAppointmentNotFound is returned when an appointment id is unknown.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotUnavailable is returned when the requested schedule slot does
	// not exist or is already claimed by another appointment.
	ErrSlotUnavailable = errors.New("schedule slot unavailable")

	// ErrDataCorruption is returned when a sequential id in the backing
	// collection cannot be parsed. The store instance is unusable for
	// further id assignment once this surfaces.
	ErrDataCorruption = errors.New("sequential id corrupted")
)
