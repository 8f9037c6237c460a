package store

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock, nil, nil), mock
}

func TestPostgresBookAppointment(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT appointment_id FROM appointments").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_id"}).AddRow("A0001").AddRow("A0002"))
	mock.ExpectExec("UPDATE schedule_slots").
		WithArgs("A0003", "Dr. Sarah Johnson", "2030-06-03", "09:30").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs("A0003", "P0001", "Dr. Sarah Johnson", "2030-06-03", "09:30",
			60, "confirmed", "Aetna", "M123", "G456", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE patients").
		WithArgs("P0001", "2030-06-03").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	id, err := s.BookAppointment(context.Background(), BookingRequest{
		PatientID:        "P0001",
		DoctorName:       "Dr. Sarah Johnson",
		Date:             "2030-06-03",
		Time:             "09:30",
		DurationMinutes:  60,
		InsuranceCarrier: "Aetna",
		MemberID:         "M123",
		GroupNumber:      "G456",
	})
	require.NoError(t, err)
	assert.Equal(t, "A0003", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookAppointmentSlotTaken(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT appointment_id FROM appointments").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_id"}))
	mock.ExpectExec("UPDATE schedule_slots").
		WithArgs("A0001", "Dr. Sarah Johnson", "2030-06-03", "09:30").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := s.BookAppointment(context.Background(), BookingRequest{
		PatientID:  "P0001",
		DoctorName: "Dr. Sarah Johnson",
		Date:       "2030-06-03",
		Time:       "09:30",
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBookAppointmentCorruptedIDs(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT appointment_id FROM appointments").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_id"}).AddRow("WHAT"))
	mock.ExpectRollback()

	_, err := s.BookAppointment(context.Background(), BookingRequest{
		PatientID:  "P0001",
		DoctorName: "Dr. Sarah Johnson",
		Date:       "2030-06-03",
		Time:       "09:30",
	})
	assert.ErrorIs(t, err, ErrDataCorruption)
}

func TestPostgresFindPatient(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM patients").
		WithArgs("John", "Smith").
		WillReturnRows(pgxmock.NewRows([]string{
			"patient_id", "first_name", "last_name", "date_of_birth", "phone",
			"email", "address", "insurance_carrier", "member_id", "group_number",
			"is_new_patient", "created_date", "last_visit",
		}).AddRow("P0001", "John", "Smith", "1985-05-15", "+1-555-123-4567",
			"john.smith@email.com", "", "Aetna", "M1", "G1", false, "2026-01-02", "2026-02-01"))

	got, err := s.FindPatient(context.Background(), "John", "Smith")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P0001", got[0].PatientID)
	assert.False(t, got[0].IsNewPatient)
}

func TestPostgresCancelAppointment(t *testing.T) {
	s, mock := newMockStore(t)

	apptRows := pgxmock.NewRows([]string{
		"appointment_id", "patient_id", "doctor_name", "appointment_date",
		"appointment_time", "duration", "status", "insurance_carrier",
		"member_id", "group_number", "created_date", "reminder_sent_1",
		"reminder_sent_2", "reminder_sent_3", "intake_form_sent",
	}).AddRow("A0001", "P0001", "Dr. Sarah Johnson", "2030-06-03", "09:30",
		60, "confirmed", "", "", "", "2026-01-02", false, false, false, false)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("A0001").
		WillReturnRows(apptRows)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments SET status").
		WithArgs("A0001", "cancelled").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE schedule_slots SET is_available").
		WithArgs("Dr. Sarah Johnson", "2030-06-03", "09:30").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	ok, err := s.CancelAppointment(context.Background(), "A0001")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCancelUnknownAppointment(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs("A0404").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_id"})) // no rows

	ok, err := s.CancelAppointment(context.Background(), "A0404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresUpdateReminderStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE appointments SET reminder_sent_2").
		WithArgs("A0001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := s.UpdateReminderStatus(context.Background(), "A0001", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.UpdateReminderStatus(context.Background(), "A0001", 0)
	assert.ErrorIs(t, err, ErrValidation)
}
