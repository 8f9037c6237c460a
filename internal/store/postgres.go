package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// PgxPool is the subset of pgxpool.Pool the store needs. pgxmock
// satisfies it in tests.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the collections in Postgres. The slot claim is
// a conditional UPDATE inside the booking transaction, optionally
// guarded by a cross-process slot lock.
type PostgresStore struct {
	db     PgxPool
	locker SlotLocker
	logger *logging.Logger
	now    func() time.Time
}

// NewPostgresStore creates a store backed by a pgx pool. A nil locker
// falls back to NoopLocker; the transaction's conditional UPDATE is
// still a correct claim on a single database.
func NewPostgresStore(db PgxPool, locker SlotLocker, logger *logging.Logger) *PostgresStore {
	if db == nil {
		panic("store: pgx pool required")
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresStore{db: db, locker: locker, logger: logger, now: time.Now}
}

const patientSelectColumns = `patient_id, first_name, last_name, date_of_birth, phone, email,
		address, insurance_carrier, member_id, group_number, is_new_patient, created_date, last_visit`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.PatientID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Phone,
		&p.Email, &p.Address, &p.InsuranceCarrier, &p.MemberID, &p.GroupNumber,
		&p.IsNewPatient, &p.CreatedDate, &p.LastVisit,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPatient matches by case-insensitive first and last name.
func (s *PostgresStore) FindPatient(ctx context.Context, firstName, lastName string) ([]Patient, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+patientSelectColumns+`
		FROM patients
		WHERE LOWER(first_name) = LOWER($1) AND LOWER(last_name) = LOWER($2)
		ORDER BY patient_id`, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("store: find patient: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan patient: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetPatient looks a patient up by id.
func (s *PostgresStore) GetPatient(ctx context.Context, patientID string) (*Patient, error) {
	p, err := scanPatient(s.db.QueryRow(ctx, `
		SELECT `+patientSelectColumns+`
		FROM patients
		WHERE patient_id = $1`, patientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("store: get patient: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) nextID(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, table, column, prefix string) (string, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM %s`, column, table))
	if err != nil {
		return "", fmt.Errorf("store: list %s ids: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("store: scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return nextSequentialID(ids, prefix)
}

// AddPatient registers a new patient with the next sequential id.
func (s *PostgresStore) AddPatient(ctx context.Context, p NewPatient) (string, error) {
	if p.FirstName == "" || p.LastName == "" || p.DateOfBirth == "" || p.Phone == "" || p.Email == "" {
		return "", fmt.Errorf("store: add patient: %w", ErrValidation)
	}

	id, err := s.nextID(ctx, s.db, "patients", "patient_id", "P")
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO patients (
			patient_id, first_name, last_name, date_of_birth, phone, email,
			address, insurance_carrier, member_id, group_number,
			is_new_patient, created_date, last_visit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, '')`,
		id, p.FirstName, p.LastName, p.DateOfBirth, p.Phone, p.Email,
		p.Address, p.InsuranceCarrier, p.MemberID, p.GroupNumber,
		s.now().Format(time.DateOnly))
	if err != nil {
		return "", fmt.Errorf("store: insert patient: %w", err)
	}
	s.logger.Info("patient registered", "patient_id", id)
	return id, nil
}

// UpdatePatient merges column updates into an existing record.
func (s *PostgresStore) UpdatePatient(ctx context.Context, patientID string, updates map[string]string) (bool, error) {
	p, err := s.GetPatient(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return false, nil
		}
		return false, err
	}
	applyPatientUpdates(p, updates)

	tag, err := s.db.Exec(ctx, `
		UPDATE patients SET
			first_name = $2, last_name = $3, date_of_birth = $4, phone = $5,
			email = $6, address = $7, insurance_carrier = $8, member_id = $9,
			group_number = $10, is_new_patient = $11, last_visit = $12
		WHERE patient_id = $1`,
		patientID, p.FirstName, p.LastName, p.DateOfBirth, p.Phone, p.Email,
		p.Address, p.InsuranceCarrier, p.MemberID, p.GroupNumber,
		p.IsNewPatient, p.LastVisit)
	if err != nil {
		return false, fmt.Errorf("store: update patient: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddScheduleSlots bulk-appends generated schedule slots.
func (s *PostgresStore) AddScheduleSlots(ctx context.Context, slots []ScheduleSlot) error {
	for i := range slots {
		slot := &slots[i]
		_, err := s.db.Exec(ctx, `
			INSERT INTO schedule_slots (
				doctor_name, specialty, location, date, day_of_week,
				time_slot, is_available, appointment_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			slot.DoctorName, slot.Specialty, slot.Location, slot.Date,
			slot.DayOfWeek, slot.TimeSlot, slot.IsAvailable, slot.AppointmentID)
		if err != nil {
			return fmt.Errorf("store: insert slot: %w", err)
		}
	}
	return nil
}

// GetAvailableSlots filters the schedule by doctor, date and availability.
// Order is insertion order (slot_id serial).
func (s *PostgresStore) GetAvailableSlots(ctx context.Context, doctorName, date string) ([]AvailableSlot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT time_slot, location
		FROM schedule_slots
		WHERE doctor_name = $1 AND date = $2 AND is_available
		ORDER BY slot_id`, doctorName, date)
	if err != nil {
		return nil, fmt.Errorf("store: available slots: %w", err)
	}
	defer rows.Close()

	var out []AvailableSlot
	for rows.Next() {
		var slot AvailableSlot
		if err := rows.Scan(&slot.TimeSlot, &slot.Location); err != nil {
			return nil, fmt.Errorf("store: scan slot: %w", err)
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

// BookAppointment claims the slot, inserts the appointment and updates
// the patient inside one transaction. The conditional UPDATE on
// is_available is the check-and-set; zero rows affected means another
// booking won the slot.
func (s *PostgresStore) BookAppointment(ctx context.Context, req BookingRequest) (string, error) {
	if req.PatientID == "" || req.DoctorName == "" || req.Date == "" || req.Time == "" {
		return "", fmt.Errorf("store: book appointment: %w", ErrValidation)
	}

	var appointmentID string
	lockKey := fmt.Sprintf("%s|%s|%s", req.DoctorName, req.Date, req.Time)
	err := s.locker.WithSlotLock(ctx, lockKey, func(ctx context.Context) error {
		tx, err := s.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("store: begin booking: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		id, err := s.nextID(ctx, tx, "appointments", "appointment_id", "A")
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE schedule_slots
			SET is_available = FALSE, appointment_id = $1
			WHERE doctor_name = $2 AND date = $3 AND time_slot = $4 AND is_available`,
			id, req.DoctorName, req.Date, req.Time)
		if err != nil {
			return fmt.Errorf("store: claim slot: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("store: book %s %s %s: %w", req.DoctorName, req.Date, req.Time, ErrSlotUnavailable)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO appointments (
				appointment_id, patient_id, doctor_name, appointment_date,
				appointment_time, duration, status, insurance_carrier,
				member_id, group_number, created_date,
				reminder_sent_1, reminder_sent_2, reminder_sent_3, intake_form_sent
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE, FALSE, FALSE, FALSE)`,
			id, req.PatientID, req.DoctorName, req.Date, req.Time,
			req.DurationMinutes, string(StatusConfirmed), req.InsuranceCarrier,
			req.MemberID, req.GroupNumber, s.now().Format(time.DateOnly))
		if err != nil {
			return fmt.Errorf("store: insert appointment: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE patients SET last_visit = $2, is_new_patient = FALSE
			WHERE patient_id = $1`, req.PatientID, req.Date)
		if err != nil {
			return fmt.Errorf("store: update patient visit: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("store: commit booking: %w", err)
		}
		appointmentID = id
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appointmentID,
		"patient_id", req.PatientID,
		"doctor", req.DoctorName,
		"date", req.Date,
		"time", req.Time,
	)
	return appointmentID, nil
}

const appointmentSelectColumns = `appointment_id, patient_id, doctor_name, appointment_date,
		appointment_time, duration, status, insurance_carrier, member_id, group_number,
		created_date, reminder_sent_1, reminder_sent_2, reminder_sent_3, intake_form_sent`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(
		&a.AppointmentID, &a.PatientID, &a.DoctorName, &a.Date, &a.Time,
		&a.DurationMinutes, &status, &a.InsuranceCarrier, &a.MemberID,
		&a.GroupNumber, &a.CreatedDate, &a.ReminderSent1, &a.ReminderSent2,
		&a.ReminderSent3, &a.IntakeFormSent,
	)
	if err != nil {
		return nil, err
	}
	a.Status = AppointmentStatus(status)
	return &a, nil
}

// GetAppointment looks an appointment up by id.
func (s *PostgresStore) GetAppointment(ctx context.Context, appointmentID string) (*Appointment, error) {
	a, err := scanAppointment(s.db.QueryRow(ctx, `
		SELECT `+appointmentSelectColumns+`
		FROM appointments
		WHERE appointment_id = $1`, appointmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("store: get appointment: %w", err)
	}
	return a, nil
}

// CancelAppointment flips the status and frees the matching slot.
func (s *PostgresStore) CancelAppointment(ctx context.Context, appointmentID string) (bool, error) {
	appt, err := s.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return false, nil
		}
		return false, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("store: begin cancel: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE appointments SET status = $2 WHERE appointment_id = $1`,
		appointmentID, string(StatusCancelled)); err != nil {
		return false, fmt.Errorf("store: cancel appointment: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE schedule_slots SET is_available = TRUE, appointment_id = ''
		WHERE doctor_name = $1 AND date = $2 AND time_slot = $3`,
		appt.DoctorName, appt.Date, appt.Time); err != nil {
		return false, fmt.Errorf("store: free slot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("store: commit cancel: %w", err)
	}

	s.logger.Info("appointment cancelled", "appointment_id", appointmentID)
	return true, nil
}

// GetUpcomingAppointments returns confirmed appointments within the window.
func (s *PostgresStore) GetUpcomingAppointments(ctx context.Context, windowDays int) ([]Appointment, error) {
	today := s.now().Format(time.DateOnly)
	end := s.now().AddDate(0, 0, windowDays).Format(time.DateOnly)

	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentSelectColumns+`
		FROM appointments
		WHERE status = $1 AND appointment_date >= $2 AND appointment_date <= $3
		ORDER BY appointment_date, appointment_time`,
		string(StatusConfirmed), today, end)
	if err != nil {
		return nil, fmt.Errorf("store: upcoming appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan appointment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateReminderStatus sets one staged reminder flag.
func (s *PostgresStore) UpdateReminderStatus(ctx context.Context, appointmentID string, reminderNumber int) (bool, error) {
	if reminderNumber < 1 || reminderNumber > 3 {
		return false, fmt.Errorf("store: reminder number %d: %w", reminderNumber, ErrValidation)
	}
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`
		UPDATE appointments SET reminder_sent_%d = TRUE WHERE appointment_id = $1`, reminderNumber),
		appointmentID)
	if err != nil {
		return false, fmt.Errorf("store: update reminder status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkIntakeFormSent sets the intake-form flag.
func (s *PostgresStore) MarkIntakeFormSent(ctx context.Context, appointmentID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments SET intake_form_sent = TRUE WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return false, fmt.Errorf("store: mark intake form sent: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ExportReport left-joins appointments with patient and schedule metadata.
func (s *PostgresStore) ExportReport(ctx context.Context) ([][]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.appointment_id, a.appointment_date, a.appointment_time,
			a.duration::text, a.doctor_name,
			COALESCE(d.specialty, ''), COALESCE(d.location, ''),
			a.patient_id, COALESCE(p.first_name, ''), COALESCE(p.last_name, ''),
			COALESCE(p.phone, ''), COALESCE(p.email, ''), a.status,
			a.insurance_carrier, a.member_id, a.group_number, a.created_date,
			a.reminder_sent_1::text, a.reminder_sent_2::text,
			a.reminder_sent_3::text, a.intake_form_sent::text
		FROM appointments a
		LEFT JOIN patients p ON p.patient_id = a.patient_id
		LEFT JOIN (
			SELECT DISTINCT ON (doctor_name) doctor_name, specialty, location
			FROM schedule_slots
			ORDER BY doctor_name, slot_id
		) d ON d.doctor_name = a.doctor_name
		ORDER BY a.appointment_id`)
	if err != nil {
		return nil, fmt.Errorf("store: export report: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		row := make([]string, len(ReportColumns))
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("store: scan report row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
