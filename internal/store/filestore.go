package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// Backing file names inside the data directory.
const (
	patientsFile     = "patients.csv"
	schedulesFile    = "doctor_schedules.csv"
	appointmentsFile = "appointments.csv"
)

var (
	patientColumns = []string{
		"patient_id", "first_name", "last_name", "date_of_birth", "phone",
		"email", "address", "insurance_carrier", "member_id", "group_number",
		"is_new_patient", "created_date", "last_visit",
	}
	scheduleColumns = []string{
		"doctor_name", "specialty", "location", "date", "day_of_week",
		"time_slot", "is_available", "appointment_id",
	}
	appointmentColumns = []string{
		"appointment_id", "patient_id", "doctor_name", "appointment_date",
		"appointment_time", "duration", "status", "insurance_carrier",
		"member_id", "group_number", "created_date", "reminder_sent_1",
		"reminder_sent_2", "reminder_sent_3", "intake_form_sent",
	}
)

// FileStore keeps all three collections in memory and re-persists them
// to CSV files on every mutation. A single mutex makes each operation,
// including the multi-collection booking mutation, atomic with respect
// to concurrent conversations and the reminder sweep. A mutation whose
// persist fails is rolled back in memory, so the collections never hold
// state that was reported as an error.
type FileStore struct {
	mu  sync.Mutex
	dir string

	patients     []Patient
	slots        []ScheduleSlot
	appointments []Appointment

	// Unknown columns seen at load, re-emitted on save.
	patientExtraCols     []string
	scheduleExtraCols    []string
	appointmentExtraCols []string

	logger *logging.Logger
	now    func() time.Time
}

// NewFileStore loads (or initializes) the collections under dir.
// Missing backing files are not an error; they start empty.
func NewFileStore(dir string, logger *logging.Logger) (*FileStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &FileStore{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	logger.Info("file store loaded",
		"dir", dir,
		"patients", len(s.patients),
		"slots", len(s.slots),
		"appointments", len(s.appointments),
	)
	return s, nil
}

func (s *FileStore) load() error {
	patientRows, patientExtra, err := readCSVFile(filepath.Join(s.dir, patientsFile), patientColumns)
	if err != nil {
		return fmt.Errorf("store: load patients: %w", err)
	}
	scheduleRows, scheduleExtra, err := readCSVFile(filepath.Join(s.dir, schedulesFile), scheduleColumns)
	if err != nil {
		return fmt.Errorf("store: load schedules: %w", err)
	}
	appointmentRows, appointmentExtra, err := readCSVFile(filepath.Join(s.dir, appointmentsFile), appointmentColumns)
	if err != nil {
		return fmt.Errorf("store: load appointments: %w", err)
	}

	s.patientExtraCols = patientExtra
	s.scheduleExtraCols = scheduleExtra
	s.appointmentExtraCols = appointmentExtra

	s.patients = s.patients[:0]
	for _, row := range patientRows {
		s.patients = append(s.patients, patientFromRow(row, patientExtra))
	}
	s.slots = s.slots[:0]
	for _, row := range scheduleRows {
		s.slots = append(s.slots, slotFromRow(row, scheduleExtra))
	}
	s.appointments = s.appointments[:0]
	for _, row := range appointmentRows {
		s.appointments = append(s.appointments, appointmentFromRow(row, appointmentExtra))
	}
	return nil
}

// persist writes all three collections back to disk. Callers hold s.mu.
func (s *FileStore) persist() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("store: create data dir: %w", err)
	}

	patientRows := make([][]string, 0, len(s.patients))
	for i := range s.patients {
		patientRows = append(patientRows, patientToRow(&s.patients[i], s.patientExtraCols))
	}
	if err := writeCSVFile(filepath.Join(s.dir, patientsFile), append(append([]string{}, patientColumns...), s.patientExtraCols...), patientRows); err != nil {
		return fmt.Errorf("store: save patients: %w", err)
	}

	scheduleRows := make([][]string, 0, len(s.slots))
	for i := range s.slots {
		scheduleRows = append(scheduleRows, slotToRow(&s.slots[i], s.scheduleExtraCols))
	}
	if err := writeCSVFile(filepath.Join(s.dir, schedulesFile), append(append([]string{}, scheduleColumns...), s.scheduleExtraCols...), scheduleRows); err != nil {
		return fmt.Errorf("store: save schedules: %w", err)
	}

	appointmentRows := make([][]string, 0, len(s.appointments))
	for i := range s.appointments {
		appointmentRows = append(appointmentRows, appointmentToRow(&s.appointments[i], s.appointmentExtraCols))
	}
	if err := writeCSVFile(filepath.Join(s.dir, appointmentsFile), append(append([]string{}, appointmentColumns...), s.appointmentExtraCols...), appointmentRows); err != nil {
		return fmt.Errorf("store: save appointments: %w", err)
	}
	return nil
}

// FindPatient matches by case-insensitive first and last name.
func (s *FileStore) FindPatient(ctx context.Context, firstName, lastName string) ([]Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Patient
	for i := range s.patients {
		if equalFold(s.patients[i].FirstName, firstName) && equalFold(s.patients[i].LastName, lastName) {
			out = append(out, s.patients[i])
		}
	}
	return out, nil
}

// GetPatient looks a patient up by id.
func (s *FileStore) GetPatient(ctx context.Context, patientID string) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.patients {
		if s.patients[i].PatientID == patientID {
			p := s.patients[i]
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

// AddPatient registers a new patient with the next sequential id.
func (s *FileStore) AddPatient(ctx context.Context, p NewPatient) (string, error) {
	if p.FirstName == "" || p.LastName == "" || p.DateOfBirth == "" || p.Phone == "" || p.Email == "" {
		return "", fmt.Errorf("store: add patient: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.patients))
	for i := range s.patients {
		ids = append(ids, s.patients[i].PatientID)
	}
	id, err := nextSequentialID(ids, "P")
	if err != nil {
		return "", err
	}

	s.patients = append(s.patients, Patient{
		PatientID:        id,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		DateOfBirth:      p.DateOfBirth,
		Phone:            p.Phone,
		Email:            p.Email,
		Address:          p.Address,
		InsuranceCarrier: p.InsuranceCarrier,
		MemberID:         p.MemberID,
		GroupNumber:      p.GroupNumber,
		IsNewPatient:     true,
		CreatedDate:      s.now().Format(time.DateOnly),
	})
	if err := s.persist(); err != nil {
		s.patients = s.patients[:len(s.patients)-1]
		return "", err
	}
	s.logger.Info("patient registered", "patient_id", id)
	return id, nil
}

// UpdatePatient merges column updates into an existing record.
func (s *FileStore) UpdatePatient(ctx context.Context, patientID string, updates map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.patients {
		if s.patients[i].PatientID != patientID {
			continue
		}
		prev := s.patients[i]
		applyPatientUpdates(&s.patients[i], updates)
		if err := s.persist(); err != nil {
			s.patients[i] = prev
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// AddScheduleSlots bulk-appends generated schedule slots.
func (s *FileStore) AddScheduleSlots(ctx context.Context, slots []ScheduleSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.slots)
	s.slots = append(s.slots, slots...)
	if err := s.persist(); err != nil {
		s.slots = s.slots[:n]
		return err
	}
	return nil
}

// GetAvailableSlots filters the schedule by doctor, date and availability.
func (s *FileStore) GetAvailableSlots(ctx context.Context, doctorName, date string) ([]AvailableSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []AvailableSlot
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.DoctorName == doctorName && slot.Date == date && slot.IsAvailable {
			out = append(out, AvailableSlot{TimeSlot: slot.TimeSlot, Location: slot.Location})
		}
	}
	return out, nil
}

// BookAppointment applies the appointment append, slot claim and patient
// visit update as one unit under the store lock. A booking whose slot
// cannot be found or is already claimed fails with ErrSlotUnavailable
// rather than diverging the schedule from the appointment book.
func (s *FileStore) BookAppointment(ctx context.Context, req BookingRequest) (string, error) {
	if req.PatientID == "" || req.DoctorName == "" || req.Date == "" || req.Time == "" {
		return "", fmt.Errorf("store: book appointment: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slotIdx := -1
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.DoctorName == req.DoctorName && slot.Date == req.Date && slot.TimeSlot == req.Time {
			slotIdx = i
			break
		}
	}
	if slotIdx < 0 || !s.slots[slotIdx].IsAvailable {
		return "", fmt.Errorf("store: book %s %s %s: %w", req.DoctorName, req.Date, req.Time, ErrSlotUnavailable)
	}

	ids := make([]string, 0, len(s.appointments))
	for i := range s.appointments {
		ids = append(ids, s.appointments[i].AppointmentID)
	}
	id, err := nextSequentialID(ids, "A")
	if err != nil {
		return "", err
	}

	s.appointments = append(s.appointments, Appointment{
		AppointmentID:    id,
		PatientID:        req.PatientID,
		DoctorName:       req.DoctorName,
		Date:             req.Date,
		Time:             req.Time,
		DurationMinutes:  req.DurationMinutes,
		Status:           StatusConfirmed,
		InsuranceCarrier: req.InsuranceCarrier,
		MemberID:         req.MemberID,
		GroupNumber:      req.GroupNumber,
		CreatedDate:      s.now().Format(time.DateOnly),
	})

	prevSlot := s.slots[slotIdx]
	s.slots[slotIdx].IsAvailable = false
	s.slots[slotIdx].AppointmentID = id

	patientIdx := -1
	var prevPatient Patient
	for i := range s.patients {
		if s.patients[i].PatientID == req.PatientID {
			patientIdx = i
			prevPatient = s.patients[i]
			s.patients[i].LastVisit = req.Date
			s.patients[i].IsNewPatient = false
			break
		}
	}

	// A failed persist rolls the whole mutation back so memory keeps
	// mirroring disk; a retry then sees the slot still open.
	if err := s.persist(); err != nil {
		s.appointments = s.appointments[:len(s.appointments)-1]
		s.slots[slotIdx] = prevSlot
		if patientIdx >= 0 {
			s.patients[patientIdx] = prevPatient
		}
		return "", err
	}
	s.logger.Info("appointment booked",
		"appointment_id", id,
		"patient_id", req.PatientID,
		"doctor", req.DoctorName,
		"date", req.Date,
		"time", req.Time,
	)
	return id, nil
}

// GetAppointment looks an appointment up by id.
func (s *FileStore) GetAppointment(ctx context.Context, appointmentID string) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		if s.appointments[i].AppointmentID == appointmentID {
			a := s.appointments[i]
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

// CancelAppointment flips the status and frees the matching slot.
func (s *FileStore) CancelAppointment(ctx context.Context, appointmentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		appt := &s.appointments[i]
		if appt.AppointmentID != appointmentID {
			continue
		}
		prevAppt := *appt
		var freedIdx []int
		var freedPrev []ScheduleSlot
		appt.Status = StatusCancelled
		for j := range s.slots {
			slot := &s.slots[j]
			if slot.DoctorName == appt.DoctorName && slot.Date == appt.Date && slot.TimeSlot == appt.Time {
				freedIdx = append(freedIdx, j)
				freedPrev = append(freedPrev, *slot)
				slot.IsAvailable = true
				slot.AppointmentID = ""
			}
		}
		if err := s.persist(); err != nil {
			*appt = prevAppt
			for k, j := range freedIdx {
				s.slots[j] = freedPrev[k]
			}
			return false, err
		}
		s.logger.Info("appointment cancelled", "appointment_id", appointmentID)
		return true, nil
	}
	return false, nil
}

// GetUpcomingAppointments returns confirmed appointments within the
// window, ordered by date then time.
func (s *FileStore) GetUpcomingAppointments(ctx context.Context, windowDays int) ([]Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.now().Format(time.DateOnly)
	end := s.now().AddDate(0, 0, windowDays).Format(time.DateOnly)

	var out []Appointment
	for i := range s.appointments {
		appt := &s.appointments[i]
		if appt.Status != StatusConfirmed {
			continue
		}
		if appt.Date < today || appt.Date > end {
			continue
		}
		out = append(out, *appt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// UpdateReminderStatus sets one staged reminder flag.
func (s *FileStore) UpdateReminderStatus(ctx context.Context, appointmentID string, reminderNumber int) (bool, error) {
	if reminderNumber < 1 || reminderNumber > 3 {
		return false, fmt.Errorf("store: reminder number %d: %w", reminderNumber, ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		appt := &s.appointments[i]
		if appt.AppointmentID != appointmentID {
			continue
		}
		prev := *appt
		switch reminderNumber {
		case 1:
			appt.ReminderSent1 = true
		case 2:
			appt.ReminderSent2 = true
		case 3:
			appt.ReminderSent3 = true
		}
		if err := s.persist(); err != nil {
			*appt = prev
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// MarkIntakeFormSent sets the intake-form flag.
func (s *FileStore) MarkIntakeFormSent(ctx context.Context, appointmentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		appt := &s.appointments[i]
		if appt.AppointmentID != appointmentID {
			continue
		}
		prev := *appt
		appt.IntakeFormSent = true
		if err := s.persist(); err != nil {
			*appt = prev
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ExportReport left-joins appointments with patient and schedule metadata.
func (s *FileStore) ExportReport(ctx context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patientsByID := make(map[string]*Patient, len(s.patients))
	for i := range s.patients {
		patientsByID[s.patients[i].PatientID] = &s.patients[i]
	}
	doctorMeta := make(map[string]*ScheduleSlot, len(s.slots))
	for i := range s.slots {
		if _, ok := doctorMeta[s.slots[i].DoctorName]; !ok {
			doctorMeta[s.slots[i].DoctorName] = &s.slots[i]
		}
	}

	rows := make([][]string, 0, len(s.appointments))
	for i := range s.appointments {
		appt := &s.appointments[i]
		var firstName, lastName, phone, email string
		if p := patientsByID[appt.PatientID]; p != nil {
			firstName, lastName, phone, email = p.FirstName, p.LastName, p.Phone, p.Email
		}
		var specialty, location string
		if d := doctorMeta[appt.DoctorName]; d != nil {
			specialty, location = d.Specialty, d.Location
		}
		rows = append(rows, []string{
			appt.AppointmentID, appt.Date, appt.Time, strconv.Itoa(appt.DurationMinutes),
			appt.DoctorName, specialty, location, appt.PatientID, firstName,
			lastName, phone, email, string(appt.Status), appt.InsuranceCarrier,
			appt.MemberID, appt.GroupNumber, appt.CreatedDate,
			strconv.FormatBool(appt.ReminderSent1), strconv.FormatBool(appt.ReminderSent2),
			strconv.FormatBool(appt.ReminderSent3), strconv.FormatBool(appt.IntakeFormSent),
		})
	}
	return rows, nil
}

var _ Store = (*FileStore)(nil)
