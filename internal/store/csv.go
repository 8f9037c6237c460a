package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// readCSVFile loads a CSV file into column-keyed rows. Columns absent
// from known are returned as extraCols so callers can carry them through
// a save unchanged. A missing file yields an empty collection.
func readCSVFile(path string, known []string) ([]map[string]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := records[0]
	knownSet := make(map[string]bool, len(known))
	for _, col := range known {
		knownSet[col] = true
	}
	var extraCols []string
	for _, col := range header {
		if !knownSet[col] {
			extraCols = append(extraCols, col)
		}
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, extraCols, nil
}

// writeCSVFile writes header plus rows, replacing the file atomically
// via a temp-file rename.
func writeCSVFile(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func parseCSVBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}

func parseCSVInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func extraFromRow(row map[string]string, extraCols []string) map[string]string {
	if len(extraCols) == 0 {
		return nil
	}
	extra := make(map[string]string, len(extraCols))
	for _, col := range extraCols {
		extra[col] = row[col]
	}
	return extra
}

func appendExtra(out []string, extra map[string]string, extraCols []string) []string {
	for _, col := range extraCols {
		out = append(out, extra[col])
	}
	return out
}

func patientFromRow(row map[string]string, extraCols []string) Patient {
	return Patient{
		PatientID:        row["patient_id"],
		FirstName:        row["first_name"],
		LastName:         row["last_name"],
		DateOfBirth:      row["date_of_birth"],
		Phone:            row["phone"],
		Email:            row["email"],
		Address:          row["address"],
		InsuranceCarrier: row["insurance_carrier"],
		MemberID:         row["member_id"],
		GroupNumber:      row["group_number"],
		IsNewPatient:     parseCSVBool(row["is_new_patient"]),
		CreatedDate:      row["created_date"],
		LastVisit:        row["last_visit"],
		Extra:            extraFromRow(row, extraCols),
	}
}

func patientToRow(p *Patient, extraCols []string) []string {
	row := []string{
		p.PatientID, p.FirstName, p.LastName, p.DateOfBirth, p.Phone,
		p.Email, p.Address, p.InsuranceCarrier, p.MemberID, p.GroupNumber,
		strconv.FormatBool(p.IsNewPatient), p.CreatedDate, p.LastVisit,
	}
	return appendExtra(row, p.Extra, extraCols)
}

func slotFromRow(row map[string]string, extraCols []string) ScheduleSlot {
	return ScheduleSlot{
		DoctorName:    row["doctor_name"],
		Specialty:     row["specialty"],
		Location:      row["location"],
		Date:          row["date"],
		DayOfWeek:     row["day_of_week"],
		TimeSlot:      row["time_slot"],
		IsAvailable:   parseCSVBool(row["is_available"]),
		AppointmentID: row["appointment_id"],
		Extra:         extraFromRow(row, extraCols),
	}
}

func slotToRow(s *ScheduleSlot, extraCols []string) []string {
	row := []string{
		s.DoctorName, s.Specialty, s.Location, s.Date, s.DayOfWeek,
		s.TimeSlot, strconv.FormatBool(s.IsAvailable), s.AppointmentID,
	}
	return appendExtra(row, s.Extra, extraCols)
}

func appointmentFromRow(row map[string]string, extraCols []string) Appointment {
	return Appointment{
		AppointmentID:    row["appointment_id"],
		PatientID:        row["patient_id"],
		DoctorName:       row["doctor_name"],
		Date:             row["appointment_date"],
		Time:             row["appointment_time"],
		DurationMinutes:  parseCSVInt(row["duration"]),
		Status:           AppointmentStatus(row["status"]),
		InsuranceCarrier: row["insurance_carrier"],
		MemberID:         row["member_id"],
		GroupNumber:      row["group_number"],
		CreatedDate:      row["created_date"],
		ReminderSent1:    parseCSVBool(row["reminder_sent_1"]),
		ReminderSent2:    parseCSVBool(row["reminder_sent_2"]),
		ReminderSent3:    parseCSVBool(row["reminder_sent_3"]),
		IntakeFormSent:   parseCSVBool(row["intake_form_sent"]),
		Extra:            extraFromRow(row, extraCols),
	}
}

func appointmentToRow(a *Appointment, extraCols []string) []string {
	row := []string{
		a.AppointmentID, a.PatientID, a.DoctorName, a.Date, a.Time,
		strconv.Itoa(a.DurationMinutes), string(a.Status), a.InsuranceCarrier,
		a.MemberID, a.GroupNumber, a.CreatedDate,
		strconv.FormatBool(a.ReminderSent1), strconv.FormatBool(a.ReminderSent2),
		strconv.FormatBool(a.ReminderSent3), strconv.FormatBool(a.IntakeFormSent),
	}
	return appendExtra(row, a.Extra, extraCols)
}

func applyPatientUpdates(p *Patient, updates map[string]string) {
	for col, value := range updates {
		switch col {
		case "first_name":
			p.FirstName = value
		case "last_name":
			p.LastName = value
		case "date_of_birth":
			p.DateOfBirth = value
		case "phone":
			p.Phone = value
		case "email":
			p.Email = value
		case "address":
			p.Address = value
		case "insurance_carrier":
			p.InsuranceCarrier = value
		case "member_id":
			p.MemberID = value
		case "group_number":
			p.GroupNumber = value
		case "is_new_patient":
			p.IsNewPatient = parseCSVBool(value)
		case "last_visit":
			p.LastVisit = value
		}
	}
}
