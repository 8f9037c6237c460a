// Package store owns the patient, schedule and appointment collections.
package store

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Patient is a registered patient record. Dates are calendar dates in
// YYYY-MM-DD form; LastVisit is empty until the first booking.
type Patient struct {
	PatientID        string
	FirstName        string
	LastName         string
	DateOfBirth      string
	Phone            string
	Email            string
	Address          string
	InsuranceCarrier string
	MemberID         string
	GroupNumber      string
	IsNewPatient     bool
	CreatedDate      string
	LastVisit        string

	// Extra preserves columns this version does not know about so a
	// round-trip through the file store never drops data.
	Extra map[string]string
}

// ScheduleSlot is one bookable (doctor, date, time, location) unit.
type ScheduleSlot struct {
	DoctorName    string
	Specialty     string
	Location      string
	Date          string
	DayOfWeek     string
	TimeSlot      string
	IsAvailable   bool
	AppointmentID string

	Extra map[string]string
}

// Appointment is a booked visit. Duration and the insurance snapshot are
// immutable after booking; reminder flags only ever go false -> true.
type Appointment struct {
	AppointmentID    string
	PatientID        string
	DoctorName       string
	Date             string
	Time             string
	DurationMinutes  int
	Status           AppointmentStatus
	InsuranceCarrier string
	MemberID         string
	GroupNumber      string
	CreatedDate      string
	ReminderSent1    bool
	ReminderSent2    bool
	ReminderSent3    bool
	IntakeFormSent   bool

	Extra map[string]string
}

// AvailableSlot is what callers see when listing open times.
type AvailableSlot struct {
	TimeSlot string `json:"time_slot"`
	Location string `json:"location"`
}

// NewPatient carries the fields required to register a patient.
type NewPatient struct {
	FirstName        string
	LastName         string
	DateOfBirth      string
	Phone            string
	Email            string
	Address          string
	InsuranceCarrier string
	MemberID         string
	GroupNumber      string
}

// BookingRequest carries everything needed to book one appointment.
type BookingRequest struct {
	PatientID        string
	DoctorName       string
	Date             string
	Time             string
	DurationMinutes  int
	InsuranceCarrier string
	MemberID         string
	GroupNumber      string
}

// ReportColumns is the fixed column order of the administrative export.
var ReportColumns = []string{
	"appointment_id", "appointment_date", "appointment_time", "duration",
	"doctor_name", "specialty", "location", "patient_id", "first_name",
	"last_name", "phone", "email", "status", "insurance_carrier",
	"member_id", "group_number", "created_date", "reminder_sent_1",
	"reminder_sent_2", "reminder_sent_3", "intake_form_sent",
}
