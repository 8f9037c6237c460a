package dialogue

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/healthfirst/scheduling-assistant/internal/clinic"
	"github.com/healthfirst/scheduling-assistant/internal/extract"
	"github.com/healthfirst/scheduling-assistant/internal/observability/metrics"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// earliestScanDays caps the forward scan for "earliest available".
const earliestScanDays = 30

// Notifier sends the post-booking messages. Delivery failures are
// reported per channel and never fail the booking.
type Notifier interface {
	SendConfirmation(ctx context.Context, appt *store.Appointment, patient *store.Patient) (emailOK, smsOK bool)
	SendIntakeForm(ctx context.Context, appt *store.Appointment, patient *store.Patient) bool
}

// Machine advances a conversation one message at a time. Each call
// handles exactly one inbound message for one conversation; the caller
// serializes messages per conversation.
type Machine struct {
	store    store.Store
	roster   clinic.Roster
	notifier Notifier
	clinic   clinic.Info
	logger   *logging.Logger
	metrics  *metrics.SchedulingMetrics
	now      func() time.Time
}

// NewMachine wires a dialogue machine. notifier and metrics may be nil.
func NewMachine(st store.Store, roster clinic.Roster, notifier Notifier, info clinic.Info, logger *logging.Logger, m *metrics.SchedulingMetrics) *Machine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{
		store:    st,
		roster:   roster,
		notifier: notifier,
		clinic:   info,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// ProcessMessage handles one user message and returns the assistant's
// reply. Handler panics and store errors never escape; they come back
// as an apology string and the conversation stays usable.
func (m *Machine) ProcessMessage(ctx context.Context, conv *Conversation, message string) (response string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("dialogue handler panicked",
				"conversation_id", conv.ID,
				"state", string(conv.State),
				"panic", fmt.Sprint(r))
			response = "I encountered an error. Please try again."
		}
	}()

	m.metrics.ObserveMessage(string(conv.State))
	message = strings.TrimSpace(message)

	switch conv.State {
	case StateGreeting:
		// The client shows Greeting() before the first user message, so
		// that message already carries patient details and is handled,
		// not answered with another prompt.
		conv.State = StateCollectingPatientInfo
		return m.handlePatientInfo(ctx, conv, message)
	case StateCollectingPatientInfo:
		return m.handlePatientInfo(ctx, conv, message)
	case StateSelectDoctor:
		return m.handleDoctorSelection(conv, message)
	case StateSelectDate:
		return m.handleDateSelection(ctx, conv, message)
	case StateSelectTime:
		return m.handleTimeSelection(conv, message)
	case StateCollectInsurance:
		return m.handleInsuranceCollection(ctx, conv, message)
	case StateConfirmation:
		return m.handleConfirmation(ctx, conv)
	default:
		m.logger.Warn("unknown conversation state", "conversation_id", conv.ID, "state", string(conv.State))
		return "I'm sorry, I didn't understand that. Let me start over."
	}
}

// Greeting returns the onboarding prompt a client shows before the
// patient's first message.
func (m *Machine) Greeting() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello! Welcome to %s. I'm your scheduling assistant.\n\n", m.clinic.Name)
	b.WriteString("I can help you schedule an appointment with one of our doctors. To get started, I'll need some basic information.\n\n")
	b.WriteString("Could you please provide:\n")
	b.WriteString("1. Your first name\n")
	b.WriteString("2. Your last name\n")
	b.WriteString("3. Your date of birth (MM/DD/YYYY format)\n")
	b.WriteString("4. Your phone number\n")
	b.WriteString("5. Your email address\n\n")
	b.WriteString("Once I have this information, I can check if you're an existing patient or help you register as a new patient.")
	return b.String()
}

func (m *Machine) handlePatientInfo(ctx context.Context, conv *Conversation, message string) string {
	p := &conv.Patient
	if first, last, ok := extract.Name(message); ok {
		p.FirstName = first
		p.LastName = last
	}
	if dob, ok := extract.Date(message); ok {
		p.DateOfBirth = dob
	}
	if phone, ok := extract.Phone(message); ok {
		p.Phone = phone
	}
	if email, ok := extract.Email(message); ok {
		p.Email = email
	}

	fields := []struct {
		label string
		value string
	}{
		{"First Name", p.FirstName},
		{"Last Name", p.LastName},
		{"Date Of Birth", p.DateOfBirth},
		{"Phone", p.Phone},
		{"Email", p.Email},
	}

	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.label)
		}
	}
	if len(missing) > 0 {
		var b strings.Builder
		b.WriteString("I have the following information:\n")
		for _, f := range fields {
			if f.value != "" {
				fmt.Fprintf(&b, "✓ %s: %s\n", f.label, f.value)
			} else {
				fmt.Fprintf(&b, "✗ %s: Please provide\n", f.label)
			}
		}
		fmt.Fprintf(&b, "\nI still need: %s", strings.Join(missing, ", "))
		return b.String()
	}

	matches, err := m.store.FindPatient(ctx, p.FirstName, p.LastName)
	if err != nil {
		return m.apology(conv, "find patient", err)
	}

	var b strings.Builder
	if len(matches) > 0 {
		rec := matches[0]
		p.PatientID = rec.PatientID
		p.IsNewPatient = false
		p.InsuranceCarrier = rec.InsuranceCarrier
		p.MemberID = rec.MemberID
		p.GroupNumber = rec.GroupNumber
		fmt.Fprintf(&b, "Welcome back, %s! I found your existing record.\n\n", p.FirstName)
	} else {
		fmt.Fprintf(&b, "Thank you, %s! I don't see you in our system, so I'll register you as a new patient.\n\n", p.FirstName)
	}

	b.WriteString("Now I need to know which doctor you'd like to see. Here are our available doctors:\n")
	for _, doc := range m.roster {
		fmt.Fprintf(&b, "• %s - %s (%s)\n", doc.Name, doc.Specialty, doc.Location)
	}
	b.WriteString("\nWhich doctor would you prefer to see?")

	conv.State = StateSelectDoctor
	return b.String()
}

func (m *Machine) handleDoctorSelection(conv *Conversation, message string) string {
	doc := m.roster.Match(message)
	if doc == nil {
		var b strings.Builder
		b.WriteString("I didn't recognize that doctor's name. Please choose from our available doctors:\n")
		for _, d := range m.roster {
			fmt.Fprintf(&b, "• %s - %s\n", d.Name, d.Specialty)
		}
		return b.String()
	}

	conv.Appointment.DoctorName = doc.Name
	conv.State = StateSelectDate
	return fmt.Sprintf("Great choice! %s is a %s specialist.\n\nWhen would you like to schedule your appointment? Please provide a date (MM/DD/YYYY format) or you can say 'earliest available'.",
		doc.Name, doc.Specialty)
}

func (m *Machine) handleDateSelection(ctx context.Context, conv *Conversation, message string) string {
	if extract.EarliestRequested(message) {
		return m.handleEarliestAvailable(ctx, conv)
	}

	date, ok := extract.Date(message)
	if !ok {
		return "I didn't understand that date. Please provide a date in MM/DD/YYYY format or say 'earliest available'."
	}
	if extract.IsPastDate(date, m.now()) {
		return "That date is in the past. Please select a future date."
	}

	slots, err := m.store.GetAvailableSlots(ctx, conv.Appointment.DoctorName, date)
	if err != nil {
		return m.apology(conv, "list slots", err)
	}
	if len(slots) == 0 {
		return fmt.Sprintf("I'm sorry, but %s doesn't have any available slots on %s. Would you like to try a different date?",
			conv.Appointment.DoctorName, date)
	}

	conv.Appointment.Date = date
	m.offerSlots(conv, slots)
	return m.slotListResponse(conv, fmt.Sprintf("Great! I found available slots for %s.", date))
}

func (m *Machine) handleEarliestAvailable(ctx context.Context, conv *Conversation) string {
	today := m.now()
	for i := 0; i < earliestScanDays; i++ {
		date := today.AddDate(0, 0, i).Format(time.DateOnly)
		slots, err := m.store.GetAvailableSlots(ctx, conv.Appointment.DoctorName, date)
		if err != nil {
			return m.apology(conv, "list slots", err)
		}
		if len(slots) == 0 {
			continue
		}
		conv.Appointment.Date = date
		m.offerSlots(conv, slots)
		return m.slotListResponse(conv, fmt.Sprintf("The earliest availability for %s is %s.", conv.Appointment.DoctorName, date))
	}
	return fmt.Sprintf("I'm sorry, but %s doesn't have any available appointments in the next %d days.",
		conv.Appointment.DoctorName, earliestScanDays)
}

// offerSlots records the displayed slot list in chronological order.
// The store returns insertion order; display order is sorted here.
func (m *Machine) offerSlots(conv *Conversation, slots []store.AvailableSlot) {
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].TimeSlot < slots[j].TimeSlot })
	conv.AvailableSlots = slots
	conv.State = StateSelectTime
}

func (m *Machine) slotListResponse(conv *Conversation, lead string) string {
	var b strings.Builder
	b.WriteString(lead)
	fmt.Fprintf(&b, "\n\nHere are the available time slots for %s:\n\n", conv.Appointment.DoctorName)
	for i, slot := range conv.AvailableSlots {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, slot.TimeSlot, slot.Location)
	}
	b.WriteString("\nPlease select your preferred time slot by number or by time (e.g., '15:30').")
	return b.String()
}

func (m *Machine) handleTimeSelection(conv *Conversation, message string) string {
	times := make([]string, len(conv.AvailableSlots))
	for i, slot := range conv.AvailableSlots {
		times[i] = slot.TimeSlot
	}

	idx, ok := extract.SlotChoice(message, times)
	if !ok {
		return "I didn't understand your time selection. Please choose a number from the list or specify the time."
	}

	slot := conv.AvailableSlots[idx]
	conv.Appointment.Time = slot.TimeSlot
	conv.Appointment.Location = slot.Location
	conv.Appointment.DurationMinutes = clinic.DurationFor(conv.Patient.IsNewPatient)
	conv.State = StateCollectInsurance

	var b strings.Builder
	fmt.Fprintf(&b, "Perfect! I've selected %s for your appointment.\n\n", slot.TimeSlot)
	b.WriteString("Appointment Summary:\n")
	fmt.Fprintf(&b, "• Doctor: %s\n", conv.Appointment.DoctorName)
	fmt.Fprintf(&b, "• Date: %s\n", conv.Appointment.Date)
	fmt.Fprintf(&b, "• Time: %s\n", conv.Appointment.Time)
	fmt.Fprintf(&b, "• Duration: %d minutes\n", conv.Appointment.DurationMinutes)
	fmt.Fprintf(&b, "• Location: %s\n\n", conv.Appointment.Location)
	b.WriteString("Now I need to collect your insurance information. What is your insurance carrier?")
	return b.String()
}

func (m *Machine) handleInsuranceCollection(ctx context.Context, conv *Conversation, message string) string {
	ins := &conv.Insurance
	switch {
	case ins.Carrier == "":
		if message == "" {
			return "What is your insurance carrier?"
		}
		ins.Carrier = message
		return "Thank you! What is your member ID number?"
	case ins.MemberID == "":
		if message == "" {
			return "What is your member ID number?"
		}
		ins.MemberID = message
		return "Great! What is your group number?"
	case ins.GroupNumber == "":
		if message == "" {
			return "What is your group number?"
		}
		ins.GroupNumber = message
	}

	// All three answers are in; book now. Reaching here again after a
	// failed attempt retries the booking with the same draft.
	return m.book(ctx, conv)
}

func (m *Machine) book(ctx context.Context, conv *Conversation) string {
	if conv.Patient.PatientID == "" {
		patientID, err := m.store.AddPatient(ctx, store.NewPatient{
			FirstName:        conv.Patient.FirstName,
			LastName:         conv.Patient.LastName,
			DateOfBirth:      conv.Patient.DateOfBirth,
			Phone:            conv.Patient.Phone,
			Email:            conv.Patient.Email,
			InsuranceCarrier: conv.Insurance.Carrier,
			MemberID:         conv.Insurance.MemberID,
			GroupNumber:      conv.Insurance.GroupNumber,
		})
		if err != nil {
			m.metrics.ObserveBooking("failed")
			return m.bookingFailure(conv, err)
		}
		conv.Patient.PatientID = patientID
	}

	appointmentID, err := m.store.BookAppointment(ctx, store.BookingRequest{
		PatientID:        conv.Patient.PatientID,
		DoctorName:       conv.Appointment.DoctorName,
		Date:             conv.Appointment.Date,
		Time:             conv.Appointment.Time,
		DurationMinutes:  conv.Appointment.DurationMinutes,
		InsuranceCarrier: conv.Insurance.Carrier,
		MemberID:         conv.Insurance.MemberID,
		GroupNumber:      conv.Insurance.GroupNumber,
	})
	if err != nil {
		m.metrics.ObserveBooking("failed")
		return m.bookingFailure(conv, err)
	}

	conv.Appointment.AppointmentID = appointmentID
	conv.State = StateConfirmation
	m.metrics.ObserveBooking("booked")
	m.logger.Info("appointment booked",
		"conversation_id", conv.ID,
		"appointment_id", appointmentID,
		"patient_id", conv.Patient.PatientID,
		"doctor", conv.Appointment.DoctorName,
		"date", conv.Appointment.Date,
		"time", conv.Appointment.Time)

	m.dispatchBookingNotices(ctx, conv)

	var b strings.Builder
	b.WriteString("Excellent! I have all the information I need.\n\n")
	b.WriteString("✅ Your appointment has been successfully booked!\n\n")
	fmt.Fprintf(&b, "Appointment ID: %s\n", appointmentID)
	fmt.Fprintf(&b, "Doctor: %s\n", conv.Appointment.DoctorName)
	fmt.Fprintf(&b, "Date: %s\n", conv.Appointment.Date)
	fmt.Fprintf(&b, "Time: %s\n", conv.Appointment.Time)
	fmt.Fprintf(&b, "Duration: %d minutes\n", conv.Appointment.DurationMinutes)
	fmt.Fprintf(&b, "Location: %s\n\n", conv.Appointment.Location)
	b.WriteString("You'll receive a confirmation email with all the details and a pre-appointment intake form.\n\n")
	b.WriteString("Is there anything else I can help you with?")
	return b.String()
}

func (m *Machine) bookingFailure(conv *Conversation, err error) string {
	m.logger.Error("booking failed",
		"conversation_id", conv.ID,
		"doctor", conv.Appointment.DoctorName,
		"date", conv.Appointment.Date,
		"time", conv.Appointment.Time,
		"error", err)
	return fmt.Sprintf("I ran into a problem booking your appointment: %s. Please send any message to try again.", err)
}

func (m *Machine) handleConfirmation(ctx context.Context, conv *Conversation) string {
	m.dispatchBookingNotices(ctx, conv)
	return fmt.Sprintf("Thank you for choosing %s! Your appointment has been successfully scheduled. Please check your email for confirmation details and the intake form. Have a great day!", m.clinic.Name)
}

// dispatchBookingNotices sends the confirmation and intake-form
// messages at most once per conversation. Delivery failures are logged
// and never surfaced to the patient.
func (m *Machine) dispatchBookingNotices(ctx context.Context, conv *Conversation) {
	if m.notifier == nil || (conv.confirmationSent && conv.intakeFormSent) {
		return
	}

	appt, err := m.store.GetAppointment(ctx, conv.Appointment.AppointmentID)
	if err != nil {
		m.logger.Error("load appointment for notices", "appointment_id", conv.Appointment.AppointmentID, "error", err)
		return
	}
	patient, err := m.store.GetPatient(ctx, conv.Patient.PatientID)
	if err != nil {
		m.logger.Error("load patient for notices", "patient_id", conv.Patient.PatientID, "error", err)
		return
	}

	if !conv.confirmationSent {
		conv.confirmationSent = true
		emailOK, smsOK := m.notifier.SendConfirmation(ctx, appt, patient)
		m.metrics.ObserveNotification("confirmation", "email", emailOK)
		m.metrics.ObserveNotification("confirmation", "sms", smsOK)
		if !emailOK || !smsOK {
			m.logger.Warn("confirmation delivery incomplete",
				"appointment_id", appt.AppointmentID, "email_ok", emailOK, "sms_ok", smsOK)
		}
	}

	if !conv.intakeFormSent {
		conv.intakeFormSent = true
		ok := m.notifier.SendIntakeForm(ctx, appt, patient)
		m.metrics.ObserveNotification("intake_form", "email", ok)
		if ok {
			if _, err := m.store.MarkIntakeFormSent(ctx, appt.AppointmentID); err != nil {
				m.logger.Error("mark intake form sent", "appointment_id", appt.AppointmentID, "error", err)
			}
		}
	}
}

func (m *Machine) apology(conv *Conversation, op string, err error) string {
	m.logger.Error("store operation failed", "conversation_id", conv.ID, "op", op, "state", string(conv.State), "error", err)
	return fmt.Sprintf("I encountered an error: %s. Please try again.", err)
}
