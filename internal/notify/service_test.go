package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthfirst/scheduling-assistant/internal/clinic"
	"github.com/healthfirst/scheduling-assistant/internal/store"
)

type fakeEmailSender struct {
	sent []EmailMessage
	err  error
}

func (f *fakeEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMSSender struct {
	sent []string
	to   []string
	err  error
}

func (f *fakeSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, body)
	return nil
}

var testClinic = clinic.Info{
	Name:    "HealthFirst Medical Center",
	Address: "123 Medical Drive, Healthcare City, HC 12345",
	Phone:   "+1-555-123-4567",
	Email:   "appointments@healthfirst.com",
}

func testAppointment() *store.Appointment {
	return &store.Appointment{
		AppointmentID:   "A0001",
		PatientID:       "P0001",
		DoctorName:      "Dr. Sarah Johnson",
		Date:            "2030-06-10",
		Time:            "09:00",
		DurationMinutes: 60,
		Status:          store.StatusConfirmed,
	}
}

func testPatient() *store.Patient {
	return &store.Patient{
		PatientID: "P0001",
		FirstName: "John",
		LastName:  "Smith",
		Phone:     "+1-555-987-6543",
		Email:     "john.smith@email.com",
	}
}

func TestSendConfirmationBothChannels(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	g := NewGateway(email, sms, testClinic, "https://forms.healthfirst.com/intake", nil)

	emailOK, smsOK := g.SendConfirmation(context.Background(), testAppointment(), testPatient())
	assert.True(t, emailOK)
	assert.True(t, smsOK)

	if assert.Len(t, email.sent, 1) {
		msg := email.sent[0]
		assert.Equal(t, "john.smith@email.com", msg.To)
		assert.Equal(t, "John Smith", msg.ToName)
		assert.Equal(t, "Appointment Confirmation - HealthFirst Medical Center", msg.Subject)
		assert.Contains(t, msg.Body, "Dr. Sarah Johnson")
		assert.Contains(t, msg.Body, "2030-06-10")
		assert.Contains(t, msg.Body, "60 minutes")
		assert.Contains(t, msg.HTML, "<strong>Doctor:</strong>")
	}
	if assert.Len(t, sms.sent, 1) {
		assert.Equal(t, "+1-555-987-6543", sms.to[0])
		assert.Contains(t, sms.sent[0], "Appointment Confirmed")
		assert.Contains(t, sms.sent[0], "09:00")
	}
}

func TestChannelFailuresAreIndependent(t *testing.T) {
	t.Run("email fails", func(t *testing.T) {
		g := NewGateway(&fakeEmailSender{err: errors.New("boom")}, &fakeSMSSender{}, testClinic, "", nil)
		emailOK, smsOK := g.SendConfirmation(context.Background(), testAppointment(), testPatient())
		assert.False(t, emailOK)
		assert.True(t, smsOK)
	})

	t.Run("sms fails", func(t *testing.T) {
		g := NewGateway(&fakeEmailSender{}, &fakeSMSSender{err: errors.New("boom")}, testClinic, "", nil)
		emailOK, smsOK := g.SendConfirmation(context.Background(), testAppointment(), testPatient())
		assert.True(t, emailOK)
		assert.False(t, smsOK)
	})

	t.Run("nil senders", func(t *testing.T) {
		g := NewGateway(nil, nil, testClinic, "", nil)
		emailOK, smsOK := g.SendConfirmation(context.Background(), testAppointment(), testPatient())
		assert.False(t, emailOK)
		assert.False(t, smsOK)
	})
}

func TestSendConfirmationMissingContactDetails(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	g := NewGateway(email, sms, testClinic, "", nil)

	patient := testPatient()
	patient.Email = ""
	emailOK, smsOK := g.SendConfirmation(context.Background(), testAppointment(), patient)
	assert.False(t, emailOK)
	assert.True(t, smsOK)
	assert.Empty(t, email.sent)
}

func TestSendIntakeFormEmailOnly(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	g := NewGateway(email, sms, testClinic, "https://forms.healthfirst.com/intake", nil)

	ok := g.SendIntakeForm(context.Background(), testAppointment(), testPatient())
	assert.True(t, ok)
	assert.Empty(t, sms.sent)

	if assert.Len(t, email.sent, 1) {
		msg := email.sent[0]
		assert.Equal(t, "Pre-Appointment Forms - HealthFirst Medical Center", msg.Subject)
		assert.Contains(t, msg.Body, "https://forms.healthfirst.com/intake")
		assert.Contains(t, msg.HTML, `href="https://forms.healthfirst.com/intake"`)
	}
}

func TestSendReminderStages(t *testing.T) {
	tests := []struct {
		number  int
		subject string
		smsPart string
	}{
		{1, "Appointment Reminder - HealthFirst Medical Center", "Appointment Reminder"},
		{2, "Final Appointment Reminder - HealthFirst Medical Center", "Final Reminder"},
		{3, "Appointment Today - HealthFirst Medical Center", "Appointment in 2 hours"},
	}

	for _, tt := range tests {
		email := &fakeEmailSender{}
		sms := &fakeSMSSender{}
		g := NewGateway(email, sms, testClinic, "", nil)

		emailOK, smsOK := g.SendReminder(context.Background(), testAppointment(), testPatient(), tt.number)
		assert.True(t, emailOK, "reminder %d", tt.number)
		assert.True(t, smsOK, "reminder %d", tt.number)
		assert.Equal(t, tt.subject, email.sent[0].Subject)
		assert.Contains(t, sms.sent[0], tt.smsPart)
	}
}

func TestSendReminderUnknownNumber(t *testing.T) {
	email := &fakeEmailSender{}
	g := NewGateway(email, &fakeSMSSender{}, testClinic, "", nil)

	emailOK, smsOK := g.SendReminder(context.Background(), testAppointment(), testPatient(), 4)
	assert.False(t, emailOK)
	assert.False(t, smsOK)
	assert.Empty(t, email.sent)
}

func TestSendCancellationNotice(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	g := NewGateway(email, sms, testClinic, "", nil)

	emailOK, smsOK := g.SendCancellationNotice(context.Background(), testAppointment(), testPatient(), "doctor unavailable")
	assert.True(t, emailOK)
	assert.True(t, smsOK)
	assert.Equal(t, "Appointment Cancelled - HealthFirst Medical Center", email.sent[0].Subject)
	assert.Contains(t, email.sent[0].Body, "Reason: doctor unavailable")
	assert.Contains(t, sms.sent[0], "Call +1-555-123-4567 to reschedule")
}

func TestSendCancellationNoticeWithoutReason(t *testing.T) {
	email := &fakeEmailSender{}
	g := NewGateway(email, &fakeSMSSender{}, testClinic, "", nil)

	g.SendCancellationNotice(context.Background(), testAppointment(), testPatient(), "")
	assert.NotContains(t, email.sent[0].Body, "Reason:")
}
