package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthfirst/scheduling-assistant/internal/clinic"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// Gateway sends appointment lifecycle messages. Email and SMS are
// independent channels: one failing never blocks the other, and
// delivery results are reported per channel, never as an error.
type Gateway struct {
	email         EmailSender
	sms           SMSSender
	clinic        clinic.Info
	intakeFormURL string
	logger        *logging.Logger
}

// NewGateway wires a notification gateway. Nil senders disable their
// channel.
func NewGateway(email EmailSender, sms SMSSender, info clinic.Info, intakeFormURL string, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{
		email:         email,
		sms:           sms,
		clinic:        info,
		intakeFormURL: intakeFormURL,
		logger:        logger,
	}
}

// SendConfirmation emails and texts the booking confirmation.
func (g *Gateway) SendConfirmation(ctx context.Context, appt *store.Appointment, patient *store.Patient) (emailOK, smsOK bool) {
	subject := fmt.Sprintf("Appointment Confirmation - %s", g.clinic.Name)

	body := fmt.Sprintf(`Dear %s %s,

Your appointment has been confirmed with the following details:

Doctor: %s
Date: %s
Time: %s
Duration: %d minutes
Location: %s

Important reminders:
- Please arrive 15 minutes before your appointment time
- Bring your insurance card and photo ID
- Complete any pre-appointment forms sent to your email

If you need to reschedule or cancel your appointment, please call us at %s at least 24 hours in advance.

We look forward to seeing you!

Best regards,
%s
%s
%s`,
		patient.FirstName, patient.LastName,
		appt.DoctorName, appt.Date, appt.Time, appt.DurationMinutes, g.clinic.Address,
		g.clinic.Phone, g.clinic.Name, g.clinic.Phone, g.clinic.Email)

	html := fmt.Sprintf(`<html><body>
<h2>Appointment Confirmation</h2>
<p>Dear %s %s,</p>
<p>Your appointment has been confirmed with the following details:</p>
<table style="border-collapse: collapse; width: 100%%;">
%s%s%s%s%s</table>
<p><strong>Important Reminders:</strong></p>
<ul>
<li>Please arrive 15 minutes before your appointment time</li>
<li>Bring your insurance card and photo ID</li>
<li>Complete any pre-appointment forms sent to your email</li>
</ul>
<p>If you need to reschedule or cancel your appointment, please call us at %s at least 24 hours in advance.</p>
<p>We look forward to seeing you!</p>
%s</body></html>`,
		patient.FirstName, patient.LastName,
		detailRow("Doctor", appt.DoctorName),
		detailRow("Date", appt.Date),
		detailRow("Time", appt.Time),
		detailRow("Duration", fmt.Sprintf("%d minutes", appt.DurationMinutes)),
		detailRow("Location", g.clinic.Address),
		g.clinic.Phone, g.signatureHTML())

	smsBody := fmt.Sprintf("%s - Appointment Confirmed\n%s\n%s at %s\nDuration: %d min\nLocation: %s\nCall %s for changes",
		g.clinic.Name, appt.DoctorName, appt.Date, appt.Time, appt.DurationMinutes, g.clinic.Address, g.clinic.Phone)

	emailOK = g.sendEmail(ctx, patient, EmailMessage{Subject: subject, Body: body, HTML: html})
	smsOK = g.sendSMS(ctx, patient, smsBody)
	return emailOK, smsOK
}

// SendIntakeForm emails the pre-appointment intake form link.
// Email only; there is no SMS channel for forms.
func (g *Gateway) SendIntakeForm(ctx context.Context, appt *store.Appointment, patient *store.Patient) bool {
	subject := fmt.Sprintf("Pre-Appointment Forms - %s", g.clinic.Name)

	body := fmt.Sprintf(`Dear %s %s,

Please complete the intake form before your appointment on %s at %s:

%s

Instructions:
1. Open the form link above
2. Fill out all required information
3. Submit the form before your visit

Completing this form in advance will help us serve you more efficiently.

If you have any questions, please contact us at %s.

Thank you!

Best regards,
%s
%s
%s`,
		patient.FirstName, patient.LastName,
		appt.Date, appt.Time, g.intakeFormURL, g.clinic.Phone,
		g.clinic.Name, g.clinic.Phone, g.clinic.Email)

	html := fmt.Sprintf(`<html><body>
<h2>Pre-Appointment Forms</h2>
<p>Dear %s %s,</p>
<p>Please complete the <a href="%s">intake form</a> before your appointment on %s at %s.</p>
<p><strong>Instructions:</strong></p>
<ol>
<li>Open the form link above</li>
<li>Fill out all required information</li>
<li>Submit the form before your visit</li>
</ol>
<p>Completing this form in advance will help us serve you more efficiently.</p>
<p>If you have any questions, please contact us at %s.</p>
<p>Thank you!</p>
%s</body></html>`,
		patient.FirstName, patient.LastName, g.intakeFormURL,
		appt.Date, appt.Time, g.clinic.Phone, g.signatureHTML())

	return g.sendEmail(ctx, patient, EmailMessage{Subject: subject, Body: body, HTML: html})
}

// SendReminder sends the staged reminder for reminderNumber 1..3
// (3 days, 1 day and 2 hours before the visit).
func (g *Gateway) SendReminder(ctx context.Context, appt *store.Appointment, patient *store.Patient, reminderNumber int) (emailOK, smsOK bool) {
	var subject, heading, lead, followup, smsBody string

	switch reminderNumber {
	case 1:
		subject = fmt.Sprintf("Appointment Reminder - %s", g.clinic.Name)
		heading = "Appointment Reminder"
		lead = "This is a friendly reminder of your upcoming appointment:"
		followup = fmt.Sprintf("<p>Please ensure you have completed your pre-appointment forms.</p><p>Call %s if you need to reschedule.</p>", g.clinic.Phone)
		smsBody = fmt.Sprintf("%s - Appointment Reminder\n%s at %s\n%s\nPlease complete forms before visit",
			g.clinic.Name, appt.Date, appt.Time, appt.DoctorName)
	case 2:
		subject = fmt.Sprintf("Final Appointment Reminder - %s", g.clinic.Name)
		heading = "Final Appointment Reminder"
		lead = "Your appointment is tomorrow:"
		followup = fmt.Sprintf("<p><strong>Important:</strong> Have you completed your intake forms?</p><p>Please confirm your appointment by replying to this email or calling %s.</p>", g.clinic.Phone)
		smsBody = fmt.Sprintf("%s - Final Reminder\nTomorrow: %s at %s\nHave you completed your forms?\nReply YES to confirm or call %s",
			g.clinic.Name, appt.Date, appt.Time, g.clinic.Phone)
	case 3:
		subject = fmt.Sprintf("Appointment Today - %s", g.clinic.Name)
		heading = "Appointment Today"
		lead = "Your appointment is in 2 hours:"
		followup = fmt.Sprintf("<p><strong>Please confirm:</strong> Are you still planning to attend?</p><p>If you need to cancel or reschedule, please call %s immediately.</p>", g.clinic.Phone)
		smsBody = fmt.Sprintf("%s - Appointment in 2 hours\n%s with %s\nPlease confirm attendance\nCall %s for changes",
			g.clinic.Name, appt.Time, appt.DoctorName, g.clinic.Phone)
	default:
		g.logger.Error("unknown reminder number", "appointment_id", appt.AppointmentID, "reminder_number", reminderNumber)
		return false, false
	}

	body := fmt.Sprintf(`Dear %s %s,

%s

Doctor: %s
Date: %s
Time: %s

Call %s if you need to reschedule.

Best regards,
%s`,
		patient.FirstName, patient.LastName, lead,
		appt.DoctorName, appt.Date, appt.Time, g.clinic.Phone, g.clinic.Name)

	html := fmt.Sprintf(`<html><body>
<h2>%s</h2>
<p>Dear %s %s,</p>
<p>%s</p>
<table style="border-collapse: collapse; width: 100%%;">
%s%s%s</table>
%s
<p>Best regards,<br>%s</p>
</body></html>`,
		heading, patient.FirstName, patient.LastName, lead,
		detailRow("Doctor", appt.DoctorName),
		detailRow("Date", appt.Date),
		detailRow("Time", appt.Time),
		followup, g.clinic.Name)

	emailOK = g.sendEmail(ctx, patient, EmailMessage{Subject: subject, Body: body, HTML: html})
	smsOK = g.sendSMS(ctx, patient, smsBody)
	return emailOK, smsOK
}

// SendCancellationNotice tells the patient their appointment was
// cancelled. reason may be empty.
func (g *Gateway) SendCancellationNotice(ctx context.Context, appt *store.Appointment, patient *store.Patient, reason string) (emailOK, smsOK bool) {
	subject := fmt.Sprintf("Appointment Cancelled - %s", g.clinic.Name)

	reasonText := ""
	reasonHTML := ""
	if reason != "" {
		reasonText = fmt.Sprintf("\nReason: %s\n", reason)
		reasonHTML = fmt.Sprintf("<p><strong>Reason:</strong> %s</p>", reason)
	}

	body := fmt.Sprintf(`Dear %s %s,

Your appointment has been cancelled:

Doctor: %s
Date: %s
Time: %s
%s
To reschedule, please call %s or reply to this email.

We apologize for any inconvenience.

Best regards,
%s
%s
%s`,
		patient.FirstName, patient.LastName,
		appt.DoctorName, appt.Date, appt.Time, reasonText,
		g.clinic.Phone, g.clinic.Name, g.clinic.Phone, g.clinic.Email)

	html := fmt.Sprintf(`<html><body>
<h2>Appointment Cancellation</h2>
<p>Dear %s %s,</p>
<p>Your appointment has been cancelled:</p>
<table style="border-collapse: collapse; width: 100%%;">
%s%s%s</table>
%s
<p>To reschedule, please call %s or reply to this email.</p>
<p>We apologize for any inconvenience.</p>
%s</body></html>`,
		patient.FirstName, patient.LastName,
		detailRow("Doctor", appt.DoctorName),
		detailRow("Date", appt.Date),
		detailRow("Time", appt.Time),
		reasonHTML, g.clinic.Phone, g.signatureHTML())

	smsBody := fmt.Sprintf("%s - Appointment Cancelled\n%s at %s\nCall %s to reschedule",
		g.clinic.Name, appt.Date, appt.Time, g.clinic.Phone)

	emailOK = g.sendEmail(ctx, patient, EmailMessage{Subject: subject, Body: body, HTML: html})
	smsOK = g.sendSMS(ctx, patient, smsBody)
	return emailOK, smsOK
}

func (g *Gateway) sendEmail(ctx context.Context, patient *store.Patient, msg EmailMessage) bool {
	if g.email == nil || patient.Email == "" {
		return false
	}
	msg.To = patient.Email
	msg.ToName = strings.TrimSpace(patient.FirstName + " " + patient.LastName)
	if err := g.email.Send(ctx, msg); err != nil {
		g.logger.Error("email delivery failed", "to", patient.Email, "subject", msg.Subject, "error", err)
		return false
	}
	return true
}

func (g *Gateway) sendSMS(ctx context.Context, patient *store.Patient, body string) bool {
	if g.sms == nil || patient.Phone == "" {
		return false
	}
	if err := g.sms.SendSMS(ctx, patient.Phone, body); err != nil {
		g.logger.Error("sms delivery failed", "to", patient.Phone, "error", err)
		return false
	}
	return true
}

func (g *Gateway) signatureHTML() string {
	return fmt.Sprintf("<p>Best regards,<br>%s<br>%s<br>%s</p>", g.clinic.Name, g.clinic.Phone, g.clinic.Email)
}

func detailRow(label, value string) string {
	return fmt.Sprintf(`<tr><td style="padding: 8px; border: 1px solid #ddd;"><strong>%s:</strong></td><td style="padding: 8px; border: 1px solid #ddd;">%s</td></tr>`+"\n", label, value)
}
