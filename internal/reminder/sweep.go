// Package reminder sends staged appointment reminders on a schedule.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/healthfirst/scheduling-assistant/internal/observability/metrics"
	"github.com/healthfirst/scheduling-assistant/internal/store"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// Stage schedule: reminder 1 goes out 3 days before the visit,
// reminder 2 the day before, reminder 3 within 2 hours of the start.
const (
	firstReminderDays  = 3
	secondReminderDays = 1
	finalReminderHours = 2.0
)

// ReminderSender delivers one staged reminder over both channels.
type ReminderSender interface {
	SendReminder(ctx context.Context, appt *store.Appointment, patient *store.Patient, reminderNumber int) (emailOK, smsOK bool)
}

// Sweep periodically scans upcoming appointments and dispatches the
// reminders whose stage is due and whose sent-flag is still clear. The
// flag is only advanced when at least one channel delivered, so a fully
// failed send is retried on the next pass.
type Sweep struct {
	store      store.Store
	sender     ReminderSender
	logger     *logging.Logger
	metrics    *metrics.SchedulingMetrics
	interval   time.Duration
	windowDays int
	now        func() time.Time
}

// NewSweep wires a reminder sweep. metrics may be nil.
func NewSweep(st store.Store, sender ReminderSender, logger *logging.Logger, m *metrics.SchedulingMetrics) *Sweep {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweep{
		store:      st,
		sender:     sender,
		logger:     logger,
		metrics:    m,
		interval:   15 * time.Minute,
		windowDays: 7,
		now:        time.Now,
	}
}

func (s *Sweep) WithInterval(d time.Duration) *Sweep {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Sweep) WithWindowDays(n int) *Sweep {
	if n > 0 {
		s.windowDays = n
	}
	return s
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *Sweep) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single reminder pass. Errors on individual
// appointments are logged and never stop the pass.
func (s *Sweep) SweepOnce(ctx context.Context) {
	appts, err := s.store.GetUpcomingAppointments(ctx, s.windowDays)
	if err != nil {
		s.logger.Error("reminder sweep fetch failed", "error", err)
		return
	}

	for i := range appts {
		appt := &appts[i]
		number, stage, due := s.dueStage(appt)
		if !due {
			continue
		}

		patient, err := s.store.GetPatient(ctx, appt.PatientID)
		if err != nil {
			s.logger.Warn("reminder sweep: patient lookup failed",
				"appointment_id", appt.AppointmentID, "patient_id", appt.PatientID, "error", err)
			continue
		}

		emailOK, smsOK := s.sender.SendReminder(ctx, appt, patient, number)
		delivered := emailOK || smsOK
		s.metrics.ObserveReminder(stage, delivered)
		if !delivered {
			s.logger.Error("reminder delivery failed on both channels",
				"appointment_id", appt.AppointmentID, "stage", stage)
			continue
		}

		if _, err := s.store.UpdateReminderStatus(ctx, appt.AppointmentID, number); err != nil {
			s.logger.Error("reminder flag update failed",
				"appointment_id", appt.AppointmentID, "reminder_number", number, "error", err)
			continue
		}
		s.logger.Info("reminder sent",
			"appointment_id", appt.AppointmentID, "stage", stage,
			"email_ok", emailOK, "sms_ok", smsOK)
	}
}

// dueStage decides which reminder, if any, this appointment needs right
// now. Stages are mutually exclusive per pass.
func (s *Sweep) dueStage(appt *store.Appointment) (int, string, bool) {
	now := s.now()
	apptDate, err := time.ParseInLocation(time.DateOnly, appt.Date, now.Location())
	if err != nil {
		s.logger.Warn("reminder sweep: bad appointment date",
			"appointment_id", appt.AppointmentID, "date", appt.Date, "error", err)
		return 0, "", false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	daysUntil := int(apptDate.Sub(today).Hours() / 24)

	switch {
	case daysUntil == firstReminderDays && !appt.ReminderSent1:
		return 1, "3_days", true
	case daysUntil == secondReminderDays && !appt.ReminderSent2:
		return 2, "1_day", true
	case daysUntil == 0 && !appt.ReminderSent3:
		start, err := time.Parse("15:04", appt.Time)
		if err != nil {
			s.logger.Warn("reminder sweep: bad appointment time",
				"appointment_id", appt.AppointmentID, "time", appt.Time, "error", err)
			return 0, "", false
		}
		startAt := time.Date(now.Year(), now.Month(), now.Day(), start.Hour(), start.Minute(), 0, 0, now.Location())
		hoursUntil := startAt.Sub(now).Hours()
		if hoursUntil >= 0 && hoursUntil <= finalReminderHours {
			return 3, "2_hours", true
		}
	}
	return 0, "", false
}

// String describes the sweep configuration for startup logs.
func (s *Sweep) String() string {
	return fmt.Sprintf("reminder sweep (interval %s, window %dd)", s.interval, s.windowDays)
}
