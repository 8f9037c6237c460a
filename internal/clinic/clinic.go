// Package clinic provides clinic-specific configuration and business logic.
package clinic

import (
	"strings"
	"time"
)

// Appointment durations in minutes, fixed policy applied at booking time.
const (
	NewPatientDurationMinutes       = 60
	ReturningPatientDurationMinutes = 30
)

// Info identifies the clinic in outbound messages.
type Info struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Doctor is a member of the scheduling roster. AvailableDays drives
// schedule generation only; booking checks the schedule itself.
type Doctor struct {
	Name          string         `json:"name"`
	Specialty     string         `json:"specialty"`
	Location      string         `json:"location"`
	AvailableDays []time.Weekday `json:"-"`
}

// WorksOn reports whether the doctor sees patients on the given weekday.
func (d *Doctor) WorksOn(day time.Weekday) bool {
	for _, w := range d.AvailableDays {
		if w == day {
			return true
		}
	}
	return false
}

// Roster is the ordered list of doctors patients can book with.
type Roster []Doctor

// DefaultRoster returns the clinic's doctor lineup.
func DefaultRoster() Roster {
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	return Roster{
		{Name: "Dr. Sarah Johnson", Specialty: "Cardiology", Location: "Main Campus",
			AvailableDays: weekdays},
		{Name: "Dr. Michael Chen", Specialty: "Orthopedics", Location: "Main Campus",
			AvailableDays: []time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Friday}},
		{Name: "Dr. Emily Rodriguez", Specialty: "Pediatrics", Location: "Pediatric Wing",
			AvailableDays: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{Name: "Dr. David Thompson", Specialty: "Neurology", Location: "Main Campus",
			AvailableDays: []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday}},
	}
}

// Match resolves free text against the roster. The full name is tried as
// a substring first; multi-word names then fall back to any constituent
// word so "rodriguez" or "emily" still resolve. Returns nil when nothing
// matches.
func (r Roster) Match(text string) *Doctor {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}

	for i := range r {
		if strings.Contains(needle, strings.ToLower(r[i].Name)) {
			return &r[i]
		}
	}

	for i := range r {
		words := strings.Fields(strings.ToLower(r[i].Name))
		if len(words) < 2 {
			continue
		}
		for _, word := range words {
			if word == "dr." || word == "dr" {
				continue
			}
			if strings.Contains(needle, word) {
				return &r[i]
			}
		}
	}

	return nil
}

// Get returns the roster entry for an exact doctor name.
func (r Roster) Get(name string) *Doctor {
	for i := range r {
		if strings.EqualFold(r[i].Name, name) {
			return &r[i]
		}
	}
	return nil
}

// DurationFor returns the visit length policy for a patient type.
func DurationFor(isNewPatient bool) int {
	if isNewPatient {
		return NewPatientDurationMinutes
	}
	return ReturningPatientDurationMinutes
}
