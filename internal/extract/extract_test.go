package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		input string
		first string
		last  string
		ok    bool
	}{
		{"My name is John Smith", "John", "Smith", true},
		{"I'm jane doe", "Jane", "Doe", true},
		{"i am Carlos Ruiz and I need an appointment", "Carlos", "Ruiz", true},
		{"John Smith", "John", "Smith", true},
		{"my name is John Smith", "John", "Smith", true},
		{"hello there friend", "", "", false},
		{"John", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			first, last, ok := Name(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"05/15/1985", "1985-05-15", true},
		{"5-15-1985", "1985-05-15", true},
		{"1985-05-15", "1985-05-15", true},
		{"06/03/30", "2030-06-03", true},
		{"born on 12/31/1999 I believe", "1999-12-31", true},
		{"13/45/1985", "", false}, // impossible calendar date
		{"next tuesday", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Date(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	// Valid MM/DD/YYYY inputs normalize to the same calendar date.
	inputs := map[string]string{
		"01/02/2026": "2026-01-02",
		"11/30/2027": "2027-11-30",
		"02/29/2028": "2028-02-29",
	}
	for input, want := range inputs {
		got, ok := Date(input)
		require.True(t, ok, input)
		parsed, err := time.Parse(time.DateOnly, got)
		require.NoError(t, err)
		assert.Equal(t, want, parsed.Format(time.DateOnly))
	}
}

func TestIsPastDate(t *testing.T) {
	now := time.Date(2026, 8, 31, 13, 45, 0, 0, time.UTC)

	assert.True(t, IsPastDate("2026-08-30", now))
	assert.False(t, IsPastDate("2026-08-31", now)) // same day is not past
	assert.False(t, IsPastDate("2026-09-01", now))
	assert.False(t, IsPastDate("garbage", now))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"555-123-4567", "+1-555-123-4567", true},
		{"555.123.4567", "+1-555-123-4567", true},
		{"5551234567", "+1-555-123-4567", true},
		{"call me at 555-123-4567 thanks", "+1-555-123-4567", true},
		{"12345", "", false},
		{"555-12-34567", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Phone(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmail(t *testing.T) {
	got, ok := Email("reach me at John.Smith+clinic@Email.example.com please")
	require.True(t, ok)
	// Case preserved as typed.
	assert.Equal(t, "John.Smith+clinic@Email.example.com", got)

	_, ok = Email("no email here")
	assert.False(t, ok)
}

func TestEarliestRequested(t *testing.T) {
	assert.True(t, EarliestRequested("earliest available please"))
	assert.True(t, EarliestRequested("the SOONEST you have"))
	assert.False(t, EarliestRequested("06/03/2030"))
}

func TestSlotChoice(t *testing.T) {
	slots := []string{"09:00", "09:30", "15:30"}

	idx, ok := SlotChoice("2", slots)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	// Literal time substring.
	idx, ok = SlotChoice("15:30 works for me", slots)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	// Ordinal wins when both could match.
	idx, ok = SlotChoice("1", slots)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	// Out-of-range ordinal with no substring match is a miss.
	_, ok = SlotChoice("2", []string{"09:00"})
	assert.False(t, ok)

	_, ok = SlotChoice("whenever", slots)
	assert.False(t, ok)
}
