package clinic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterMatchFullName(t *testing.T) {
	roster := DefaultRoster()

	doc := roster.Match("I'd like to see dr. sarah johnson please")
	require.NotNil(t, doc)
	assert.Equal(t, "Dr. Sarah Johnson", doc.Name)
}

func TestRosterMatchSingleWord(t *testing.T) {
	roster := DefaultRoster()

	tests := []struct {
		input string
		want  string
	}{
		{"chen", "Dr. Michael Chen"},
		{"Emily would be great", "Dr. Emily Rodriguez"},
		{"rodriguez", "Dr. Emily Rodriguez"},
		{"thompson works for me", "Dr. David Thompson"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			doc := roster.Match(tt.input)
			require.NotNil(t, doc)
			assert.Equal(t, tt.want, doc.Name)
		})
	}
}

func TestRosterMatchMiss(t *testing.T) {
	roster := DefaultRoster()

	assert.Nil(t, roster.Match("dr. house"))
	assert.Nil(t, roster.Match(""))
	// "dr" alone is not a meaningful match
	assert.Nil(t, roster.Match("any dr is fine"))
}

func TestRosterGet(t *testing.T) {
	roster := DefaultRoster()

	doc := roster.Get("dr. michael chen")
	require.NotNil(t, doc)
	assert.Equal(t, "Orthopedics", doc.Specialty)
	assert.Nil(t, roster.Get("Dr. Nobody"))
}

func TestWorksOn(t *testing.T) {
	roster := DefaultRoster()

	chen := roster.Get("Dr. Michael Chen")
	require.NotNil(t, chen)
	assert.True(t, chen.WorksOn(time.Monday))
	assert.False(t, chen.WorksOn(time.Wednesday))
	assert.False(t, chen.WorksOn(time.Saturday))

	johnson := roster.Get("Dr. Sarah Johnson")
	require.NotNil(t, johnson)
	assert.True(t, johnson.WorksOn(time.Friday))
	assert.False(t, johnson.WorksOn(time.Sunday))
}

func TestDurationFor(t *testing.T) {
	assert.Equal(t, 60, DurationFor(true))
	assert.Equal(t, 30, DurationFor(false))
}
