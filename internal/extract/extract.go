// Package extract turns free-text patient messages into structured
// fields. Every matcher is tolerant: unrecognized input is a miss, never
// an error, and the caller decides how to re-prompt.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Name extraction is an ordered list of independent patterns tried in
// priority order; the first match wins. The bare two-word form comes
// last so introductions like "my name is John Smith" never bind "my name".
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmy name is ([a-z'-]+) ([a-z'-]+)`),
	regexp.MustCompile(`(?i)\bi'm ([a-z'-]+) ([a-z'-]+)`),
	regexp.MustCompile(`(?i)\bi am ([a-z'-]+) ([a-z'-]+)`),
	regexp.MustCompile(`(?i)^\s*([a-z'-]+) ([a-z'-]+)\s*$`),
}

// Name extracts a first/last name pair from text.
func Name(text string) (first, last string, ok bool) {
	for _, pat := range namePatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			return title(m[1]), title(m[2]), true
		}
	}
	return "", "", false
}

func title(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}

var datePatterns = []struct {
	re    *regexp.Regexp
	order string // group order: "mdy", "ymd", "mdy2"
}{
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`), "mdy"},
	{regexp.MustCompile(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`), "ymd"},
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2})\b`), "mdy2"},
}

// Date extracts a calendar date and normalizes it to YYYY-MM-DD.
// Two-digit years are 2000-based. Impossible dates (month 13 and the
// like) are a miss.
func Date(text string) (string, bool) {
	for _, pat := range datePatterns {
		m := pat.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var year, month, day string
		switch pat.order {
		case "mdy":
			month, day, year = m[1], m[2], m[3]
		case "ymd":
			year, month, day = m[1], m[2], m[3]
		case "mdy2":
			month, day, year = m[1], m[2], "20"+m[3]
		}
		monthNum, _ := strconv.Atoi(month)
		dayNum, _ := strconv.Atoi(day)
		normalized := fmt.Sprintf("%s-%02d-%02d", year, monthNum, dayNum)
		if _, err := time.Parse(time.DateOnly, normalized); err != nil {
			return "", false
		}
		return normalized, true
	}
	return "", false
}

// IsPastDate reports whether date (YYYY-MM-DD) is strictly before now's
// calendar date. Comparison is by date, not date-time.
func IsPastDate(date string, now time.Time) bool {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return false
	}
	today, _ := time.Parse(time.DateOnly, now.Format(time.DateOnly))
	return d.Before(today)
}

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{3})[-.](\d{3})[-.](\d{4})\b`),
	regexp.MustCompile(`\b(\d{10})\b`),
}

// Phone extracts a US phone number and normalizes it to +1-XXX-XXX-XXXX.
func Phone(text string) (string, bool) {
	for _, pat := range phonePatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) == 4 {
			return fmt.Sprintf("+1-%s-%s-%s", m[1], m[2], m[3]), true
		}
		digits := m[1]
		return fmt.Sprintf("+1-%s-%s-%s", digits[:3], digits[3:6], digits[6:]), true
	}
	return "", false
}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Email extracts an email address, case preserved as typed.
func Email(text string) (string, bool) {
	if m := emailPattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// EarliestRequested reports whether the patient asked for the earliest
// available date.
func EarliestRequested(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "earliest") || strings.Contains(lower, "soonest")
}

var ordinalPattern = regexp.MustCompile(`\b(\d+)\b`)

// SlotChoice resolves the patient's pick against the offered slot times.
// A 1-based ordinal takes precedence; out-of-range ordinals fall through
// to a literal substring match of a displayed time. Returns the 0-based
// index of the chosen slot.
func SlotChoice(text string, slotTimes []string) (int, bool) {
	if m := ordinalPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= len(slotTimes) {
			return n - 1, true
		}
	}
	for i, ts := range slotTimes {
		if ts != "" && strings.Contains(text, ts) {
			return i, true
		}
	}
	return 0, false
}
