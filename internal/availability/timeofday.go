package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a canonicalized wall-clock time with no date component.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the value as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String renders the canonical zero-padded 24-hour form, e.g. "09:00".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses the tolerant grammar accepted by the hours
// configuration: "H:MM", "HH:MM", "HMM"/"HHMM", a bare hour, and "h" as the
// separator, with an optional trailing case-insensitive am/pm suffix.
// Unparseable input reports ok=false; the caller treats it as absent.
func ParseTimeOfDay(value string) (TimeOfDay, bool) {
	s := strings.ToLower(strings.TrimSpace(value))
	switch s {
	case "", "nan", "none", "null":
		return TimeOfDay{}, false
	}

	meridiem := ""
	if strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}
	if s == "" {
		return TimeOfDay{}, false
	}

	var hour, minute int
	if i := strings.IndexAny(s, ":h"); i >= 0 {
		h, err := strconv.Atoi(strings.TrimSpace(s[:i]))
		if err != nil {
			return TimeOfDay{}, false
		}
		m, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if err != nil {
			return TimeOfDay{}, false
		}
		hour, minute = h, m
	} else {
		if _, err := strconv.Atoi(s); err != nil {
			return TimeOfDay{}, false
		}
		switch {
		case len(s) <= 2:
			hour, _ = strconv.Atoi(s)
		case len(s) <= 4:
			hour, _ = strconv.Atoi(s[:len(s)-2])
			minute, _ = strconv.Atoi(s[len(s)-2:])
		default:
			return TimeOfDay{}, false
		}
	}

	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: hour, Minute: minute}, true
}

// Canonicalize reparses a configured time string and returns its canonical
// "HH:MM" form. Unparseable input yields the empty string.
func Canonicalize(value string) string {
	t, ok := ParseTimeOfDay(value)
	if !ok {
		return ""
	}
	return t.String()
}
