package availability

import "time"

// Reasons reported by IsOpen when a day is not bookable.
const (
	ReasonClosedDate = "Closed date"
	ReasonClosed     = "Closed"
)

// DayHours is one weekday's opening configuration, raw as configured.
type DayHours struct {
	Open      bool
	OpenTime  string
	CloseTime string
}

// Calendar evaluates facility opening rules for calendar dates. Weekdays use
// the workbook convention 0=Monday ... 6=Sunday. All methods are pure reads.
type Calendar struct {
	hours  map[int]DayHours
	closed map[string]string // date key -> reason
}

// NewCalendar builds a calendar from weekly hours keyed by weekday and the
// set of closed dates.
func NewCalendar(hours map[int]DayHours, closedDates map[time.Time]string) *Calendar {
	closed := make(map[string]string, len(closedDates))
	for date, reason := range closedDates {
		closed[dateKey(date)] = reason
	}
	copied := make(map[int]DayHours, len(hours))
	for weekday, day := range hours {
		copied[weekday] = day
	}
	return &Calendar{hours: copied, closed: closed}
}

// Weekday maps a date to the workbook weekday index (0=Monday).
func Weekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// IsOpen reports whether the facility is open on the given date. When open,
// the reason carries the canonical operating window, e.g. "09:00-16:00".
// A closed date wins over any weekly hours; malformed hours configuration
// fails closed, never open.
func (c *Calendar) IsOpen(date time.Time) (bool, string) {
	if _, ok := c.closed[dateKey(date)]; ok {
		return false, ReasonClosedDate
	}
	open, closeAt, ok := c.Bounds(date)
	if !ok {
		return false, ReasonClosed
	}
	return true, open.String() + "-" + closeAt.String()
}

// Bounds returns the parsed open and close times for the date's weekday.
// ok is false when the day is configured closed, the row is absent, or
// either bound fails to parse.
func (c *Calendar) Bounds(date time.Time) (TimeOfDay, TimeOfDay, bool) {
	day, ok := c.hours[Weekday(date)]
	if !ok || !day.Open {
		return TimeOfDay{}, TimeOfDay{}, false
	}
	open, ok := ParseTimeOfDay(day.OpenTime)
	if !ok {
		return TimeOfDay{}, TimeOfDay{}, false
	}
	closeAt, ok := ParseTimeOfDay(day.CloseTime)
	if !ok {
		return TimeOfDay{}, TimeOfDay{}, false
	}
	return open, closeAt, true
}

// WithinHours reports whether [start, end] lies entirely inside the date's
// operating window, in integer minutes since midnight. Intervals never span
// midnight. A closed or malformed day is never within hours.
func (c *Calendar) WithinHours(date time.Time, start, end TimeOfDay) bool {
	if _, ok := c.closed[dateKey(date)]; ok {
		return false
	}
	open, closeAt, ok := c.Bounds(date)
	if !ok {
		return false
	}
	return open.Minutes() <= start.Minutes() && end.Minutes() <= closeAt.Minutes()
}

// TimeSlots generates the ordered start-of-slot times for the date, from the
// open bound up to (not including) the close bound in stepMinutes increments.
// The same inputs always produce the same sequence; a closed day yields nil.
func (c *Calendar) TimeSlots(date time.Time, stepMinutes int) []TimeOfDay {
	if stepMinutes <= 0 {
		return nil
	}
	if _, ok := c.closed[dateKey(date)]; ok {
		return nil
	}
	open, closeAt, ok := c.Bounds(date)
	if !ok {
		return nil
	}
	slots := make([]TimeOfDay, 0)
	for m := open.Minutes(); m < closeAt.Minutes(); m += stepMinutes {
		slots = append(slots, TimeOfDay{Hour: m / 60, Minute: m % 60})
	}
	if len(slots) == 0 {
		return nil
	}
	return slots
}

// At reduces an instant to its wall-clock time of day.
func At(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}
