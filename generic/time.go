package generic

import (
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Calendar date (payroll works in whole days)
// =============================================================================

// DateLayout is the wire format for every date in the system.
const DateLayout = "2006-01-02"

// TimePoint is a calendar date normalized to UTC midnight.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime drops the clock part of t, keeping its calendar date.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint { return FromTime(time.Now()) }

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, Invalid("date", "%q is not YYYY-MM-DD", s)
	}
	return FromTime(t), nil
}

// MustParseDate is for tests and embedded reference data.
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.day() < other.day() }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.day() == other.day() }
func (tp TimePoint) After(other TimePoint) bool         { return tp.day() > other.day() }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.day() <= other.day() }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.day() >= other.day() }

// day is the number of days since the Unix epoch. Comparing on it ignores any
// clock or zone that slipped into Time.
func (tp TimePoint) day() int64 {
	y, m, d := tp.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint  { return FromTime(tp.Time.AddDate(0, 0, n)) }
func (tp TimePoint) AddWeeks(n int) TimePoint { return tp.AddDays(7 * n) }
func (tp TimePoint) AddYears(n int) TimePoint { return FromTime(tp.Time.AddDate(n, 0, 0)) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

// StartOfWeek returns the Sunday that starts tp's week.
func (tp TimePoint) StartOfWeek() TimePoint {
	return tp.AddDays(-int(tp.Weekday()))
}

func (tp TimePoint) String() string { return tp.Time.Format(DateLayout) }

// MarshalText renders the date as YYYY-MM-DD for JSON and YAML.
func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns to - from in whole days (negative if to is earlier).
func DaysBetween(from, to TimePoint) int { return int(to.day() - from.day()) }

// MinDate / MaxDate pick the earlier / later of two dates.
func MinDate(a, b TimePoint) TimePoint {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDate(a, b TimePoint) TimePoint {
	if a.After(b) {
		return a
	}
	return b
}

// NthWeekday returns the n-th weekday of a month (n >= 1), e.g. the third
// Monday of February.
func NthWeekday(year int, month time.Month, weekday time.Weekday, n int) TimePoint {
	first := NewTimePoint(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDays(offset + 7*(n-1))
}

// WeekdayBefore returns the last given weekday strictly before date.
func WeekdayBefore(date TimePoint, weekday time.Weekday) TimePoint {
	back := (int(date.Weekday()) - int(weekday) + 7) % 7
	if back == 0 {
		back = 7
	}
	return date.AddDays(-back)
}

// EasterSunday computes Gregorian Easter (anonymous Gregorian algorithm).
func EasterSunday(year int) TimePoint {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return NewTimePoint(year, time.Month(month), day)
}

// FormatWeekdays renders a weekday set as "Mon,Tue,...".
func FormatWeekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}

// ParseWeekday accepts "Mon" or "Monday" (any case).
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return d, nil
		}
	}
	return 0, Invalid("weekday", "unknown weekday %q", s)
}
