package generic

// =============================================================================
// PERIOD - Inclusive date range (lookback windows, effective ranges)
// =============================================================================

// Period is the inclusive range [Start, End]. A period whose End is before
// its Start is empty; it arises when an employee was hired after the window
// would have closed.
//
// Examples:
//   - 28-day window before Dec 25: Nov 27 - Dec 24
//   - Same window for an employee hired Dec 10: Dec 10 - Dec 24
type Period struct {
	Start TimePoint `json:"start"`
	End   TimePoint `json:"end"`
}

// WindowBefore returns the `days`-long period ending on `end`.
func WindowBefore(end TimePoint, days int) Period {
	return Period{Start: end.AddDays(-(days - 1)), End: end}
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// IsEmpty reports whether the period contains no days.
func (p Period) IsEmpty() bool { return p.End.Before(p.Start) }

// Len is the number of calendar days in the period (0 when empty).
func (p Period) Len() int {
	if p.IsEmpty() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period.
func (p Period) Days() []TimePoint {
	days := make([]TimePoint, 0, p.Len())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// ClampStart moves Start forward to `from` when `from` is later.
// Returns the clamped period and whether anything changed.
func (p Period) ClampStart(from TimePoint) (Period, bool) {
	if from.After(p.Start) {
		return Period{Start: from, End: p.End}, true
	}
	return p, false
}

func (p Period) Equal(other Period) bool {
	return p.Start.Equal(other.Start) && p.End.Equal(other.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
