package generic_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/statpay/generic"
)

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

// =============================================================================
// DATES
// =============================================================================

func TestTimePoint_ComparesByCalendarDay(t *testing.T) {
	a := generic.FromTime(time.Date(2024, 12, 25, 23, 59, 0, 0, time.UTC))
	b := date("2024-12-25")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Before(b))
	assert.Equal(t, "2024-12-25", a.String())
}

func TestTimePoint_TextRoundTrip(t *testing.T) {
	var tp generic.TimePoint
	require.NoError(t, json.Unmarshal([]byte(`"2019-09-01"`), &tp))
	assert.Equal(t, 2019, tp.Year())
	assert.Equal(t, time.September, tp.Month())

	assert.Error(t, json.Unmarshal([]byte(`"09/01/2019"`), &tp))
}

func TestStartOfWeek_IsSunday(t *testing.T) {
	assert.Equal(t, "2024-12-22", date("2024-12-25").StartOfWeek().String())
	assert.Equal(t, "2024-12-22", date("2024-12-22").StartOfWeek().String())
	assert.Equal(t, "2024-12-22", date("2024-12-28").StartOfWeek().String())
}

func TestDaysBetween_CrossesLeapDay(t *testing.T) {
	assert.Equal(t, 30, generic.DaysBetween(date("2024-02-01"), date("2024-03-02")))
	assert.Equal(t, -1, generic.DaysBetween(date("2024-03-01"), date("2024-02-29")))
}

func TestNthWeekdayAndWeekdayBefore(t *testing.T) {
	assert.Equal(t, "2024-02-19", generic.NthWeekday(2024, time.February, time.Monday, 3).String())
	assert.Equal(t, "2024-09-02", generic.NthWeekday(2024, time.September, time.Monday, 1).String())
	// strictly before: May 25 2020 is a Monday
	assert.Equal(t, "2020-05-18", generic.WeekdayBefore(date("2020-05-25"), time.Monday).String())
}

func TestEasterSunday(t *testing.T) {
	for year, want := range map[int]string{
		2019: "2019-04-21",
		2024: "2024-03-31",
		2025: "2025-04-20",
	} {
		assert.Equal(t, want, generic.EasterSunday(year).String(), year)
	}
}

func TestParseWeekday(t *testing.T) {
	d, err := generic.ParseWeekday("wed")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d)

	_, err = generic.ParseWeekday("someday")
	assert.True(t, generic.IsClientError(err))
}

// =============================================================================
// PERIODS
// =============================================================================

func TestWindowBefore_IsInclusive(t *testing.T) {
	w := generic.WindowBefore(date("2024-12-24"), 28)

	assert.Equal(t, "2024-11-27", w.Start.String())
	assert.Equal(t, 28, w.Len())
	assert.Len(t, w.Days(), 28)
	assert.True(t, w.Contains(date("2024-11-27")))
	assert.True(t, w.Contains(date("2024-12-24")))
	assert.False(t, w.Contains(date("2024-12-25")))
}

func TestClampStart(t *testing.T) {
	w := generic.WindowBefore(date("2024-12-24"), 28)

	clamped, changed := w.ClampStart(date("2024-12-10"))
	assert.True(t, changed)
	assert.Equal(t, 15, clamped.Len())

	same, changed := w.ClampStart(date("2020-01-01"))
	assert.False(t, changed)
	assert.True(t, same.Equal(w))

	// hired after the window closed
	empty, _ := w.ClampStart(date("2024-12-25"))
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Days())
}

// =============================================================================
// MONEY AND CANONICAL FORM
// =============================================================================

func TestRoundMoney_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "70.13", generic.FormatMoney(generic.RoundMoney(decimal.RequireFromString("70.125"))))
	assert.Equal(t, "82.50", generic.FormatMoney(generic.RoundMoney(decimal.RequireFromString("82.5"))))
	assert.Equal(t, "0.00", generic.FormatMoney(generic.SumDecimals()))
}

func TestDigest_IgnoresKeyOrder(t *testing.T) {
	a, err := generic.Digest(map[string]any{"b": 1, "a": "x"})
	require.NoError(t, err)
	b, err := generic.Digest(json.RawMessage(`{"a":"x","b":1}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := generic.Digest(map[string]any{"b": 2, "a": "x"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	out, err := generic.CanonicalJSON(struct {
		Z int `json:"z"`
		A int `json:"a"`
	}{Z: 1, A: 2})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"z":1}`, string(out))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrorClassification(t *testing.T) {
	notFound := fmt.Errorf("compute: %w", &generic.ConfigNotFoundError{Province: generic.ProvinceQC, Date: date("2024-06-24")})
	invalid := generic.Invalid("holiday.date", "missing")
	overlap := &generic.OverlapError{Province: generic.ProvinceAB, NewID: "B", ExistingID: "A"}
	unimplemented := &generic.NotImplementedError{Rule: "yukon_dual", Province: generic.ProvinceYT}

	assert.True(t, generic.IsNotFound(notFound))
	assert.Contains(t, notFound.Error(), "QC")
	assert.True(t, generic.IsClientError(invalid))
	assert.Contains(t, invalid.Error(), "holiday.date")
	assert.True(t, generic.IsConflict(overlap))
	assert.True(t, generic.IsNotImplemented(unimplemented))

	assert.False(t, generic.IsClientError(errors.New("disk on fire")))
	assert.False(t, generic.IsNotFound(invalid))
}

func TestParseProvince(t *testing.T) {
	p, err := generic.ParseProvince(" ab ")
	require.NoError(t, err)
	assert.Equal(t, generic.ProvinceAB, p)

	_, err = generic.ParseProvince("XX")
	assert.True(t, generic.IsClientError(err))
}
