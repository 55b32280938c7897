package jurisdiction

import (
	"sort"
	"time"

	"github.com/warp/statpay/generic"
)

// =============================================================================
// HOLIDAY CALENDAR - Statutory (general) holidays per jurisdiction
// =============================================================================

// Holiday is one statutory holiday observed in a province.
type Holiday struct {
	Date     generic.TimePoint `json:"date"`
	Province generic.Province  `json:"province"`
	Name     string            `json:"name"`
}

type holidayRule struct {
	name      string
	date      func(year int) generic.TimePoint
	provinces []generic.Province
	since     int // first year observed, 0 = always
}

func fixed(month time.Month, day int) func(int) generic.TimePoint {
	return func(year int) generic.TimePoint { return generic.NewTimePoint(year, month, day) }
}

func nth(month time.Month, weekday time.Weekday, n int) func(int) generic.TimePoint {
	return func(year int) generic.TimePoint { return generic.NthWeekday(year, month, weekday, n) }
}

const (
	ab  = generic.ProvinceAB
	bc  = generic.ProvinceBC
	mb  = generic.ProvinceMB
	nb  = generic.ProvinceNB
	nl  = generic.ProvinceNL
	ns  = generic.ProvinceNS
	nt  = generic.ProvinceNT
	nu  = generic.ProvinceNU
	on  = generic.ProvinceON
	pe  = generic.ProvincePE
	sk  = generic.ProvinceSK
	yt  = generic.ProvinceYT
	fed = generic.ProvinceFED
)

// Quebec is not listed; its rules are outside this engine.
var holidayRules = []holidayRule{
	{name: "New Year's Day", date: fixed(time.January, 1),
		provinces: []generic.Province{ab, bc, mb, nb, nl, ns, nt, nu, on, pe, sk, yt, fed}},
	{name: "Family Day", date: nth(time.February, time.Monday, 3),
		provinces: []generic.Province{ab, bc, nb, on, sk}},
	{name: "Louis Riel Day", date: nth(time.February, time.Monday, 3),
		provinces: []generic.Province{mb}},
	{name: "Islander Day", date: nth(time.February, time.Monday, 3),
		provinces: []generic.Province{pe}},
	{name: "Heritage Day", date: nth(time.February, time.Monday, 3),
		provinces: []generic.Province{ns}, since: 2015},
	{name: "Good Friday", date: func(year int) generic.TimePoint { return generic.EasterSunday(year).AddDays(-2) },
		provinces: []generic.Province{ab, bc, mb, nb, nl, ns, nt, nu, on, pe, sk, yt, fed}},
	{name: "Victoria Day", date: func(year int) generic.TimePoint {
		return generic.WeekdayBefore(generic.NewTimePoint(year, time.May, 25), time.Monday)
	}, provinces: []generic.Province{ab, bc, mb, nt, nu, on, sk, yt, fed}},
	{name: "National Indigenous Peoples Day", date: fixed(time.June, 21),
		provinces: []generic.Province{nt, yt}},
	{name: "Canada Day", date: fixed(time.July, 1),
		provinces: []generic.Province{ab, bc, mb, nb, nl, ns, nt, nu, on, pe, sk, yt, fed}},
	{name: "Nunavut Day", date: fixed(time.July, 9),
		provinces: []generic.Province{nu}},
	{name: "Civic Holiday", date: nth(time.August, time.Monday, 1),
		provinces: []generic.Province{nt, nu}},
	{name: "British Columbia Day", date: nth(time.August, time.Monday, 1),
		provinces: []generic.Province{bc}},
	{name: "Saskatchewan Day", date: nth(time.August, time.Monday, 1),
		provinces: []generic.Province{sk}},
	{name: "New Brunswick Day", date: nth(time.August, time.Monday, 1),
		provinces: []generic.Province{nb}},
	{name: "Discovery Day", date: nth(time.August, time.Monday, 3),
		provinces: []generic.Province{yt}},
	{name: "Labour Day", date: nth(time.September, time.Monday, 1),
		provinces: []generic.Province{ab, bc, mb, nb, nl, ns, nt, nu, on, pe, sk, yt, fed}},
	{name: "National Day for Truth and Reconciliation", date: fixed(time.September, 30),
		provinces: []generic.Province{fed, nt, nu}, since: 2021},
	{name: "National Day for Truth and Reconciliation", date: fixed(time.September, 30),
		provinces: []generic.Province{pe}, since: 2022},
	{name: "National Day for Truth and Reconciliation", date: fixed(time.September, 30),
		provinces: []generic.Province{bc, yt}, since: 2023},
	{name: "Thanksgiving Day", date: nth(time.October, time.Monday, 2),
		provinces: []generic.Province{ab, bc, mb, nt, nu, on, sk, yt, fed}},
	{name: "Remembrance Day", date: fixed(time.November, 11),
		provinces: []generic.Province{ab, bc, nb, nl, ns, nt, nu, pe, sk, yt, fed}},
	{name: "Christmas Day", date: fixed(time.December, 25),
		provinces: []generic.Province{ab, bc, mb, nb, nl, ns, nt, nu, on, pe, sk, yt, fed}},
	{name: "Boxing Day", date: fixed(time.December, 26),
		provinces: []generic.Province{on, fed}},
}

// StatutoryHolidays lists the general holidays a province observes in a
// year, ordered by date. Unknown or unsupported provinces yield nil.
func StatutoryHolidays(province generic.Province, year int) []Holiday {
	var out []Holiday
	for _, rule := range holidayRules {
		if rule.since > 0 && year < rule.since {
			continue
		}
		for _, p := range rule.provinces {
			if p == province {
				out = append(out, Holiday{Date: rule.date(year), Province: province, Name: rule.name})
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FindHoliday looks up a statutory holiday by date.
func FindHoliday(province generic.Province, date generic.TimePoint) (Holiday, bool) {
	for _, h := range StatutoryHolidays(province, date.Year()) {
		if h.Date.Equal(date) {
			return h, true
		}
	}
	return Holiday{}, false
}

// HolidaysBetween lists statutory holidays in [from, to] across years.
func HolidaysBetween(province generic.Province, period generic.Period) []Holiday {
	var out []Holiday
	for year := period.Start.Year(); year <= period.End.Year(); year++ {
		for _, h := range StatutoryHolidays(province, year) {
			if period.Contains(h.Date) {
				out = append(out, h)
			}
		}
	}
	return out
}
