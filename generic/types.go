/*
Package generic provides the jurisdiction-agnostic building blocks of the
holiday pay engine.

PURPOSE:
  Dates, periods, money and the error taxonomy are shared by every domain
  package (jurisdiction, holidaypay, leave) and by the stores. Nothing in here
  knows about a specific province or formula.

KEY CONCEPTS IN THIS FILE (types.go):
  - Province: A province/territory code (AB, ON, ...) or FED for federal
  - EmployeeID: Type-safe identifier for the employee being paid
  - Money helpers: decimal.Decimal is the only money type; rounding to the
    cent happens through RoundMoney and nowhere else

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, never float64 for money
  2. Late rounding: intermediate sums keep full precision
  3. Type Safety: Province and EmployeeID are distinct string types

USAGE:
  earnings := generic.MustParseDecimal("1402.50")
  daily := generic.RoundMoney(earnings.Div(decimal.NewFromInt(17)))  // 82.50

SEE ALSO:
  - time.go: TimePoint (day-granular dates)
  - period.go: Period and lookback windows
  - errors.go: ConfigNotFoundError, ValidationError, NotImplementedError
*/
package generic

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROVINCE - Jurisdiction codes
// =============================================================================

type Province string

const (
	ProvinceAB  Province = "AB"
	ProvinceBC  Province = "BC"
	ProvinceMB  Province = "MB"
	ProvinceNB  Province = "NB"
	ProvinceNL  Province = "NL"
	ProvinceNS  Province = "NS"
	ProvinceNT  Province = "NT"
	ProvinceNU  Province = "NU"
	ProvinceON  Province = "ON"
	ProvincePE  Province = "PE"
	ProvinceQC  Province = "QC"
	ProvinceSK  Province = "SK"
	ProvinceYT  Province = "YT"
	ProvinceFED Province = "FED" // federally regulated employers (Canada Labour Code)
)

// AllProvinces lists every known jurisdiction code, QC included.
// Whether a code has rules is a property of the rule table, not of this list.
var AllProvinces = []Province{
	ProvinceAB, ProvinceBC, ProvinceMB, ProvinceNB, ProvinceNL, ProvinceNS, ProvinceNT,
	ProvinceNU, ProvinceON, ProvincePE, ProvinceQC, ProvinceSK, ProvinceYT, ProvinceFED,
}

// ParseProvince normalizes a code ("ab", " AB ") and rejects unknown ones.
func ParseProvince(s string) (Province, error) {
	p := Province(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllProvinces {
		if p == known {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "province", Reason: fmt.Sprintf("unknown province code %q", s)}
}

func (p Province) String() string { return string(p) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// =============================================================================
// MONEY - decimal helpers
// =============================================================================

// MoneyPlaces is the number of decimal places money is rounded to.
const MoneyPlaces = 2

// RoundMoney rounds to the cent, half away from zero.
// Only call this at a reporting boundary (base, premium, total).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatMoney renders a decimal as a fixed two-place string ("82.50").
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid decimal %q: %v", s, err))
	}
	return d
}

// SumDecimals adds values without intermediate rounding.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
