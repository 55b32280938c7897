package holidaypay

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// AUDIT TRAIL - Human-verifiable breakdown attached to every result
// =============================================================================

// AuditRecord is one work record that was summed.
type AuditRecord struct {
	Date     generic.TimePoint `json:"date"`
	Hours    decimal.Decimal   `json:"hours"`
	Earnings decimal.Decimal   `json:"earnings"`
}

// AuditTrail is a deterministic projection of a computation: which rule set
// and formula were used, what was summed, and every eligibility check.
// A reviewer can redo the arithmetic from this alone.
type AuditTrail struct {
	ConfigVersion      jurisdiction.ConfigVersion `json:"config_version"`
	Formula            jurisdiction.FormulaType   `json:"formula"`
	FormulaDescription string                     `json:"formula_description"`
	NominalWindow      generic.Period             `json:"nominal_window"`
	Window             generic.Period             `json:"window"`
	RecordsSummed      []AuditRecord              `json:"records_summed"`
	TotalHours         decimal.Decimal            `json:"total_hours"`
	TotalEarnings      decimal.Decimal            `json:"total_earnings"`
	DaysWorked         int                        `json:"days_worked"`
	Divisor            *decimal.Decimal           `json:"divisor,omitempty"`
	Rate               *decimal.Decimal           `json:"rate,omitempty"`
	FormulaApplied     bool                       `json:"formula_applied"`
	Steps              []string                   `json:"steps"`
	Reasons            []Reason                   `json:"reasons"`
	Warnings           []Warning                  `json:"warnings,omitempty"`
}

func newAuditTrail(version jurisdiction.ConfigVersion, formula Formula, window Window, summary windowSummary) AuditTrail {
	records := make([]AuditRecord, 0, len(summary.Records))
	for _, r := range summary.Records {
		records = append(records, AuditRecord{Date: r.Date, Hours: r.HoursWorked, Earnings: r.Earnings})
	}
	return AuditTrail{
		ConfigVersion:      version,
		Formula:            formula.Type,
		FormulaDescription: formula.Description,
		NominalWindow:      window.Nominal,
		Window:             window.Period,
		RecordsSummed:      records,
		TotalHours:         summary.TotalHours,
		TotalEarnings:      summary.TotalEarnings,
		DaysWorked:         summary.DaysWorked,
	}
}

// Render formats the trail for a human reviewer.
func (a AuditTrail) Render() string {
	var b strings.Builder
	v := a.ConfigVersion
	fmt.Fprintf(&b, "Rule set:     %s\n", v)
	fmt.Fprintf(&b, "Source:       %s (verified %s)\n", v.SourceURL, v.LastVerified)
	fmt.Fprintf(&b, "Formula:      %s - %s\n", a.Formula, a.FormulaDescription)
	if a.Window.Equal(a.NominalWindow) {
		fmt.Fprintf(&b, "Window:       %s\n", a.Window)
	} else {
		fmt.Fprintf(&b, "Window:       %s (nominal %s)\n", a.Window, a.NominalWindow)
	}
	fmt.Fprintf(&b, "Days worked:  %d\n", a.DaysWorked)
	fmt.Fprintf(&b, "Hours:        %s\n", a.TotalHours.StringFixed(2))
	fmt.Fprintf(&b, "Earnings:     %s\n", generic.FormatMoney(a.TotalEarnings))

	b.WriteString("\nEligibility:\n")
	for _, r := range a.Reasons {
		status := "PASS"
		switch {
		case r.Skipped:
			status = "SKIP"
		case !r.Passed:
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s: %s\n", status, r.Rule, r.Detail)
	}

	if len(a.Steps) > 0 {
		b.WriteString("\nCalculation:\n")
		for _, s := range a.Steps {
			fmt.Fprintf(&b, "  %s\n", s)
		}
	}

	if len(a.RecordsSummed) > 0 {
		b.WriteString("\nRecords summed:\n")
		for _, r := range a.RecordsSummed {
			fmt.Fprintf(&b, "  %s  %6sh  %10s\n", r.Date, r.Hours.StringFixed(2), generic.FormatMoney(r.Earnings))
		}
	}

	if len(a.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range a.Warnings {
			fmt.Fprintf(&b, "  %s: %s\n", w.Code, w.Message)
		}
	}
	return b.String()
}

// Fingerprint hashes the canonical JSON of a result, ignoring any
// fingerprint already set on it.
func Fingerprint(r HolidayPayResult) (string, error) {
	r.Fingerprint = ""
	return generic.Digest(r)
}

// VerifyFingerprint recomputes and compares a stored result's fingerprint.
func VerifyFingerprint(r HolidayPayResult) (bool, error) {
	want, err := Fingerprint(r)
	if err != nil {
		return false, err
	}
	return want == r.Fingerprint, nil
}
