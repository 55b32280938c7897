package jurisdiction

import (
	"sort"

	"github.com/warp/statpay/generic"
)

// =============================================================================
// RESOLVER - Which rule set was the law on a given date
// =============================================================================

// Resolver selects rule sets. Table is the only implementation in this
// module; the interface lets callers stub it in tests.
type Resolver interface {
	Resolve(province generic.Province, on generic.TimePoint) (RuleSet, error)
	ResolveLatest(province generic.Province) (RuleSet, error)
}

// Table is an immutable snapshot of the current revision of every rule set.
// It is safe for concurrent use and never changes after NewTable returns;
// publishing builds a new Table.
type Table struct {
	byProvince map[generic.Province][]RuleSet
	count      int
}

// NewTable collapses revisions (highest Revision per ID wins) and indexes
// the rows by province, ordered by EffectiveFrom.
func NewTable(rows []RuleSet) *Table {
	latest := make(map[string]RuleSet, len(rows))
	for _, rs := range rows {
		if current, ok := latest[rs.ID]; !ok || rs.Revision > current.Revision {
			latest[rs.ID] = rs
		}
	}

	t := &Table{byProvince: make(map[generic.Province][]RuleSet)}
	for _, rs := range latest {
		t.byProvince[rs.Province] = append(t.byProvince[rs.Province], rs)
		t.count++
	}
	for _, list := range t.byProvince {
		sortRuleSets(list)
	}
	return t
}

func sortRuleSets(list []RuleSet) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].EffectiveFrom.Equal(list[j].EffectiveFrom) {
			return list[i].EffectiveFrom.Before(list[j].EffectiveFrom)
		}
		return list[i].ID < list[j].ID
	})
}

// Resolve returns the single row in force for province on date.
// Zero matches and overlapping matches both fail with ConfigNotFoundError;
// there is no fallback to the latest row.
func (t *Table) Resolve(province generic.Province, on generic.TimePoint) (RuleSet, error) {
	var found RuleSet
	matches := 0
	for _, rs := range t.byProvince[province] {
		if rs.InEffect(on) {
			found = rs
			matches++
		}
	}
	if matches != 1 {
		return RuleSet{}, &generic.ConfigNotFoundError{Province: province, Date: on, Matches: matches}
	}
	return found, nil
}

// ResolveLatest returns the row with the greatest EffectiveFrom. Only used
// when a caller explicitly asks to recompute with the newest legislation.
func (t *Table) ResolveLatest(province generic.Province) (RuleSet, error) {
	list := t.byProvince[province]
	if len(list) == 0 {
		return RuleSet{}, &generic.ConfigNotFoundError{Province: province}
	}
	return list[len(list)-1], nil
}

// Provinces lists the provinces that have at least one row, sorted.
func (t *Table) Provinces() []generic.Province {
	out := make([]generic.Province, 0, len(t.byProvince))
	for p := range t.byProvince {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RuleSets returns a copy of a province's current rows, oldest first.
func (t *Table) RuleSets(province generic.Province) []RuleSet {
	list := t.byProvince[province]
	out := make([]RuleSet, len(list))
	copy(out, list)
	return out
}

// All returns every current row ordered by province then EffectiveFrom.
func (t *Table) All() []RuleSet {
	out := make([]RuleSet, 0, t.count)
	for _, p := range t.Provinces() {
		out = append(out, t.byProvince[p]...)
	}
	return out
}

// Len is the number of current rows.
func (t *Table) Len() int { return t.count }

// Digest fingerprints the table contents. Two tables with the same current
// rows have the same digest, which makes it usable as a cache key component.
func (t *Table) Digest() (string, error) {
	return generic.Digest(t.All())
}

// CheckOverlaps returns the first pair of overlapping rows, if any. A table
// built from published rows never has one; this guards imported files.
func (t *Table) CheckOverlaps() error {
	for _, p := range t.Provinces() {
		list := t.byProvince[p]
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if list[i].Overlaps(list[j]) {
					return &generic.OverlapError{Province: p, NewID: list[j].ID, ExistingID: list[i].ID}
				}
			}
		}
	}
	return nil
}
