package jurisdiction

import (
	"context"
	"fmt"

	"github.com/warp/statpay/generic"
)

// =============================================================================
// STORE - Append-only persistence for rule-set rows
// =============================================================================

// Store persists every revision of every rule set. Implementations must be
// append-only: AppendRuleSets never overwrites, and fails with
// generic.ErrDuplicateRuleSet if an (ID, Revision) pair already exists.
type Store interface {
	// AppendRuleSets writes all rows or none.
	AppendRuleSets(ctx context.Context, rows ...RuleSet) error
	// RuleSetRevisions returns every stored revision for a province, or for
	// all provinces when province is empty.
	RuleSetRevisions(ctx context.Context, province generic.Province) ([]RuleSet, error)
}

// =============================================================================
// REGISTRY - Publication rules on top of a Store
// =============================================================================

// Registry enforces the publication invariants: rows are valid, current rows
// of a province never overlap, and legislative changes are appended rather
// than edited in place.
type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Publish appends a new rule set. The row must not overlap any current row of
// its province. Revision defaults to 1.
func (r *Registry) Publish(ctx context.Context, rs RuleSet) error {
	if rs.Revision == 0 {
		rs.Revision = 1
	}
	if err := rs.Validate(); err != nil {
		return err
	}

	current, err := r.current(ctx, rs.Province)
	if err != nil {
		return err
	}
	if err := checkPublishable(rs, current); err != nil {
		return err
	}
	return r.store.AppendRuleSets(ctx, rs)
}

// Supersede records a legislative change: the province's open-ended row is
// closed on next.EffectiveFrom (by appending its next revision) and next is
// appended, atomically.
func (r *Registry) Supersede(ctx context.Context, next RuleSet) (closed RuleSet, err error) {
	if next.Revision == 0 {
		next.Revision = 1
	}
	if err := next.Validate(); err != nil {
		return RuleSet{}, err
	}

	current, err := r.current(ctx, next.Province)
	if err != nil {
		return RuleSet{}, err
	}

	openIdx := -1
	for i, rs := range current {
		if rs.IsOpen() {
			openIdx = i
			break
		}
	}
	if openIdx < 0 {
		return RuleSet{}, generic.Invalid("province", "%s has no open-ended rule set to supersede", next.Province)
	}
	open := current[openIdx]
	if !next.EffectiveFrom.After(open.EffectiveFrom) {
		return RuleSet{}, generic.Invalid("effective_from",
			"%s must start after the rule set it supersedes (%s starts %s)",
			next.ID, open.ID, open.EffectiveFrom)
	}

	closed = open.Close(next.EffectiveFrom)
	remaining := append(append([]RuleSet{}, current[:openIdx]...), closed)
	remaining = append(remaining, current[openIdx+1:]...)
	if err := checkPublishable(next, remaining); err != nil {
		return RuleSet{}, err
	}

	if err := r.store.AppendRuleSets(ctx, closed, next); err != nil {
		return RuleSet{}, err
	}
	return closed, nil
}

// Snapshot builds an immutable Table from the store's current contents.
func (r *Registry) Snapshot(ctx context.Context) (*Table, error) {
	rows, err := r.store.RuleSetRevisions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load rule sets: %w", err)
	}
	return NewTable(rows), nil
}

// History returns every stored revision of a province, oldest first.
func (r *Registry) History(ctx context.Context, province generic.Province) ([]RuleSet, error) {
	rows, err := r.store.RuleSetRevisions(ctx, province)
	if err != nil {
		return nil, fmt.Errorf("load rule sets for %s: %w", province, err)
	}
	sortRuleSets(rows)
	return rows, nil
}

// current returns the highest revision of each rule set in a province.
func (r *Registry) current(ctx context.Context, province generic.Province) ([]RuleSet, error) {
	rows, err := r.store.RuleSetRevisions(ctx, province)
	if err != nil {
		return nil, fmt.Errorf("load rule sets for %s: %w", province, err)
	}
	return NewTable(rows).RuleSets(province), nil
}

func checkPublishable(rs RuleSet, current []RuleSet) error {
	for _, existing := range current {
		if existing.ID == rs.ID {
			return fmt.Errorf("rule set %s: %w", rs.ID, generic.ErrDuplicateRuleSet)
		}
		if existing.Overlaps(rs) {
			return &generic.OverlapError{Province: rs.Province, NewID: rs.ID, ExistingID: existing.ID}
		}
	}
	return nil
}
