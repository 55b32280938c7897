// Package store provides an in-memory implementation of every store
// interface the engine's collaborators use. It backs tests and the CLI's
// one-shot commands; the server uses store/sqlite.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/statpay/generic"
	"github.com/warp/statpay/holidaypay"
	"github.com/warp/statpay/jurisdiction"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements jurisdiction.Store, holidaypay.EmployeeStore and
// holidaypay.ResultStore. Rule sets and work records are append-only.
type Memory struct {
	mu        sync.RWMutex
	ruleSets  []jurisdiction.RuleSet
	revisions map[revisionKey]bool
	employees map[generic.EmployeeID]holidaypay.Employee
	records   map[generic.EmployeeID][]holidaypay.WorkRecord
	results   []holidaypay.StoredResult
}

type revisionKey struct {
	ID       string
	Revision int
}

func NewMemory() *Memory {
	return &Memory{
		revisions: make(map[revisionKey]bool),
		employees: make(map[generic.EmployeeID]holidaypay.Employee),
		records:   make(map[generic.EmployeeID][]holidaypay.WorkRecord),
	}
}

// =============================================================================
// RULE SETS
// =============================================================================

// AppendRuleSets adds rows atomically: if any (ID, Revision) already exists
// nothing is written.
func (m *Memory) AppendRuleSets(_ context.Context, rows ...jurisdiction.RuleSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := make(map[revisionKey]bool, len(rows))
	for _, rs := range rows {
		k := revisionKey{ID: rs.ID, Revision: rs.Revision}
		if m.revisions[k] || batch[k] {
			return fmt.Errorf("rule set %s revision %d: %w", rs.ID, rs.Revision, generic.ErrDuplicateRuleSet)
		}
		batch[k] = true
	}
	for _, rs := range rows {
		m.ruleSets = append(m.ruleSets, rs)
		m.revisions[revisionKey{ID: rs.ID, Revision: rs.Revision}] = true
	}
	return nil
}

func (m *Memory) RuleSetRevisions(_ context.Context, province generic.Province) ([]jurisdiction.RuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []jurisdiction.RuleSet
	for _, rs := range m.ruleSets {
		if province == "" || rs.Province == province {
			result = append(result, rs)
		}
	}
	return result, nil
}

// =============================================================================
// EMPLOYEES AND WORK RECORDS
// =============================================================================

// SaveEmployee inserts or replaces an employee. Employee records belong to
// the HR module, so unlike work records they may change.
func (m *Memory) SaveEmployee(_ context.Context, emp holidaypay.Employee) error {
	if emp.ID == "" {
		return generic.Invalid("employee.id", "employee id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) Employee(_ context.Context, id generic.EmployeeID) (holidaypay.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return holidaypay.Employee{}, fmt.Errorf("employee %s: %w", id, generic.ErrEmployeeNotFound)
	}
	return emp, nil
}

func (m *Memory) Employees(_ context.Context) ([]holidaypay.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]holidaypay.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AppendWorkRecords adds records atomically, keeping each employee's
// records sorted by date. A second record for the same day is rejected.
func (m *Memory) AppendWorkRecords(_ context.Context, records ...holidaypay.WorkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if _, ok := m.employees[r.EmployeeID]; !ok {
			return fmt.Errorf("employee %s: %w", r.EmployeeID, generic.ErrEmployeeNotFound)
		}
		k := string(r.EmployeeID) + "/" + r.Date.String()
		if seen[k] || m.hasRecordLocked(r.EmployeeID, r.Date) {
			return generic.Invalid("work_records", "record for %s on %s already exists", r.EmployeeID, r.Date)
		}
		seen[k] = true
	}
	for _, r := range records {
		m.appendRecordLocked(r)
	}
	return nil
}

func (m *Memory) hasRecordLocked(id generic.EmployeeID, date generic.TimePoint) bool {
	recs := m.records[id]
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Date.AfterOrEqual(date) })
	return i < len(recs) && recs[i].Date.Equal(date)
}

func (m *Memory) appendRecordLocked(r holidaypay.WorkRecord) {
	recs := m.records[r.EmployeeID]

	// Binary search for insertion point
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].Date.After(r.Date)
	})

	recs = append(recs, holidaypay.WorkRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = r
	m.records[r.EmployeeID] = recs
}

func (m *Memory) WorkRecords(_ context.Context, id generic.EmployeeID, period generic.Period) ([]holidaypay.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []holidaypay.WorkRecord
	for _, r := range m.records[id] {
		if period.Contains(r.Date) {
			result = append(result, r)
		}
	}
	return result, nil
}

// =============================================================================
// RESULTS
// =============================================================================

func (m *Memory) SaveResult(_ context.Context, r holidaypay.StoredResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.results {
		if existing.ID == r.ID {
			return generic.Invalid("result.id", "result %s already stored", r.ID)
		}
	}
	m.results = append(m.results, r)
	return nil
}

func (m *Memory) Result(_ context.Context, id string) (holidaypay.StoredResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.results {
		if r.ID == id {
			return r, nil
		}
	}
	return holidaypay.StoredResult{}, fmt.Errorf("result %s: %w", id, generic.ErrResultNotFound)
}

func (m *Memory) Results(_ context.Context, id generic.EmployeeID) ([]holidaypay.StoredResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []holidaypay.StoredResult
	for _, r := range m.results {
		if r.Result.EmployeeID == id {
			out = append(out, r)
		}
	}
	return out, nil
}
