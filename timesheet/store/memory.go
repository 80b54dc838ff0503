// Package store provides timesheet.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/firehall/cost-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	timesheets map[string]*timesheet.Timesheet
}

func NewMemory() *Memory {
	return &Memory{timesheets: make(map[string]*timesheet.Timesheet)}
}

func (m *Memory) Save(_ context.Context, t *timesheet.Timesheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timesheets[t.ID] = clone(t)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*timesheet.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.timesheets[id]
	if !ok {
		return nil, timesheet.ErrTimesheetNotFound
	}
	return clone(t), nil
}

func (m *Memory) FindByEmployeePeriod(_ context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) (*timesheet.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.timesheets {
		if t.TenantID == tenantID && t.EmployeeID == employeeID &&
			timesheet.DateKey(t.PeriodStart) == timesheet.DateKey(periodStart) &&
			timesheet.DateKey(t.PeriodEnd) == timesheet.DateKey(periodEnd) {
			return clone(t), nil
		}
	}
	return nil, nil
}

func (m *Memory) ListByTenant(_ context.Context, tenantID string) ([]*timesheet.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*timesheet.Timesheet
	for _, t := range m.timesheets {
		if t.TenantID == tenantID {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timesheets[id]; !ok {
		return timesheet.ErrTimesheetNotFound
	}
	delete(m.timesheets, id)
	return nil
}

// clone keeps callers from mutating stored state through shared slices.
func clone(t *timesheet.Timesheet) *timesheet.Timesheet {
	cp := *t
	cp.Lines = make([]timesheet.Line, len(t.Lines))
	copy(cp.Lines, t.Lines)
	if ft := t.FrozenTotals(); ft != nil {
		totals := *ft
		cp.RestoreFrozenTotals(&totals)
	}
	return &cp
}
