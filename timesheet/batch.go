/*
batch.go - Period fan-out over employees

PURPOSE:
  Generates draft timesheets for every active employee over a pay
  period. Each employee's generation is independent - the only shared
  state (catalog, pay parameters, holiday table) is read-only during the
  run - so employees are processed by a bounded worker pool.

RE-RUN SAFETY:
  Regeneration must never silently duplicate or overwrite:
  - employee already has a VALIDATED or EXPORTED timesheet for the
    period: skipped, reported as a conflict
  - employee has a DRAFT: its generated lines are replaced, its manual
    lines preserved
  - no timesheet yet: a fresh draft is created
*/
package timesheet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// INPUT COLLABORATOR
// =============================================================================

// RecordSource supplies usage records from the scheduling/intervention
// subsystem. The engine never reaches into that subsystem itself.
type RecordSource interface {
	RecordsFor(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]UsageRecord, error)
}

// RecordSourceFunc adapts a function to RecordSource.
type RecordSourceFunc func(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]UsageRecord, error)

func (f RecordSourceFunc) RecordsFor(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]UsageRecord, error) {
	return f(ctx, employeeID, periodStart, periodEnd)
}

// =============================================================================
// BATCH GENERATOR
// =============================================================================

type BatchGenerator struct {
	Gen     *Generator
	Store   Store
	Records RecordSource

	// Workers bounds the pool; <= 0 means 4.
	Workers int
}

// Conflict reports an employee whose period already has a non-draft
// timesheet. The existing document is left untouched.
type Conflict struct {
	EmployeeID  string
	TimesheetID string
	Status      Status
}

type BatchResult struct {
	TenantID  string
	Generated []*Timesheet
	Conflicts []Conflict
	Errors    []error
}

// GenerateForPeriod creates or refreshes one draft per active employee.
// Inactive employees are skipped. Results are ordered by employee ID so
// re-runs with identical inputs report identically.
func (b *BatchGenerator) GenerateForPeriod(ctx context.Context, tenantID string, employees []EmployeeProfile, periodStart, periodEnd time.Time) (*BatchResult, error) {
	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}

	result := &BatchResult{TenantID: tenantID}
	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan EmployeeProfile)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for emp := range jobs {
				ts, conflict, err := b.generateEmployee(ctx, tenantID, emp, periodStart, periodEnd)
				mu.Lock()
				switch {
				case err != nil:
					result.Errors = append(result.Errors, fmt.Errorf("employee %s: %w", emp.ID, err))
				case conflict != nil:
					result.Conflicts = append(result.Conflicts, *conflict)
				case ts != nil:
					result.Generated = append(result.Generated, ts)
				}
				mu.Unlock()
			}
		}()
	}

	for _, emp := range employees {
		if !emp.Active {
			continue
		}
		jobs <- emp
	}
	close(jobs)
	wg.Wait()

	sort.Slice(result.Generated, func(i, j int) bool {
		return result.Generated[i].EmployeeID < result.Generated[j].EmployeeID
	})
	sort.Slice(result.Conflicts, func(i, j int) bool {
		return result.Conflicts[i].EmployeeID < result.Conflicts[j].EmployeeID
	})
	return result, nil
}

func (b *BatchGenerator) generateEmployee(ctx context.Context, tenantID string, emp EmployeeProfile, periodStart, periodEnd time.Time) (*Timesheet, *Conflict, error) {
	records, err := b.Records.RecordsFor(ctx, emp.ID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching records: %w", err)
	}
	generated := b.Gen.Generate(records, emp)
	for i := range generated {
		generated[i].ID = NewLineID()
	}

	existing, err := b.Store.FindByEmployeePeriod(ctx, tenantID, emp.ID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up existing timesheet: %w", err)
	}

	if existing != nil {
		if existing.Status != StatusDraft {
			return nil, &Conflict{EmployeeID: emp.ID, TimesheetID: existing.ID, Status: existing.Status}, nil
		}
		// Replace generated lines, preserve manual ones.
		var manual []Line
		for _, l := range existing.Lines {
			if l.Source == LineManual {
				manual = append(manual, l)
			}
		}
		existing.Lines = append(generated, manual...)
		if err := b.Store.Save(ctx, existing); err != nil {
			return nil, nil, fmt.Errorf("saving refreshed draft: %w", err)
		}
		return existing, nil, nil
	}

	ts := NewDraft(tenantID, emp.ID, periodStart, periodEnd)
	ts.Lines = generated
	if err := b.Store.Save(ctx, ts); err != nil {
		return nil, nil, fmt.Errorf("saving draft: %w", err)
	}
	return ts, nil, nil
}
