/*
store.go - In-memory InvoiceStore (for testing/dev)

The production implementation lives in store/sqlite.
*/
package billing

import (
	"context"
	"strconv"
	"sync"
)

type MemoryStore struct {
	mu        sync.RWMutex
	invoices  map[string]*Invoice
	sequences map[string]int // tenantID|year -> last sequence
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:  make(map[string]*Invoice),
		sequences: make(map[string]int),
	}
}

func (m *MemoryStore) Save(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	cp.Lines = append([]LineItem(nil), inv.Lines...)
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MemoryStore) FindIssuedByIncident(_ context.Context, tenantID, incidentID string) (*Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && inv.IncidentID == incidentID && inv.Status == InvoiceIssued {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) NextSequence(_ context.Context, tenantID string, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := seqKey(tenantID, year)
	m.sequences[key]++
	return m.sequences[key], nil
}

func seqKey(tenantID string, year int) string {
	return tenantID + "|" + strconv.Itoa(year)
}
