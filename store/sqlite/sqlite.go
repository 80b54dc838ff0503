/*
Package sqlite provides SQLite-backed implementations of the storage
interfaces.

PURPOSE:
  Implements timesheet.Store and billing.InvoiceStore using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  timesheets:        Headers with status and frozen totals (JSON)
  timesheet_lines:   Ordered lines, owned exclusively by one timesheet
  invoices:          Immutable invoices, line items as JSON
  invoice_sequences: Per-tenant, per-year invoice number counters

SEQUENCE ASSIGNMENT:
  NextSequence runs an UPSERT + SELECT inside one transaction, so the
  counter increments atomically even with multiple connections. The
  billing.InvoiceService additionally serializes finalization at the
  application level.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/engine.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - timesheet/store.go: Interface definition and draft-only delete rule
  - timesheet/store/memory.go: In-memory implementation for testing
  - billing/store.go: In-memory invoice store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/firehall/cost-engine/billing"
	"github.com/firehall/cost-engine/pricing"
	"github.com/firehall/cost-engine/timesheet"
)

// Store implements timesheet.Store and billing.InvoiceStore.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		status TEXT NOT NULL,
		frozen_totals_json TEXT,
		created_at TEXT NOT NULL,
		validated_at TEXT,
		exported_at TEXT
	);

	-- One timesheet per employee per period within a tenant.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_timesheets_employee_period
		ON timesheets(tenant_id, employee_id, period_start, period_end);

	CREATE INDEX IF NOT EXISTS idx_timesheets_tenant
		ON timesheets(tenant_id);

	CREATE TABLE IF NOT EXISTS timesheet_lines (
		id TEXT PRIMARY KEY,
		timesheet_id TEXT NOT NULL REFERENCES timesheets(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		date TEXT NOT NULL,
		event_type_code TEXT NOT NULL,
		description TEXT,
		quantity TEXT NOT NULL,
		unit TEXT NOT NULL,
		amount TEXT NOT NULL,
		superior_function INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		needs_review INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_lines_timesheet
		ON timesheet_lines(timesheet_id, position);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		number TEXT NOT NULL UNIQUE,
		incident_id TEXT NOT NULL,
		billed_party TEXT NOT NULL,
		lines_json TEXT NOT NULL,
		total TEXT NOT NULL,
		duration_hours TEXT NOT NULL,
		status TEXT NOT NULL,
		superseded_by TEXT,
		generated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_incident
		ON invoices(tenant_id, incident_id);

	CREATE TABLE IF NOT EXISTS invoice_sequences (
		tenant_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		last_seq INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (tenant_id, year)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TIMESHEET STORE
// =============================================================================

// Save replaces the timesheet header and its full line set atomically.
func (s *Store) Save(ctx context.Context, t *timesheet.Timesheet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var totalsJSON sql.NullString
	if ft := t.FrozenTotals(); ft != nil {
		b, err := json.Marshal(ft)
		if err != nil {
			return fmt.Errorf("marshaling frozen totals: %w", err)
		}
		totalsJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timesheets (id, tenant_id, employee_id, period_start, period_end, status, frozen_totals_json, created_at, validated_at, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			frozen_totals_json = excluded.frozen_totals_json,
			validated_at = excluded.validated_at,
			exported_at = excluded.exported_at`,
		t.ID, t.TenantID, t.EmployeeID,
		timesheet.DateKey(t.PeriodStart), timesheet.DateKey(t.PeriodEnd),
		string(t.Status), totalsJSON,
		t.CreatedAt.Format(time.RFC3339), formatTimePtr(t.ValidatedAt), formatTimePtr(t.ExportedAt))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM timesheet_lines WHERE timesheet_id = ?`, t.ID); err != nil {
		return err
	}
	for i, l := range t.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO timesheet_lines (id, timesheet_id, position, date, event_type_code, description, quantity, unit, amount, superior_function, source, needs_review)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, t.ID, i, timesheet.DateKey(l.Date), l.EventTypeCode, l.Description,
			l.Quantity.String(), string(l.Unit), l.Amount.String(),
			boolToInt(l.SuperiorFunction), string(l.Source), boolToInt(l.NeedsReview))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) Get(ctx context.Context, id string) (*timesheet.Timesheet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, employee_id, period_start, period_end, status, frozen_totals_json, created_at, validated_at, exported_at
		FROM timesheets WHERE id = ?`, id)
	t, err := scanTimesheet(row)
	if err == sql.ErrNoRows {
		return nil, timesheet.ErrTimesheetNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) FindByEmployeePeriod(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) (*timesheet.Timesheet, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, employee_id, period_start, period_end, status, frozen_totals_json, created_at, validated_at, exported_at
		FROM timesheets
		WHERE tenant_id = ? AND employee_id = ? AND period_start = ? AND period_end = ?`,
		tenantID, employeeID, timesheet.DateKey(periodStart), timesheet.DateKey(periodEnd))
	t, err := scanTimesheet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]*timesheet.Timesheet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, employee_id, period_start, period_end, status, frozen_totals_json, created_at, validated_at, exported_at
		FROM timesheets WHERE tenant_id = ? ORDER BY period_start, employee_id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*timesheet.Timesheet
	for rows.Next() {
		t, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		if err := s.loadLines(ctx, t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timesheets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return timesheet.ErrTimesheetNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimesheet(row rowScanner) (*timesheet.Timesheet, error) {
	var t timesheet.Timesheet
	var status, periodStart, periodEnd, createdAt string
	var totalsJSON, validatedAt, exportedAt sql.NullString

	err := row.Scan(&t.ID, &t.TenantID, &t.EmployeeID, &periodStart, &periodEnd,
		&status, &totalsJSON, &createdAt, &validatedAt, &exportedAt)
	if err != nil {
		return nil, err
	}

	t.Status = timesheet.Status(status)
	t.PeriodStart, _ = time.Parse("2006-01-02", periodStart)
	t.PeriodEnd, _ = time.Parse("2006-01-02", periodEnd)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.ValidatedAt = parseTimePtr(validatedAt)
	t.ExportedAt = parseTimePtr(exportedAt)

	if totalsJSON.Valid {
		var totals timesheet.Totals
		if err := json.Unmarshal([]byte(totalsJSON.String), &totals); err != nil {
			return nil, fmt.Errorf("unmarshaling frozen totals: %w", err)
		}
		t.RestoreFrozenTotals(&totals)
	}
	return &t, nil
}

func (s *Store) loadLines(ctx context.Context, t *timesheet.Timesheet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, event_type_code, description, quantity, unit, amount, superior_function, source, needs_review
		FROM timesheet_lines WHERE timesheet_id = ? ORDER BY position`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l timesheet.Line
		var date, quantity, unit, amount, source string
		var superior, review int
		if err := rows.Scan(&l.ID, &date, &l.EventTypeCode, &l.Description,
			&quantity, &unit, &amount, &superior, &source, &review); err != nil {
			return err
		}
		l.Date, _ = time.Parse("2006-01-02", date)
		l.Quantity = mustDecimal(quantity)
		l.Unit = unitOf(unit)
		l.Amount = mustDecimal(amount)
		l.SuperiorFunction = superior != 0
		l.Source = timesheet.LineSource(source)
		l.NeedsReview = review != 0
		t.Lines = append(t.Lines, l)
	}
	return rows.Err()
}

// =============================================================================
// INVOICE STORE
// =============================================================================

func (s *Store) SaveInvoice(ctx context.Context, inv *billing.Invoice) error {
	linesJSON, err := json.Marshal(inv.Lines)
	if err != nil {
		return fmt.Errorf("marshaling invoice lines: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, tenant_id, number, incident_id, billed_party, lines_json, total, duration_hours, status, superseded_by, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			superseded_by = excluded.superseded_by`,
		inv.ID, inv.TenantID, inv.Number, inv.IncidentID, inv.BilledParty,
		string(linesJSON), inv.Total.String(), inv.DurationHours.String(),
		string(inv.Status), inv.SupersededBy, inv.GeneratedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetInvoice(ctx context.Context, id string) (*billing.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, number, incident_id, billed_party, lines_json, total, duration_hours, status, superseded_by, generated_at
		FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, billing.ErrInvoiceNotFound
	}
	return inv, err
}

func (s *Store) FindIssuedInvoiceByIncident(ctx context.Context, tenantID, incidentID string) (*billing.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, number, incident_id, billed_party, lines_json, total, duration_hours, status, superseded_by, generated_at
		FROM invoices WHERE tenant_id = ? AND incident_id = ? AND status = ?`,
		tenantID, incidentID, string(billing.InvoiceIssued))
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return inv, err
}

// NextInvoiceSequence atomically increments the tenant's counter.
func (s *Store) NextInvoiceSequence(ctx context.Context, tenantID string, year int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoice_sequences (tenant_id, year, last_seq) VALUES (?, ?, 1)
		ON CONFLICT(tenant_id, year) DO UPDATE SET last_seq = last_seq + 1`,
		tenantID, year)
	if err != nil {
		return 0, err
	}

	var seq int
	err = tx.QueryRowContext(ctx, `SELECT last_seq FROM invoice_sequences WHERE tenant_id = ? AND year = ?`,
		tenantID, year).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, tx.Commit()
}

func scanInvoice(row rowScanner) (*billing.Invoice, error) {
	var inv billing.Invoice
	var linesJSON, total, duration, status, generatedAt string
	var superseded sql.NullString

	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Number, &inv.IncidentID, &inv.BilledParty,
		&linesJSON, &total, &duration, &status, &superseded, &generatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(linesJSON), &inv.Lines); err != nil {
		return nil, fmt.Errorf("unmarshaling invoice lines: %w", err)
	}
	inv.Total = mustDecimal(total)
	inv.DurationHours = mustDecimal(duration)
	inv.Status = billing.InvoiceStatus(status)
	inv.SupersededBy = superseded.String
	inv.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	return &inv, nil
}

// InvoiceStore adapts the Store to billing.InvoiceStore (the method
// names differ so one type can host both stores).
type InvoiceStore struct{ *Store }

func (s InvoiceStore) Save(ctx context.Context, inv *billing.Invoice) error {
	return s.SaveInvoice(ctx, inv)
}

func (s InvoiceStore) Get(ctx context.Context, id string) (*billing.Invoice, error) {
	return s.GetInvoice(ctx, id)
}

func (s InvoiceStore) FindIssuedByIncident(ctx context.Context, tenantID, incidentID string) (*billing.Invoice, error) {
	return s.FindIssuedInvoiceByIncident(ctx, tenantID, incidentID)
}

func (s InvoiceStore) NextSequence(ctx context.Context, tenantID string, year int) (int, error) {
	return s.NextInvoiceSequence(ctx, tenantID, year)
}

// =============================================================================
// HELPERS
// =============================================================================

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func unitOf(s string) pricing.Unit { return pricing.Unit(s) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
