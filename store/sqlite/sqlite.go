/*
Package sqlite provides a SQLite-backed implementation of obligation.TxStore.

PURPOSE:
  Implements the persistence interface of the debt engine using SQLite.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  obligations:         Debt instruments (loans and payment plans)
  installments:        Scheduled repayments, versioned for optimistic CAS
  ledger_transactions: Append-only bookkeeping entries

WRITE DISCIPLINE:
  - CreateObligation runs inside one transaction: the obligation and its
    complete installment set become visible together or not at all.
  - UPDATE on installments is guarded by "AND version = ?"; zero affected
    rows on an existing installment means a concurrent writer won and the
    caller gets ErrConcurrentModification.
  - ledger_transactions has a UNIQUE index on idempotency_key. A repeated
    payment attempt fails the whole change set.
  - No DELETE statements exist. Cancellation is a status flag.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process. The version
  column closes the read-modify-write race across processes.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/debts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eng := obligation.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - obligation/store.go: Interface definitions
  - obligation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/hoppiness/debt-engine/obligation"
)

// Store implements obligation.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ obligation.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by s.mu anyway, and a single pooled connection
	// keeps ":memory:" databases from splitting across connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Obligations (loans and payment plans)
	CREATE TABLE IF NOT EXISTS obligations (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		variant TEXT NOT NULL,
		counterparty TEXT NOT NULL,
		description TEXT,
		principal TEXT NOT NULL,
		down_payment TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		installment_count INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_obligations_branch
		ON obligations(branch_id);
	CREATE INDEX IF NOT EXISTS idx_obligations_status
		ON obligations(status);

	-- Installments (versioned for optimistic concurrency)
	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		obligation_id TEXT NOT NULL REFERENCES obligations(id),
		number INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		capital TEXT NOT NULL,
		interest TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_at TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		UNIQUE(obligation_id, number)
	);

	CREATE INDEX IF NOT EXISTS idx_installments_obligation
		ON installments(obligation_id, number);
	CREATE INDEX IF NOT EXISTS idx_installments_status_due
		ON installments(status, due_date);

	-- Ledger transactions (append-only bookkeeping entries)
	CREATE TABLE IF NOT EXISTS ledger_transactions (
		id TEXT PRIMARY KEY,
		branch_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		concept TEXT NOT NULL,
		category_group TEXT NOT NULL,
		accrual_date TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		documentation_status TEXT,
		payment_origin TEXT,
		recorded_by TEXT NOT NULL,
		installment_id TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_branch
		ON ledger_transactions(branch_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_ledger_installment
		ON ledger_transactions(installment_id) WHERE installment_id IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const dateFormat = "2006-01-02"

// =============================================================================
// OBLIGATION STORE (obligation.Store interface)
// =============================================================================

// CreateObligation persists the obligation with its complete installment
// set inside one transaction.
func (s *Store) CreateObligation(ctx context.Context, ob *obligation.Obligation, installments []obligation.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &obligation.PersistenceError{Op: "begin transaction", Err: err}
	}
	defer sqlTx.Rollback()

	if err := s.createObligation(ctx, sqlTx, ob, installments); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return &obligation.PersistenceError{Op: "commit transaction", Err: err}
	}
	return nil
}

func (s *Store) createObligation(ctx context.Context, db dbtx, ob *obligation.Obligation, installments []obligation.Installment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO obligations
			(id, branch_id, variant, counterparty, description, principal,
			 down_payment, interest_rate, installment_count, start_date,
			 status, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ob.ID), ob.BranchID, ob.Variant.VariantID(), ob.CounterpartyName,
		ob.Description, ob.PrincipalAmount.String(), ob.DownPayment.String(),
		ob.InterestRatePercent.String(), ob.InstallmentCount,
		ob.StartDate.Format(dateFormat), string(ob.Status), ob.Notes,
		ob.CreatedBy, ob.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return &obligation.PersistenceError{Op: "insert obligation", Err: err}
	}

	for i := range installments {
		inst := &installments[i]
		var paidAt any
		if inst.PaidAt != nil {
			paidAt = inst.PaidAt.UTC().Format(time.RFC3339)
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO installments
				(id, obligation_id, number, due_date, capital, interest,
				 paid_amount, status, paid_at, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(inst.ID), string(inst.ObligationID), inst.Number,
			inst.DueDate.Format(dateFormat), inst.CapitalAmount.String(),
			inst.InterestAmount.String(), inst.PaidAmount.String(),
			string(inst.Status), paidAt, inst.Version,
		)
		if err != nil {
			return &obligation.PersistenceError{Op: "insert installment", Err: err}
		}
	}
	return nil
}

func (s *Store) GetObligation(ctx context.Context, id obligation.ObligationID) (*obligation.ObligationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getObligation(ctx, s.db, id)
}

func (s *Store) getObligation(ctx context.Context, db dbtx, id obligation.ObligationID) (*obligation.ObligationRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, branch_id, variant, counterparty, description, principal,
		       down_payment, interest_rate, installment_count, start_date,
		       status, notes, created_by, created_at
		FROM obligations WHERE id = ?`, string(id))

	ob, err := scanObligation(row)
	if err == sql.ErrNoRows {
		return nil, &obligation.NotFoundError{Kind: "obligation", ID: string(id)}
	}
	if err != nil {
		return nil, &obligation.PersistenceError{Op: "select obligation", Err: err}
	}

	installments, err := s.loadInstallments(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return &obligation.ObligationRecord{Obligation: ob, Installments: installments}, nil
}

func (s *Store) ListObligations(ctx context.Context, branchID string) ([]obligation.ObligationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch_id, variant, counterparty, description, principal,
		       down_payment, interest_rate, installment_count, start_date,
		       status, notes, created_by, created_at
		FROM obligations WHERE branch_id = ?
		ORDER BY created_at, id`, branchID)
	if err != nil {
		return nil, &obligation.PersistenceError{Op: "list obligations", Err: err}
	}
	defer rows.Close()

	var records []obligation.ObligationRecord
	for rows.Next() {
		ob, err := scanObligation(rows)
		if err != nil {
			return nil, &obligation.PersistenceError{Op: "scan obligation", Err: err}
		}
		records = append(records, obligation.ObligationRecord{Obligation: ob})
	}
	if err := rows.Err(); err != nil {
		return nil, &obligation.PersistenceError{Op: "list obligations", Err: err}
	}

	for i := range records {
		installments, err := s.loadInstallments(ctx, s.db, records[i].Obligation.ID)
		if err != nil {
			return nil, err
		}
		records[i].Installments = installments
	}
	return records, nil
}

func (s *Store) loadInstallments(ctx context.Context, db dbtx, id obligation.ObligationID) ([]obligation.Installment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, obligation_id, number, due_date, capital, interest,
		       paid_amount, status, paid_at, version
		FROM installments WHERE obligation_id = ?
		ORDER BY number`, string(id))
	if err != nil {
		return nil, &obligation.PersistenceError{Op: "load installments", Err: err}
	}
	defer rows.Close()

	var installments []obligation.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, &obligation.PersistenceError{Op: "scan installment", Err: err}
		}
		installments = append(installments, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, &obligation.PersistenceError{Op: "load installments", Err: err}
	}
	return installments, nil
}

func (s *Store) GetInstallment(ctx context.Context, id obligation.InstallmentID) (*obligation.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getInstallment(ctx, s.db, id)
}

func (s *Store) getInstallment(ctx context.Context, db dbtx, id obligation.InstallmentID) (*obligation.Installment, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, obligation_id, number, due_date, capital, interest,
		       paid_amount, status, paid_at, version
		FROM installments WHERE id = ?`, string(id))

	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, &obligation.NotFoundError{Kind: "installment", ID: string(id)}
	}
	if err != nil {
		return nil, &obligation.PersistenceError{Op: "select installment", Err: err}
	}
	return inst, nil
}

// UpdateInstallment compares-and-swaps the version column.
func (s *Store) UpdateInstallment(ctx context.Context, inst *obligation.Installment, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateInstallment(ctx, s.db, inst, expectedVersion)
}

func (s *Store) updateInstallment(ctx context.Context, db dbtx, inst *obligation.Installment, expectedVersion int64) error {
	var paidAt any
	if inst.PaidAt != nil {
		paidAt = inst.PaidAt.UTC().Format(time.RFC3339)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE installments
		SET due_date = ?, paid_amount = ?, status = ?, paid_at = ?,
		    version = version + 1
		WHERE id = ? AND version = ?`,
		inst.DueDate.Format(dateFormat), inst.PaidAmount.String(),
		string(inst.Status), paidAt, string(inst.ID), expectedVersion,
	)
	if err != nil {
		return &obligation.PersistenceError{Op: "update installment", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &obligation.PersistenceError{Op: "update installment", Err: err}
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		if _, getErr := s.getInstallment(ctx, db, inst.ID); getErr != nil {
			return getErr
		}
		return obligation.ErrConcurrentModification
	}

	inst.Version = expectedVersion + 1
	return nil
}

func (s *Store) UpdateObligationStatus(ctx context.Context, id obligation.ObligationID, status obligation.ObligationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateObligationStatus(ctx, s.db, id, status)
}

func (s *Store) updateObligationStatus(ctx context.Context, db dbtx, id obligation.ObligationID, status obligation.ObligationStatus) error {
	res, err := db.ExecContext(ctx,
		`UPDATE obligations SET status = ? WHERE id = ?`,
		string(status), string(id))
	if err != nil {
		return &obligation.PersistenceError{Op: "update obligation status", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &obligation.PersistenceError{Op: "update obligation status", Err: err}
	}
	if affected == 0 {
		return &obligation.NotFoundError{Kind: "obligation", ID: string(id)}
	}
	return nil
}

// =============================================================================
// LEDGER (append-only)
// =============================================================================

func (s *Store) InsertLedgerTransaction(ctx context.Context, txn *obligation.LedgerTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLedger(ctx, s.db, txn)
}

func (s *Store) insertLedger(ctx context.Context, db dbtx, txn *obligation.LedgerTransaction) error {
	var key any
	if txn.IdempotencyKey != "" {
		key = txn.IdempotencyKey
	}
	var installmentID any
	if txn.InstallmentID != "" {
		installmentID = string(txn.InstallmentID)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_transactions
			(id, branch_id, type, amount, concept, category_group,
			 accrual_date, payment_date, documentation_status,
			 payment_origin, recorded_by, installment_id,
			 idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(txn.ID), txn.BranchID, string(txn.Type), txn.Amount.String(),
		txn.Concept, txn.CategoryGroup,
		txn.AccrualDate.Format(dateFormat), txn.PaymentDate.Format(dateFormat),
		txn.DocumentationStatus, txn.PaymentOrigin, txn.RecordedBy,
		installmentID, key, txn.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return obligation.ErrDuplicatePayment
		}
		return &obligation.PersistenceError{Op: "insert ledger transaction", Err: err}
	}
	return nil
}

func (s *Store) LedgerKeyExists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledgerKeyExists(ctx, s.db, idempotencyKey)
}

func (s *Store) ledgerKeyExists(ctx context.Context, db dbtx, idempotencyKey string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ledger_transactions WHERE idempotency_key = ?`,
		idempotencyKey).Scan(&count)
	if err != nil {
		return false, &obligation.PersistenceError{Op: "idempotency lookup", Err: err}
	}
	return count > 0, nil
}

func (s *Store) ListLedgerTransactions(ctx context.Context, branchID string) ([]obligation.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch_id, type, amount, concept, category_group,
		       accrual_date, payment_date, documentation_status,
		       payment_origin, recorded_by, installment_id,
		       idempotency_key, created_at
		FROM ledger_transactions WHERE branch_id = ?
		ORDER BY created_at, id`, branchID)
	if err != nil {
		return nil, &obligation.PersistenceError{Op: "list ledger transactions", Err: err}
	}
	defer rows.Close()

	var txns []obligation.LedgerTransaction
	for rows.Next() {
		txn, err := scanLedger(rows)
		if err != nil {
			return nil, &obligation.PersistenceError{Op: "scan ledger transaction", Err: err}
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, &obligation.PersistenceError{Op: "list ledger transactions", Err: err}
	}
	return txns, nil
}

func (s *Store) ListActiveObligationIDs(ctx context.Context) ([]obligation.ObligationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listActiveObligationIDs(ctx, s.db)
}

func (s *Store) listActiveObligationIDs(ctx context.Context, db dbtx) ([]obligation.ObligationID, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id FROM obligations WHERE status = ? ORDER BY created_at, id`,
		string(obligation.StatusActive))
	if err != nil {
		return nil, &obligation.PersistenceError{Op: "list active obligations", Err: err}
	}
	defer rows.Close()

	var ids []obligation.ObligationID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &obligation.PersistenceError{Op: "scan obligation id", Err: err}
		}
		ids = append(ids, obligation.ObligationID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, &obligation.PersistenceError{Op: "list active obligations", Err: err}
	}
	return ids, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store obligation.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &obligation.PersistenceError{Op: "begin transaction", Err: err}
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &obligation.PersistenceError{Op: "commit transaction", Err: err}
	}
	return nil
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) CreateObligation(ctx context.Context, ob *obligation.Obligation, installments []obligation.Installment) error {
	return ts.parent.createObligation(ctx, ts.tx, ob, installments)
}

func (ts *txStore) GetObligation(ctx context.Context, id obligation.ObligationID) (*obligation.ObligationRecord, error) {
	return ts.parent.getObligation(ctx, ts.tx, id)
}

func (ts *txStore) ListObligations(ctx context.Context, branchID string) ([]obligation.ObligationRecord, error) {
	return nil, &obligation.PersistenceError{Op: "list obligations", Err: fmt.Errorf("not supported inside a transaction")}
}

func (ts *txStore) GetInstallment(ctx context.Context, id obligation.InstallmentID) (*obligation.Installment, error) {
	return ts.parent.getInstallment(ctx, ts.tx, id)
}

func (ts *txStore) UpdateInstallment(ctx context.Context, inst *obligation.Installment, expectedVersion int64) error {
	return ts.parent.updateInstallment(ctx, ts.tx, inst, expectedVersion)
}

func (ts *txStore) UpdateObligationStatus(ctx context.Context, id obligation.ObligationID, status obligation.ObligationStatus) error {
	return ts.parent.updateObligationStatus(ctx, ts.tx, id, status)
}

func (ts *txStore) InsertLedgerTransaction(ctx context.Context, txn *obligation.LedgerTransaction) error {
	return ts.parent.insertLedger(ctx, ts.tx, txn)
}

func (ts *txStore) LedgerKeyExists(ctx context.Context, idempotencyKey string) (bool, error) {
	return ts.parent.ledgerKeyExists(ctx, ts.tx, idempotencyKey)
}

func (ts *txStore) ListLedgerTransactions(ctx context.Context, branchID string) ([]obligation.LedgerTransaction, error) {
	return nil, &obligation.PersistenceError{Op: "list ledger transactions", Err: fmt.Errorf("not supported inside a transaction")}
}

func (ts *txStore) ListActiveObligationIDs(ctx context.Context) ([]obligation.ObligationID, error) {
	return ts.parent.listActiveObligationIDs(ctx, ts.tx)
}

// =============================================================================
// ROW SCANNING
// =============================================================================

func scanObligation(row scanner) (*obligation.Obligation, error) {
	var (
		id, branchID, variantID, counterparty, status, createdBy string
		description, notes                                       sql.NullString
		principal, downPayment, rate                             string
		count                                                    int
		startDate, createdAt                                     string
	)
	err := row.Scan(&id, &branchID, &variantID, &counterparty, &description,
		&principal, &downPayment, &rate, &count, &startDate, &status,
		&notes, &createdBy, &createdAt)
	if err != nil {
		return nil, err
	}

	variant := obligation.LookupVariant(variantID)
	if variant == nil {
		return nil, fmt.Errorf("unknown obligation variant %q", variantID)
	}

	ob := &obligation.Obligation{
		ID:               obligation.ObligationID(id),
		BranchID:         branchID,
		Variant:          variant,
		CounterpartyName: counterparty,
		Description:      description.String,
		InstallmentCount: count,
		Status:           obligation.ObligationStatus(status),
		Notes:            notes.String,
		CreatedBy:        createdBy,
	}
	if ob.PrincipalAmount, err = decimal.NewFromString(principal); err != nil {
		return nil, fmt.Errorf("bad principal %q: %w", principal, err)
	}
	if ob.DownPayment, err = decimal.NewFromString(downPayment); err != nil {
		return nil, fmt.Errorf("bad down payment %q: %w", downPayment, err)
	}
	if ob.InterestRatePercent, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("bad interest rate %q: %w", rate, err)
	}
	if ob.StartDate, err = time.ParseInLocation(dateFormat, startDate, time.UTC); err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", startDate, err)
	}
	if ob.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("bad created at %q: %w", createdAt, err)
	}
	return ob, nil
}

func scanInstallment(row scanner) (*obligation.Installment, error) {
	var (
		id, obligationID, status       string
		number                         int
		dueDate                        string
		capital, interest, paidAmount  string
		paidAt                         sql.NullString
		version                        int64
	)
	err := row.Scan(&id, &obligationID, &number, &dueDate, &capital,
		&interest, &paidAmount, &status, &paidAt, &version)
	if err != nil {
		return nil, err
	}

	inst := &obligation.Installment{
		ID:           obligation.InstallmentID(id),
		ObligationID: obligation.ObligationID(obligationID),
		Number:       number,
		Status:       obligation.InstallmentStatus(status),
		Version:      version,
	}
	if inst.DueDate, err = time.ParseInLocation(dateFormat, dueDate, time.UTC); err != nil {
		return nil, fmt.Errorf("bad due date %q: %w", dueDate, err)
	}
	if inst.CapitalAmount, err = decimal.NewFromString(capital); err != nil {
		return nil, fmt.Errorf("bad capital %q: %w", capital, err)
	}
	if inst.InterestAmount, err = decimal.NewFromString(interest); err != nil {
		return nil, fmt.Errorf("bad interest %q: %w", interest, err)
	}
	if inst.PaidAmount, err = decimal.NewFromString(paidAmount); err != nil {
		return nil, fmt.Errorf("bad paid amount %q: %w", paidAmount, err)
	}
	if paidAt.Valid {
		t, err := time.Parse(time.RFC3339, paidAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad paid at %q: %w", paidAt.String, err)
		}
		inst.PaidAt = &t
	}
	return inst, nil
}

func scanLedger(row scanner) (*obligation.LedgerTransaction, error) {
	var (
		id, branchID, txType, amount, concept, category string
		accrualDate, paymentDate, createdAt             string
		docStatus, origin, installmentID, key           sql.NullString
		recordedBy                                      string
	)
	err := row.Scan(&id, &branchID, &txType, &amount, &concept, &category,
		&accrualDate, &paymentDate, &docStatus, &origin, &recordedBy,
		&installmentID, &key, &createdAt)
	if err != nil {
		return nil, err
	}

	txn := &obligation.LedgerTransaction{
		ID:                  obligation.LedgerTransactionID(id),
		BranchID:            branchID,
		Type:                obligation.LedgerType(txType),
		Concept:             concept,
		CategoryGroup:       category,
		DocumentationStatus: docStatus.String,
		PaymentOrigin:       origin.String,
		RecordedBy:          recordedBy,
		InstallmentID:       obligation.InstallmentID(installmentID.String),
		IdempotencyKey:      key.String,
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	if txn.AccrualDate, err = time.ParseInLocation(dateFormat, accrualDate, time.UTC); err != nil {
		return nil, fmt.Errorf("bad accrual date %q: %w", accrualDate, err)
	}
	if txn.PaymentDate, err = time.ParseInLocation(dateFormat, paymentDate, time.UTC); err != nil {
		return nil, fmt.Errorf("bad payment date %q: %w", paymentDate, err)
	}
	if txn.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("bad created at %q: %w", createdAt, err)
	}
	return txn, nil
}
