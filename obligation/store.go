/*
store.go - Persistence interface for obligations, installments, and ledger

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage; the same patterns
  apply to PostgreSQL.

KEY INTERFACES:
  Store:   Obligation/installment/ledger persistence
  TxStore: Transactional operations (atomic multi-table writes)

WRITE DISCIPLINE:
  - CreateObligation persists the obligation and its full installment set
    as one unit: a partially created obligation must never be observable.
  - UpdateInstallment compares-and-swaps the installment Version. A stale
    version fails with ErrConcurrentModification, which is how the
    paidAmount ≤ total invariant is enforced server-side.
  - Ledger transactions are append-only. The idempotency key is unique;
    a repeated key fails the whole change set.
  - Nothing deletes obligations or installments - cancellation is a
    status flag.

ATOMIC CHANGE SETS:
  WithTx() ensures all-or-nothing semantics. A payment updates one
  installment and inserts up to two ledger entries; either all land or
  none do. This prevents installment state drifting from the books.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - obligation/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: The only writer through this interface
  - posting.go: Ledger write path
*/
package obligation

import "context"

// =============================================================================
// STORE - Persistence for obligations, installments, and ledger entries
// =============================================================================

// ObligationRecord pairs an obligation with its eager-loaded installments,
// ordered by number.
type ObligationRecord struct {
	Obligation   *Obligation
	Installments []Installment
}

type Store interface {
	// CreateObligation persists an obligation together with its complete
	// installment set. Atomic: either everything is visible or nothing is.
	CreateObligation(ctx context.Context, ob *Obligation, installments []Installment) error

	// GetObligation loads an obligation with installments eager-loaded,
	// ordered by installment number.
	GetObligation(ctx context.Context, id ObligationID) (*ObligationRecord, error)

	// ListObligations returns all obligations for a branch, installments
	// eager-loaded.
	ListObligations(ctx context.Context, branchID string) ([]ObligationRecord, error)

	// GetInstallment loads a single installment.
	GetInstallment(ctx context.Context, id InstallmentID) (*Installment, error)

	// UpdateInstallment writes PaidAmount, Status, PaidAt, and DueDate,
	// guarded by the optimistic version token: the write only applies if
	// the stored version equals expectedVersion, and bumps it by one
	// (reflected on inst.Version).
	// Returns ErrConcurrentModification on a stale version.
	UpdateInstallment(ctx context.Context, inst *Installment, expectedVersion int64) error

	// UpdateObligationStatus flips the obligation status flag.
	UpdateObligationStatus(ctx context.Context, id ObligationID, status ObligationStatus) error

	// InsertLedgerTransaction appends one bookkeeping entry. Fails if the
	// idempotency key already exists.
	InsertLedgerTransaction(ctx context.Context, txn *LedgerTransaction) error

	// LedgerKeyExists checks whether a payment idempotency key was already
	// recorded.
	LedgerKeyExists(ctx context.Context, idempotencyKey string) (bool, error)

	// ListLedgerTransactions returns the bookkeeping entries produced for
	// a branch, in insertion order.
	ListLedgerTransactions(ctx context.Context, branchID string) ([]LedgerTransaction, error)

	// ListActiveObligationIDs returns the ids of all obligations whose
	// status is active, across branches. Used by the periodic completion
	// sweep.
	ListActiveObligationIDs(ctx context.Context) ([]ObligationID, error)
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic operations across multiple writes
// =============================================================================

// TxStore wraps Store with transaction support.
// Use this when a change set spans tables (payment + postings).
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
