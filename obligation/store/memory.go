// Package store provides Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/hoppiness/debt-engine/obligation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	obligations  map[obligation.ObligationID]obligation.Obligation
	order        []obligation.ObligationID
	installments map[obligation.InstallmentID]obligation.Installment
	byObligation map[obligation.ObligationID][]obligation.InstallmentID
	ledger       []obligation.LedgerTransaction
	idempotency  map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		obligations:  make(map[obligation.ObligationID]obligation.Obligation),
		installments: make(map[obligation.InstallmentID]obligation.Installment),
		byObligation: make(map[obligation.ObligationID][]obligation.InstallmentID),
		idempotency:  make(map[string]bool),
	}
}

var _ obligation.TxStore = (*Memory)(nil)

// CreateObligation stores the obligation and its complete installment set.
func (m *Memory) CreateObligation(ctx context.Context, ob *obligation.Obligation, installments []obligation.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createObligationLocked(ob, installments)
}

func (m *Memory) createObligationLocked(ob *obligation.Obligation, installments []obligation.Installment) error {
	m.obligations[ob.ID] = *ob
	m.order = append(m.order, ob.ID)

	ids := make([]obligation.InstallmentID, len(installments))
	for i, inst := range installments {
		m.installments[inst.ID] = inst
		ids[i] = inst.ID
	}
	m.byObligation[ob.ID] = ids
	return nil
}

func (m *Memory) GetObligation(ctx context.Context, id obligation.ObligationID) (*obligation.ObligationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getObligationLocked(id)
}

func (m *Memory) getObligationLocked(id obligation.ObligationID) (*obligation.ObligationRecord, error) {
	ob, ok := m.obligations[id]
	if !ok {
		return nil, &obligation.NotFoundError{Kind: "obligation", ID: string(id)}
	}

	ids := m.byObligation[id]
	installments := make([]obligation.Installment, len(ids))
	for i, instID := range ids {
		installments[i] = m.installments[instID]
	}
	return &obligation.ObligationRecord{Obligation: &ob, Installments: installments}, nil
}

func (m *Memory) ListObligations(ctx context.Context, branchID string) ([]obligation.ObligationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []obligation.ObligationRecord
	for _, id := range m.order {
		ob := m.obligations[id]
		if ob.BranchID != branchID {
			continue
		}
		rec, err := m.getObligationLocked(id)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (m *Memory) GetInstallment(ctx context.Context, id obligation.InstallmentID) (*obligation.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getInstallmentLocked(id)
}

func (m *Memory) getInstallmentLocked(id obligation.InstallmentID) (*obligation.Installment, error) {
	inst, ok := m.installments[id]
	if !ok {
		return nil, &obligation.NotFoundError{Kind: "installment", ID: string(id)}
	}
	return &inst, nil
}

// UpdateInstallment compares-and-swaps the version token.
func (m *Memory) UpdateInstallment(ctx context.Context, inst *obligation.Installment, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateInstallmentLocked(inst, expectedVersion)
}

func (m *Memory) updateInstallmentLocked(inst *obligation.Installment, expectedVersion int64) error {
	current, ok := m.installments[inst.ID]
	if !ok {
		return &obligation.NotFoundError{Kind: "installment", ID: string(inst.ID)}
	}
	if current.Version != expectedVersion {
		return obligation.ErrConcurrentModification
	}
	inst.Version = expectedVersion + 1
	m.installments[inst.ID] = *inst
	return nil
}

func (m *Memory) UpdateObligationStatus(ctx context.Context, id obligation.ObligationID, status obligation.ObligationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateObligationStatusLocked(id, status)
}

func (m *Memory) updateObligationStatusLocked(id obligation.ObligationID, status obligation.ObligationStatus) error {
	ob, ok := m.obligations[id]
	if !ok {
		return &obligation.NotFoundError{Kind: "obligation", ID: string(id)}
	}
	ob.Status = status
	m.obligations[id] = ob
	return nil
}

func (m *Memory) InsertLedgerTransaction(ctx context.Context, txn *obligation.LedgerTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLedgerLocked(txn)
}

func (m *Memory) insertLedgerLocked(txn *obligation.LedgerTransaction) error {
	if txn.IdempotencyKey != "" && m.idempotency[txn.IdempotencyKey] {
		return obligation.ErrDuplicatePayment
	}
	m.ledger = append(m.ledger, *txn)
	if txn.IdempotencyKey != "" {
		m.idempotency[txn.IdempotencyKey] = true
	}
	return nil
}

func (m *Memory) LedgerKeyExists(ctx context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.idempotency[idempotencyKey], nil
}

func (m *Memory) ListLedgerTransactions(ctx context.Context, branchID string) ([]obligation.LedgerTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []obligation.LedgerTransaction
	for _, txn := range m.ledger {
		if txn.BranchID == branchID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (m *Memory) ListActiveObligationIDs(ctx context.Context) ([]obligation.ObligationID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listActiveLocked(), nil
}

func (m *Memory) listActiveLocked() []obligation.ObligationID {
	var ids []obligation.ObligationID
	for _, id := range m.order {
		if m.obligations[id].Status == obligation.StatusActive {
			ids = append(ids, id)
		}
	}
	return ids
}

// =============================================================================
// TRANSACTIONS - Snapshot/restore emulation of WithTx
// =============================================================================

// WithTx runs fn against a transaction view under the write lock. On error
// the pre-transaction snapshot is restored, so partial change sets are
// never observable.
func (m *Memory) WithTx(ctx context.Context, fn func(obligation.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshotLocked()
	if err := fn(&memoryTx{m}); err != nil {
		m.restoreLocked(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	obligations  map[obligation.ObligationID]obligation.Obligation
	order        []obligation.ObligationID
	installments map[obligation.InstallmentID]obligation.Installment
	byObligation map[obligation.ObligationID][]obligation.InstallmentID
	ledger       []obligation.LedgerTransaction
	idempotency  map[string]bool
}

func (m *Memory) snapshotLocked() memSnapshot {
	snap := memSnapshot{
		obligations:  make(map[obligation.ObligationID]obligation.Obligation, len(m.obligations)),
		order:        append([]obligation.ObligationID(nil), m.order...),
		installments: make(map[obligation.InstallmentID]obligation.Installment, len(m.installments)),
		byObligation: make(map[obligation.ObligationID][]obligation.InstallmentID, len(m.byObligation)),
		ledger:       append([]obligation.LedgerTransaction(nil), m.ledger...),
		idempotency:  make(map[string]bool, len(m.idempotency)),
	}
	for k, v := range m.obligations {
		snap.obligations[k] = v
	}
	for k, v := range m.installments {
		snap.installments[k] = v
	}
	for k, v := range m.byObligation {
		snap.byObligation[k] = append([]obligation.InstallmentID(nil), v...)
	}
	for k, v := range m.idempotency {
		snap.idempotency[k] = v
	}
	return snap
}

func (m *Memory) restoreLocked(snap memSnapshot) {
	m.obligations = snap.obligations
	m.order = snap.order
	m.installments = snap.installments
	m.byObligation = snap.byObligation
	m.ledger = snap.ledger
	m.idempotency = snap.idempotency
}

// memoryTx is the in-transaction view. The parent already holds the write
// lock, so it calls the locked implementations directly.
type memoryTx struct {
	parent *Memory
}

func (t *memoryTx) CreateObligation(_ context.Context, ob *obligation.Obligation, installments []obligation.Installment) error {
	return t.parent.createObligationLocked(ob, installments)
}

func (t *memoryTx) GetObligation(_ context.Context, id obligation.ObligationID) (*obligation.ObligationRecord, error) {
	return t.parent.getObligationLocked(id)
}

func (t *memoryTx) ListObligations(_ context.Context, branchID string) ([]obligation.ObligationRecord, error) {
	var records []obligation.ObligationRecord
	for _, id := range t.parent.order {
		if t.parent.obligations[id].BranchID != branchID {
			continue
		}
		rec, err := t.parent.getObligationLocked(id)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (t *memoryTx) GetInstallment(_ context.Context, id obligation.InstallmentID) (*obligation.Installment, error) {
	return t.parent.getInstallmentLocked(id)
}

func (t *memoryTx) UpdateInstallment(_ context.Context, inst *obligation.Installment, expectedVersion int64) error {
	return t.parent.updateInstallmentLocked(inst, expectedVersion)
}

func (t *memoryTx) UpdateObligationStatus(_ context.Context, id obligation.ObligationID, status obligation.ObligationStatus) error {
	return t.parent.updateObligationStatusLocked(id, status)
}

func (t *memoryTx) InsertLedgerTransaction(_ context.Context, txn *obligation.LedgerTransaction) error {
	return t.parent.insertLedgerLocked(txn)
}

func (t *memoryTx) LedgerKeyExists(_ context.Context, idempotencyKey string) (bool, error) {
	return t.parent.idempotency[idempotencyKey], nil
}

func (t *memoryTx) ListLedgerTransactions(_ context.Context, branchID string) ([]obligation.LedgerTransaction, error) {
	var out []obligation.LedgerTransaction
	for _, txn := range t.parent.ledger {
		if txn.BranchID == branchID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (t *memoryTx) ListActiveObligationIDs(_ context.Context) ([]obligation.ObligationID, error) {
	return t.parent.listActiveLocked(), nil
}
