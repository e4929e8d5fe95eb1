// SPDX-License-Identifier: MPL-2.0

// Package txn provides a minimal compensation ledger for multi-step
// filesystem operations. Callers open a transaction scope with Run, perform
// their mutations inside it, and enlist (commit, rollback) action pairs as
// they go. When the scope resolves, exactly one action of every pair fires:
// the commits on success, the rollbacks on failure.
//
// The ledger is deliberately not a general transaction manager. It knows
// nothing about the actions it holds, persists nothing across process
// restarts, and assumes single-threaded use within one operation — the same
// model the rest of the CLI runs under.
package txn

import "errors"

// ErrDone is returned by Enlist after the transaction has resolved.
// A resolved transaction cannot accept further compensations.
var ErrDone = errors.New("transaction already resolved")

type entry struct {
	commit   func()
	rollback func()
}

// Tx is an in-flight transaction holding enlisted compensations. Create one
// with New, or (preferably) let Run manage the lifecycle. The zero value is
// not usable.
type Tx struct {
	entries  []entry
	resolved bool
}

// New creates an open transaction. Most callers should use Run instead,
// which guarantees the transaction resolves on every exit path.
func New() *Tx {
	return &Tx{}
}

// Enlist registers a compensation pair against the transaction. Later
// enlistments undo more deeply nested state, so rollbacks fire in reverse
// registration order while commits fire in registration order.
//
// Both actions may be nil; enlisting a fully nil pair is a no-op. Enlisting
// after the transaction has resolved returns ErrDone.
func (t *Tx) Enlist(commit, rollback func()) error {
	if t.resolved {
		return ErrDone
	}
	if commit == nil && rollback == nil {
		return nil
	}
	t.entries = append(t.entries, entry{commit: commit, rollback: rollback})
	return nil
}

// Commit resolves the transaction successfully, running every enlisted
// commit action in registration order. Calling Commit or Rollback on an
// already resolved transaction is a no-op; each action runs at most once.
func (t *Tx) Commit() {
	if t.resolved {
		return
	}
	t.resolved = true
	for _, e := range t.entries {
		if e.commit != nil {
			e.commit()
		}
	}
	t.entries = nil
}

// Rollback resolves the transaction as failed, running every enlisted
// rollback action in reverse registration order.
func (t *Tx) Rollback() {
	if t.resolved {
		return
	}
	t.resolved = true
	for i := len(t.entries) - 1; i >= 0; i-- {
		if e := t.entries[i]; e.rollback != nil {
			e.rollback()
		}
	}
	t.entries = nil
}

// Resolved reports whether the transaction has committed or rolled back.
func (t *Tx) Resolved() bool {
	return t.resolved
}

// Run executes fn inside a fresh transaction scope. The transaction commits
// when fn returns nil and rolls back when fn returns an error or panics
// (the panic is re-raised after rollback). Exactly one of the two outcomes
// fires on every exit path.
func Run(fn func(tx *Tx) error) error {
	tx := New()
	defer func() {
		// Covers the panic path; on normal paths the transaction has
		// already resolved and this is a no-op.
		tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	tx.Commit()
	return nil
}
