package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"webbank/logger"
)

// IAtomic runs a function as one all-or-nothing unit against the store.
type IAtomic interface {
	Run(ctx context.Context, keys []string, fn func(q Querier) error) error
}

// Atomic executes transfer units. When the store supports transactions the
// unit runs inside BeginTx/Commit and relies on the store's isolation for
// the no-lost-update guarantee. When it does not, the same sequence runs
// directly against the DB while holding per-IBAN mutexes, acquired in
// lexicographic order so two transfers crossing the same account pair in
// opposite directions cannot deadlock.
type Atomic struct {
	db    *sql.DB
	useTx bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAtomic creates an Atomic runner. useTx is decided once at startup (a
// config flag plus a probe, see DetectTransactionSupport), never per call.
func NewAtomic(db *sql.DB, useTx bool) *Atomic {
	return &Atomic{
		db:    db,
		useTx: useTx,
		locks: make(map[string]*sync.Mutex),
	}
}

// DetectTransactionSupport probes the store with an empty begin/rollback
// pair. A store that cannot open a transaction scope is a valid single-node
// deployment, not a fatal condition; callers downgrade to lock-based units.
func DetectTransactionSupport(db *sql.DB) bool {
	tx, err := db.Begin()
	if err != nil {
		logger.Log.WithError(err).Warn("Store does not support transactions; falling back to per-IBAN locking")
		return false
	}
	if err := tx.Rollback(); err != nil {
		logger.Log.WithError(err).Warn("Transaction probe rollback failed; falling back to per-IBAN locking")
		return false
	}
	return true
}

// Run executes fn atomically. keys are the IBANs the unit will touch; they
// are only consulted on the fallback path.
func (a *Atomic) Run(ctx context.Context, keys []string, fn func(q Querier) error) error {
	if a.useTx {
		return a.runTx(ctx, fn)
	}
	return a.runLocked(keys, fn)
}

func (a *Atomic) runTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func (a *Atomic) runLocked(keys []string, fn func(q Querier) error) error {
	ordered := dedupeSorted(keys)
	for _, key := range ordered {
		a.lockFor(key).Lock()
	}
	defer func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			a.lockFor(ordered[i]).Unlock()
		}
	}()

	return fn(a.db)
}

func (a *Atomic) lockFor(key string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[key]
	if !ok {
		l = &sync.Mutex{}
		a.locks[key] = l
	}
	return l
}

func dedupeSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
