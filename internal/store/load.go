package store

import (
	"database/sql"

	"ospanel/internal/models"
)

// Load is a single-transaction bulk ingestion handle. A replace-mode run
// clears and reloads inside the same transaction, so a failed run can never
// leave the table empty or half-replaced.
type Load struct {
	s    *Store
	tx   *sql.Tx
	done bool
}

// BeginLoad starts a bulk load. The store's write lock is held until Commit
// or Rollback, serializing the load against all other mutations.
func (s *Store) BeginLoad() (*Load, error) {
	s.writeMu.Lock()
	tx, err := s.db.Begin()
	if err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	return &Load{s: s, tx: tx}, nil
}

// Clear deletes every existing order within the load transaction.
func (l *Load) Clear() error {
	_, err := l.tx.Exec("DELETE FROM service_orders")
	return err
}

// Insert appends one order within the load transaction.
func (l *Load) Insert(o *models.Order) (int64, error) {
	return insertOrder(l.tx, o)
}

// Exists reports whether an order matching the natural key exists, including
// rows staged earlier in this same load.
func (l *Load) Exists(key map[string]string) (bool, error) {
	return existsIn(l.tx, key)
}

// Commit makes the load durable and releases the write lock.
func (l *Load) Commit() error {
	if l.done {
		return nil
	}
	l.done = true
	err := l.tx.Commit()
	l.s.invalidate()
	l.s.writeMu.Unlock()
	return err
}

// Rollback discards the load. Safe to call after Commit (no-op), so callers
// can defer it.
func (l *Load) Rollback() error {
	if l.done {
		return nil
	}
	l.done = true
	err := l.tx.Rollback()
	l.s.writeMu.Unlock()
	return err
}
