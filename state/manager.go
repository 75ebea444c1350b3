package state

import (
	"errors"

	"brandchain/storage"
)

// Snapshotter is the revert surface the transaction manager needs from the
// external currency ledger so that reservations stay in lockstep with the
// keyed store across rollbacks.
type Snapshotter interface {
	Snapshot() int
	RevertToSnapshot(rev int)
	DiscardSnapshot(rev int)
}

// Manager hands out transactional views over the underlying database. The
// host replays one operation at a time, so transactions never overlap.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager over the supplied key-value store.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens a buffered view. Reads see pending writes; nothing reaches the
// database until Commit.
func (m *Manager) Begin() *Transaction {
	return &Transaction{
		db:      m.db,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
		order:   nil,
	}
}

// Apply runs fn inside a fresh transaction, committing the buffered writes on
// success and discarding them on failure. When a currency snapshotter is
// supplied its state is reverted together with the store, giving callers the
// all-or-nothing property.
func (m *Manager) Apply(bank Snapshotter, fn func(*Transaction) error) error {
	tx := m.Begin()
	rev := -1
	if bank != nil {
		rev = bank.Snapshot()
	}
	if err := fn(tx); err != nil {
		if bank != nil {
			bank.RevertToSnapshot(rev)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if bank != nil {
			bank.RevertToSnapshot(rev)
		}
		return err
	}
	if bank != nil {
		bank.DiscardSnapshot(rev)
	}
	return nil
}

// Transaction buffers writes and deletes over the database. It implements the
// state interfaces of the brand registry, the token ledger and the
// marketplace engines.
type Transaction struct {
	db      storage.Database
	pending map[string][]byte
	deleted map[string]struct{}
	order   []string
}

var errCommitted = errors.New("state: transaction already committed")

func (tx *Transaction) get(key []byte) ([]byte, bool, error) {
	if tx.pending == nil {
		return nil, false, errCommitted
	}
	k := string(key)
	if _, gone := tx.deleted[k]; gone {
		return nil, false, nil
	}
	if value, ok := tx.pending[k]; ok {
		return append([]byte(nil), value...), true, nil
	}
	value, err := tx.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (tx *Transaction) put(key, value []byte) error {
	if tx.pending == nil {
		return errCommitted
	}
	k := string(key)
	delete(tx.deleted, k)
	if _, seen := tx.pending[k]; !seen {
		tx.order = append(tx.order, k)
	}
	tx.pending[k] = append([]byte(nil), value...)
	return nil
}

func (tx *Transaction) delete(key []byte) error {
	if tx.pending == nil {
		return errCommitted
	}
	k := string(key)
	delete(tx.pending, k)
	tx.deleted[k] = struct{}{}
	return nil
}

// Commit flushes the buffered writes to the database in write order and
// marks the transaction as finished.
func (tx *Transaction) Commit() error {
	if tx.pending == nil {
		return errCommitted
	}
	for key := range tx.deleted {
		if err := tx.db.Delete([]byte(key)); err != nil {
			return err
		}
	}
	for _, key := range tx.order {
		value, ok := tx.pending[key]
		if !ok {
			continue
		}
		if err := tx.db.Put([]byte(key), value); err != nil {
			return err
		}
	}
	tx.pending = nil
	tx.deleted = nil
	tx.order = nil
	return nil
}
