package storage

import "figmatext/internal/domain"

// Store bundles the SQL-backed stores over one DB into a domain.Store.
type Store struct {
	*DB
	*SnapshotStore
	*RunLogStore
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Store over db.
func NewStore(db *DB) *Store {
	return &Store{
		DB:            db,
		SnapshotStore: NewSnapshotStore(db),
		RunLogStore:   NewRunLogStore(db),
	}
}
