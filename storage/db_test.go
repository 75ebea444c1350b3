package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func runDatabaseContract(t *testing.T, db Database) {
	t.Helper()
	key := []byte("ledger/brand/01")

	_, err := db.Get(key)
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := db.Has(key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put(key, []byte("payload")))
	value, err := db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), value)

	ok, err = db.Has(key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, db.Put(key, []byte("updated")))
	value, err = db.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("updated"), value)

	require.NoError(t, db.Delete(key))
	_, err = db.Get(key)
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, db.Delete(key))
}

func TestMemDBContract(t *testing.T) {
	db := NewMemDB()
	defer db.Close()
	runDatabaseContract(t, db)
}

func TestLevelDBContract(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "leveldb"))
	require.NoError(t, err)
	defer db.Close()
	runDatabaseContract(t, db)
}

func TestBoltDBContract(t *testing.T) {
	db, err := NewBoltDB(filepath.Join(t.TempDir(), "bolt.db"))
	require.NoError(t, err)
	defer db.Close()
	runDatabaseContract(t, db)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	value := []byte("original")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'X'

	stored, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("original"), stored)
}
