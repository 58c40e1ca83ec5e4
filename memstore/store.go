// Package memstore is the in-memory target of an initial load.
//
// Records are kept in a single go-memdb table indexed by (table, key), which makes
// point lookups and per-table scans cheap once the load has finished.
package memstore

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/hashicorp/go-memdb"
	"github.com/pkg/errors"
)

const (
	recordsTable = "records"
	idIndex      = "id"    // unique lookup by (table, key)
	tableIndex   = "table" // every record of one source table
)

// Record is one row copied from a source table.
// A Record passed to Load *must not* be subsequently modified.
type Record struct {
	// Table the row was read from.
	Table string
	// Key is the string form of the row's key column.
	Key string
	// Fields holds every selected column by name.
	Fields map[string]any
}

// Store wraps a go-memdb database holding Records.
type Store struct {
	db *memdb.MemDB
}

func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{db: db}, nil
}

// Load inserts every record of seq, committing a write transaction every batch
// records. It stops at the first error from seq, from ctx or from the insert; records
// committed by earlier transactions stay in the store. A record with an existing
// (table, key) replaces the previous one. Load returns the number of records committed.
func (s *Store) Load(ctx context.Context, seq iter.Seq2[Record, error], batch int) (int, error) {
	if batch <= 0 {
		return 0, errors.Errorf("memstore: batch must be > 0, got %d", batch)
	}

	committed, pending := 0, 0
	txn := s.db.Txn(true)
	defer func() {
		// no-op after Commit
		txn.Abort()
	}()

	for rec, err := range seq {
		if err != nil {
			return committed, err
		}
		if err := ctx.Err(); err != nil {
			return committed, errors.WithStack(err)
		}
		r := rec
		if err := txn.Insert(recordsTable, &r); err != nil {
			return committed, errors.Wrapf(err, "inserting %s/%s", r.Table, r.Key)
		}
		pending++
		if pending == batch {
			txn.Commit()
			committed += pending
			pending = 0
			txn = s.db.Txn(true)
		}
	}

	txn.Commit()
	committed += pending
	return committed, nil
}

// Get returns the record with the given table and key or nil if no such record exists.
// The Record returned by this function *must not* be subsequently modified.
func (s *Store) Get(table, key string) (*Record, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(recordsTable, idIndex, table, key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if obj == nil {
		return nil, nil
	}
	rec, ok := obj.(*Record)
	if !ok {
		panic(fmt.Sprintf("expected *Record, but got %T", obj))
	}
	return rec, nil
}

// Count returns the number of records read from table.
func (s *Store) Count(table string) (int, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(recordsTable, tableIndex, table)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

// Tables returns the sorted names of every table with at least one record.
func (s *Store) Tables() ([]string, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(recordsTable, tableIndex)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var tables []string
	for obj := it.Next(); obj != nil; obj = it.Next() {
		t := obj.(*Record).Table
		// the table index yields records grouped by table
		if len(tables) == 0 || tables[len(tables)-1] != t {
			tables = append(tables, t)
		}
	}
	sort.Strings(tables)
	return tables, nil
}

// schema creates the database schema: a single "records" table.
func schema() *memdb.DBSchema {
	indexes := make(map[string]*memdb.IndexSchema)
	indexes[idIndex] = &memdb.IndexSchema{
		Name:   idIndex,
		Unique: true,
		Indexer: &memdb.CompoundIndex{
			Indexes: []memdb.Indexer{
				&memdb.StringFieldIndex{Field: "Table"},
				&memdb.StringFieldIndex{Field: "Key"},
			},
		},
	}
	indexes[tableIndex] = &memdb.IndexSchema{
		Name:    tableIndex,
		Unique:  false,
		Indexer: &memdb.StringFieldIndex{Field: "Table"},
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			recordsTable: {
				Name:    recordsTable,
				Indexes: indexes,
			},
		},
	}
}
