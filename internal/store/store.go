// Package store is the SQLite persistence layer: a catalog of indexed
// trees and a cache of computed distances, keyed by content hash and cost
// triple so results survive across runs.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS trees (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL,
  language        TEXT NOT NULL,
  hash            TEXT NOT NULL UNIQUE,
  node_count      INTEGER NOT NULL,
  last_indexed    TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_trees_path ON trees(path);

CREATE TABLE IF NOT EXISTS distances (
  id              INTEGER PRIMARY KEY,
  left_hash       TEXT NOT NULL,
  right_hash      TEXT NOT NULL,
  insert_cost     INTEGER NOT NULL,
  delete_cost     INTEGER NOT NULL,
  relabel_cost    INTEGER NOT NULL,
  distance        INTEGER NOT NULL,
  computed_at     TIMESTAMP,
  UNIQUE(left_hash, right_hash, insert_cost, delete_cost, relabel_cost)
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);
`

// UpsertTree inserts a tree record, or refreshes path, node_count, and
// last_indexed when a record with the same content hash already exists.
// Returns the record's ID.
func (s *Store) UpsertTree(t *Tree) (int64, error) {
	_, err := s.db.Exec(`
		INSERT INTO trees (path, language, hash, node_count, last_indexed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
		  path = excluded.path,
		  node_count = excluded.node_count,
		  last_indexed = excluded.last_indexed`,
		t.Path, t.Language, t.Hash, t.NodeCount, t.LastIndexed)
	if err != nil {
		return 0, fmt.Errorf("upsert tree: %w", err)
	}

	var id int64
	if err := s.db.QueryRow(`SELECT id FROM trees WHERE hash = ?`, t.Hash).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert tree: read id: %w", err)
	}
	t.ID = id
	return id, nil
}

// TreeByHash returns the tree record with the given content hash, or nil if
// none exists.
func (s *Store) TreeByHash(hash string) (*Tree, error) {
	t := &Tree{}
	err := s.db.QueryRow(`
		SELECT id, path, language, hash, node_count, last_indexed
		FROM trees WHERE hash = ?`, hash).
		Scan(&t.ID, &t.Path, &t.Language, &t.Hash, &t.NodeCount, &t.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tree by hash: %w", err)
	}
	return t, nil
}

// TreeByPath returns the most recently indexed tree record for a path, or
// nil if the path has never been indexed.
func (s *Store) TreeByPath(path string) (*Tree, error) {
	t := &Tree{}
	err := s.db.QueryRow(`
		SELECT id, path, language, hash, node_count, last_indexed
		FROM trees WHERE path = ?
		ORDER BY last_indexed DESC LIMIT 1`, path).
		Scan(&t.ID, &t.Path, &t.Language, &t.Hash, &t.NodeCount, &t.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tree by path: %w", err)
	}
	return t, nil
}

// InsertDistance records a computed distance, overwriting any previous
// result for the same hash pair and cost triple.
func (s *Store) InsertDistance(d *Distance) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO distances
		  (left_hash, right_hash, insert_cost, delete_cost, relabel_cost, distance, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(left_hash, right_hash, insert_cost, delete_cost, relabel_cost)
		DO UPDATE SET distance = excluded.distance, computed_at = excluded.computed_at`,
		d.LeftHash, d.RightHash, d.InsertCost, d.DeleteCost, d.RelabelCost, d.Value, d.ComputedAt)
	if err != nil {
		return 0, fmt.Errorf("insert distance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert distance: %w", err)
	}
	d.ID = id
	return id, nil
}

// LookupDistance returns the cached distance for a hash pair and cost
// triple. The second return is false when no cached result exists.
func (s *Store) LookupDistance(leftHash, rightHash string, insertCost, deleteCost, relabelCost int64) (int64, bool, error) {
	var v int64
	err := s.db.QueryRow(`
		SELECT distance FROM distances
		WHERE left_hash = ? AND right_hash = ?
		  AND insert_cost = ? AND delete_cost = ? AND relabel_cost = ?`,
		leftHash, rightHash, insertCost, deleteCost, relabelCost).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup distance: %w", err)
	}
	return v, true, nil
}

// ClearDistances drops every cached distance. Used when the shaping rules
// change, since cached results are only valid for the rules that produced
// the labeled trees.
func (s *Store) ClearDistances() error {
	if _, err := s.db.Exec(`DELETE FROM distances`); err != nil {
		return fmt.Errorf("clear distances: %w", err)
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" if absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return v, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}
