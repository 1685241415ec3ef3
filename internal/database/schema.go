// Package database mirrors the symbol tables of the store into SQLite for
// workspace wide symbol search.
package database

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is stored in PRAGMA user_version.
const SchemaVersion = 1

type DB struct {
	Conn *sql.DB
	mu   sync.Mutex
}

// NewDB opens the SQLite database at dsn and creates the tables it is
// missing. ":memory:" keeps the index in process memory.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)

	db := &DB{Conn: conn}
	if err := db.setup(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}
	return db, nil
}

func (db *DB) setup() error {
	var version int
	if err := db.Conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	tx, err := db.Conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version != SchemaVersion {
		// The index is derived data, an old layout is simply rebuilt.
		for _, table := range []string{"symbols", "documents"} {
			if _, err := tx.Exec(`DROP TABLE IF EXISTS ` + table); err != nil {
				return fmt.Errorf("failed to drop %s: %w", table, err)
			}
		}
	}
	if err := createTables(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return tx.Commit()
}

func createTables(tx *sql.Tx) error {
	queries := []string{
		// One row per indexed document. hash is the xxhash of the text the
		// symbols were extracted from.
		`CREATE TABLE IF NOT EXISTS documents (
			uri TEXT PRIMARY KEY,
			hash INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS symbols (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uri TEXT NOT NULL,
			name TEXT NOT NULL,
			kind INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			start_character INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_character INTEGER NOT NULL,
			deprecated INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_symbols_uri ON symbols(uri)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`,
	}
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %w", query, err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.Conn.Close()
}
