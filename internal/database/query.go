package database

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

// Entry is one indexed declaration.
type Entry struct {
	URI        string
	Name       string
	Kind       symbols.Kind
	Range      lsp.Range
	Deprecated bool
}

// Record replaces the indexed symbols of doc. A document whose hash did
// not change is left alone.
func (db *DB) Record(doc *symbols.Document) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var hash int64
	err := db.Conn.QueryRow(`SELECT hash FROM documents WHERE uri = ?`, doc.URI).Scan(&hash)
	switch {
	case err == nil && uint64(hash) == doc.Hash:
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to get document %s: %w", doc.URI, err)
	}

	tx, err := db.Conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM symbols WHERE uri = ?`, doc.URI); err != nil {
		return fmt.Errorf("failed to delete symbols of %s: %w", doc.URI, err)
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO documents (uri, hash) VALUES (?, ?)`, doc.URI, int64(doc.Hash)); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.URI, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO symbols (uri, name, kind, start_line, start_character, end_line, end_character, deprecated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range doc.Symbols() {
		r := s.Range
		if _, err := stmt.Exec(doc.URI, s.Name, int(s.Kind()),
			r.Start.Line, r.Start.Character, r.End.Line, r.End.Character,
			s.Doc.IsDeprecated()); err != nil {
			return fmt.Errorf("failed to insert %s: %w", s.Name, err)
		}
	}
	return tx.Commit()
}

// Remove drops uri from the index.
func (db *DB) Remove(uri string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM symbols WHERE uri = ?`, uri); err != nil {
		return fmt.Errorf("failed to delete symbols of %s: %w", uri, err)
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE uri = ?`, uri); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", uri, err)
	}
	return tx.Commit()
}

// Clear empties the index.
func (db *DB) Clear() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.Conn.Exec(`DELETE FROM symbols; DELETE FROM documents;`)
	return err
}

// Documents lists the indexed URIs.
func (db *DB) Documents() ([]string, error) {
	return db.getStringsFromQuery(`SELECT uri FROM documents ORDER BY uri`)
}

// Search returns up to limit symbols whose name contains the characters of
// query in order, best matches first. An empty query matches everything.
func (db *DB) Search(query string, limit int) ([]Entry, error) {
	rows, err := db.Conn.Query(`
		SELECT uri, name, kind, start_line, start_character, end_line, end_character, deprecated
		FROM symbols
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY name, uri`, pattern(query))
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var e Entry
		var kind int
		if err := rows.Scan(&e.URI, &e.Name, &kind,
			&e.Range.Start.Line, &e.Range.Start.Character, &e.Range.End.Line, &e.Range.End.Character,
			&e.Deprecated); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		e.Kind = symbols.Kind(kind)
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error encountered while iterating over rows: %w", err)
	}

	if query != "" {
		rank(results, query)
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// pattern turns query into a LIKE pattern matching its characters as a
// subsequence. LIKE is case insensitive for ASCII.
func pattern(query string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range symbols.StripSigil(query) {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		b.WriteByte('%')
	}
	return b.String()
}

// rank orders entries by Jaro-Winkler similarity of their bare name to
// query. Ties keep the name order of the query.
func rank(entries []Entry, query string) {
	q := strings.ToLower(symbols.StripSigil(query))
	scores := make(map[string]float32, len(entries))
	for _, e := range entries {
		name := strings.ToLower(symbols.StripSigil(e.Name))
		if _, ok := scores[name]; ok {
			continue
		}
		score, err := edlib.StringsSimilarity(q, name, edlib.JaroWinkler)
		if err != nil {
			score = 0
		}
		scores[name] = score
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a := scores[strings.ToLower(symbols.StripSigil(entries[i].Name))]
		b := scores[strings.ToLower(symbols.StripSigil(entries[j].Name))]
		return a > b
	})
}

func (db *DB) getStringsFromQuery(query string, args ...any) ([]string, error) {
	rows, err := db.Conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error encountered while iterating over rows: %w", err)
	}
	return results, nil
}
