package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/btagcfg/internal/pset"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Entry is one catalogued parameter set.
type Entry struct {
	ID     string
	Label  string
	Plugin string
	Set    pset.Set
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteParameterSet stores s under its content-addressed ID.
// Writing an existing set is a no-op and reports inserted=false.
func (s *Store) WriteParameterSet(ctx context.Context, set pset.Set) (id string, inserted bool, err error) {
	return writeParameterSet(ctx, s.db, set)
}

func writeParameterSet(ctx context.Context, ex execer, set pset.Set) (string, bool, error) {
	canonical, err := set.Canonical()
	if err != nil {
		return "", false, fmt.Errorf("write parameter set: %w", err)
	}
	id, err := set.ID()
	if err != nil {
		return "", false, fmt.Errorf("write parameter set: %w", err)
	}

	res, err := ex.ExecContext(ctx, `
		INSERT INTO parameter_sets (id, label, plugin, canonical)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, set.Label, set.Plugin, string(canonical))
	if err != nil {
		return "", false, fmt.Errorf("write parameter set %s: %w", set.Label, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write parameter set: rows affected: %w", err)
	}
	return id, n > 0, nil
}

// ReadParameterSet returns the set stored under id. Entries come back
// sorted by name; see pset.ParseCanonical.
func (s *Store) ReadParameterSet(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, plugin, canonical
		FROM parameter_sets
		WHERE id = ?
	`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("parameter set %s: %w", id, ErrNotFound)
	}
	return e, err
}

// ListParameterSets returns catalogued sets in insertion order. An empty
// label lists all of them.
func (s *Store) ListParameterSets(ctx context.Context, label string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, plugin, canonical
		FROM parameter_sets
		WHERE ? = '' OR label = ?
		ORDER BY rowid ASC, id COLLATE BINARY ASC
	`, label, label)
	if err != nil {
		return nil, fmt.Errorf("query parameter sets: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parameter sets: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	var canonical string
	if err := sc.Scan(&e.ID, &e.Label, &e.Plugin, &canonical); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan parameter set: %w", err)
	}

	set, err := pset.ParseCanonical([]byte(canonical))
	if err != nil {
		return Entry{}, fmt.Errorf("parameter set %s: %w", e.ID, err)
	}
	e.Set = set
	return e, nil
}
