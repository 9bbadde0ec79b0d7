package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/btagcfg/internal/pset"
)

// Job records one registration run and the parameter sets it configured.
type Job struct {
	ID              string
	Source          string
	ParameterSetIDs []string // in configuration order
}

// WrittenSet reports where a parameter set landed in the catalog.
type WrittenSet struct {
	ID       string
	Inserted bool // false when the catalog already held it
}

// WriteJob stores a job and its membership in one transaction. Every
// referenced parameter set must already be in the catalog.
func (s *Store) WriteJob(ctx context.Context, job Job) error {
	if job.ID == "" {
		return fmt.Errorf("write job: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write job: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := insertJob(ctx, tx, job); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write job %s: commit: %w", job.ID, err)
	}
	return nil
}

// RegisterJob writes sets and a job referencing them, in that order, as a
// single transaction. Nothing is kept if any write fails. The job's
// ParameterSetIDs are taken from sets.
func (s *Store) RegisterJob(ctx context.Context, job Job, sets []pset.Set) ([]WrittenSet, error) {
	if job.ID == "" {
		return nil, fmt.Errorf("register job: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("register job: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	written := make([]WrittenSet, 0, len(sets))
	job.ParameterSetIDs = make([]string, 0, len(sets))
	for _, set := range sets {
		id, inserted, err := writeParameterSet(ctx, tx, set)
		if err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.ID, err)
		}
		written = append(written, WrittenSet{ID: id, Inserted: inserted})
		job.ParameterSetIDs = append(job.ParameterSetIDs, id)
	}

	if err := insertJob(ctx, tx, job); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("register job %s: commit: %w", job.ID, err)
	}
	return written, nil
}

func insertJob(ctx context.Context, ex execer, job Job) error {
	if _, err := ex.ExecContext(ctx, `
		INSERT INTO jobs (id, source) VALUES (?, ?)
	`, job.ID, job.Source); err != nil {
		return fmt.Errorf("write job %s: %w", job.ID, err)
	}

	for i, psetID := range job.ParameterSetIDs {
		if _, err := ex.ExecContext(ctx, `
			INSERT INTO job_parameter_sets (job_id, pset_id, ord) VALUES (?, ?, ?)
		`, job.ID, psetID, i); err != nil {
			return fmt.Errorf("write job %s: parameter set %s: %w", job.ID, psetID, err)
		}
	}
	return nil
}

// ReadJob returns a job with its parameter-set IDs in configuration order.
func (s *Store) ReadJob(ctx context.Context, id string) (Job, error) {
	job := Job{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT source FROM jobs WHERE id = ?`, id).Scan(&job.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("read job %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pset_id FROM job_parameter_sets
		WHERE job_id = ?
		ORDER BY ord ASC
	`, id)
	if err != nil {
		return Job{}, fmt.Errorf("read job %s: %w", id, err)
	}
	defer rows.Close()

	job.ParameterSetIDs = []string{}
	for rows.Next() {
		var psetID string
		if err := rows.Scan(&psetID); err != nil {
			return Job{}, fmt.Errorf("read job %s: %w", id, err)
		}
		job.ParameterSetIDs = append(job.ParameterSetIDs, psetID)
	}
	if err := rows.Err(); err != nil {
		return Job{}, fmt.Errorf("read job %s: %w", id, err)
	}
	return job, nil
}
