package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/timeline-badge/timeline/internal/engine/types"
)

// RecordFetch appends one finished fetch to the history.
func (s *Store) RecordFetch(e types.FetchEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO fetches (pass_id, resource, url, dest_path, bytes, from_cache, forced, status, error, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.PassID, e.Resource, e.URL, e.DestPath, e.Bytes,
		boolToInt(e.FromCache), boolToInt(e.Forced), e.Status, e.Error, e.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// ListFetches returns the most recent entries, newest first. limit <= 0
// returns everything.
func (s *Store) ListFetches(limit int) ([]types.FetchEntry, error) {
	query := `
		SELECT id, pass_id, resource, url, dest_path, bytes, from_cache, forced, status, error, completed_at
		FROM fetches ORDER BY completed_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}
	defer rows.Close()

	var entries []types.FetchEntry
	for rows.Next() {
		var e types.FetchEntry
		var fromCache, forced int
		if err := rows.Scan(&e.ID, &e.PassID, &e.Resource, &e.URL, &e.DestPath, &e.Bytes,
			&fromCache, &forced, &e.Status, &e.Error, &e.CompletedAt); err != nil {
			return nil, err
		}
		e.FromCache = fromCache != 0
		e.Forced = forced != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearHistory deletes every entry and returns how many were removed.
func (s *Store) ClearHistory(ctx context.Context) (int64, error) {
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM fetches")
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = 'fetches'")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return removed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
