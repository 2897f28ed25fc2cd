package storage

import (
	"context"
	"fmt"

	"figmatext/internal/domain"

	"github.com/google/uuid"
)

const defaultRunLimit = 20

// RunLogStore implements persistence for sync run history.
type RunLogStore struct {
	db *DB
}

// NewRunLogStore creates a new RunLogStore.
func NewRunLogStore(db *DB) *RunLogStore {
	return &RunLogStore{db: db}
}

// CreateRun inserts run and assigns its ID.
func (s *RunLogStore) CreateRun(ctx context.Context, run *domain.SyncRun) error {
	run.ID = uuid.New().String()
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO sync_runs (id, file_key, source_type, started_at, finished_at, success,
		 pages_updated, texts_updated, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.FileKey, run.SourceType, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Success,
		run.PagesUpdated, run.TextsUpdated, run.Message,
	)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}
	return nil
}

// ListRuns returns the latest runs of fileKey, newest first. An empty fileKey
// lists runs of every file.
func (s *RunLogStore) ListRuns(ctx context.Context, fileKey string, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}

	query := `SELECT id, file_key, source_type, started_at, finished_at, success,
		 pages_updated, texts_updated, message FROM sync_runs`
	args := []any{}
	if fileKey != "" {
		query += ` WHERE file_key = ?`
		args = append(args, fileKey)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		var r domain.SyncRun
		if err := rows.Scan(&r.ID, &r.FileKey, &r.SourceType, &r.StartedAt, &r.FinishedAt, &r.Success,
			&r.PagesUpdated, &r.TextsUpdated, &r.Message); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
