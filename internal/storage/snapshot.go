package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"figmatext/internal/domain"

	"github.com/google/uuid"
)

// SnapshotStore persists extracted snapshots in figma_snapshots, figma_pages
// and figma_texts.
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// ── Write ──────────────────────────────────────────────────

// ReplaceSnapshot drops everything stored for fileKey and writes snap in its
// place, in one transaction.
func (s *SnapshotStore) ReplaceSnapshot(ctx context.Context, fileKey string, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("replace snapshot %s: nil snapshot", fileKey)
	}
	updated := snap.LastUpdated.UTC()
	if snap.LastUpdated.IsZero() {
		updated = time.Now().UTC()
	}

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"figma_texts", "figma_pages", "figma_snapshots"} {
		if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM `+table+` WHERE file_key = ?`), fileKey); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, s.db.rebind(
		`INSERT INTO figma_snapshots (file_key, last_updated, checksum) VALUES (?, ?, ?)`),
		fileKey, updated, snap.Checksum,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx, s.db.rebind(
		`INSERT INTO figma_pages (id, page_id, page_name, file_key, position, json_data, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	textStmt, err := tx.PrepareContext(ctx, s.db.rebind(
		`INSERT INTO figma_texts (id, page_id, page_name, screen_id, screen_name, text_name, text_content,
		 axis_x, axis_y, file_key, position, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare text insert: %w", err)
	}
	defer textStmt.Close()

	if snap.Pages != nil {
		pagePos, textPos := 0, 0
		for p := snap.Pages.Oldest(); p != nil; p = p.Next() {
			page := p.Value
			if page.Screens == nil {
				page.Screens = domain.NewScreens()
			}
			data, err := json.Marshal(page)
			if err != nil {
				return fmt.Errorf("encode page %q: %w", p.Key, err)
			}
			if _, err := pageStmt.ExecContext(ctx,
				uuid.New().String(), page.PageID, p.Key, fileKey, pagePos, string(data), updated,
			); err != nil {
				return fmt.Errorf("insert page %q: %w", p.Key, err)
			}
			pagePos++

			for sc := page.Screens.Oldest(); sc != nil; sc = sc.Next() {
				for _, t := range sc.Value.Texts {
					if _, err := textStmt.ExecContext(ctx,
						uuid.New().String(), page.PageID, p.Key, sc.Value.ScreenID, sc.Key,
						t.Name, t.Content, t.AxisX, t.AxisY, fileKey, textPos, updated,
					); err != nil {
						return fmt.Errorf("insert text %q: %w", t.Name, err)
					}
					textPos++
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ── Read ───────────────────────────────────────────────────

// GetSnapshot loads the snapshot of fileKey. Pages come back in the order
// they were written.
func (s *SnapshotStore) GetSnapshot(ctx context.Context, fileKey string) (*domain.Snapshot, error) {
	tx, err := s.db.conn.BeginTx(ctx, s.db.readTxOptions())
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := &domain.Snapshot{FileKey: fileKey, Pages: domain.NewPages()}
	err = tx.QueryRowContext(ctx, s.db.rebind(
		`SELECT last_updated, checksum FROM figma_snapshots WHERE file_key = ?`), fileKey,
	).Scan(&snap.LastUpdated, &snap.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", fileKey, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	rows, err := tx.QueryContext(ctx, s.db.rebind(
		`SELECT page_name, json_data FROM figma_pages WHERE file_key = ? ORDER BY position ASC`), fileKey)
	if err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		var page domain.Page
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			return nil, fmt.Errorf("decode page %q: %w", name, err)
		}
		if page.Screens == nil {
			page.Screens = domain.NewScreens()
		}
		snap.Pages.Set(name, page)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// ListTexts returns every stored text of fileKey in extraction order.
func (s *SnapshotStore) ListTexts(ctx context.Context, fileKey string) ([]domain.TextRecord, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT page_id, page_name, screen_id, screen_name, text_name, text_content,
		 axis_x, axis_y, file_key, last_updated
		 FROM figma_texts WHERE file_key = ? ORDER BY position ASC`), fileKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []domain.TextRecord
	for rows.Next() {
		var t domain.TextRecord
		if err := rows.Scan(
			&t.PageID, &t.PageName, &t.ScreenID, &t.ScreenName, &t.TextName, &t.TextContent,
			&t.AxisX, &t.AxisY, &t.FileKey, &t.LastUpdated,
		); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}
