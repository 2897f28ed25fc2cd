package etl

import (
	"context"
	"fmt"

	"figmatext/internal/domain"
)

// ── Destination ────────────────────────────────────────────
// A Destination stores an organized snapshot. Every write is a full replace
// of the file key; there is no append or merge mode.

// Destination writes snapshots to a target system.
type Destination interface {
	Write(ctx context.Context, fileKey string, snap *domain.Snapshot) error
}

// SnapshotWriter implements Destination over a domain.SnapshotStore.
type SnapshotWriter struct {
	Store domain.SnapshotStore
}

func (w *SnapshotWriter) Write(ctx context.Context, fileKey string, snap *domain.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := w.Store.ReplaceSnapshot(ctx, fileKey, snap); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
