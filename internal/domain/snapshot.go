package domain

import (
	"context"
	"errors"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrNotFound marks a missing snapshot, page or screen.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocument marks a document payload that cannot be parsed at all.
	ErrInvalidDocument = errors.New("invalid document")
)

// TextItem is one visible TEXT node extracted from a screen.
type TextItem struct {
	Name    string  `json:"name"`
	Content string  `json:"content"`
	AxisX   float64 `json:"axis_x"`
	AxisY   float64 `json:"axis_y"`
	Screen  string  `json:"screen,omitempty"`
}

// Screen is a top-level frame of a page with at least one text.
type Screen struct {
	ScreenID string     `json:"screen_id"`
	Texts    []TextItem `json:"texts"`
}

// Screens maps screen name to screen, in document order.
type Screens = orderedmap.OrderedMap[string, Screen]

// Page is one canvas of the document.
type Page struct {
	PageID  string   `json:"page_id"`
	Screens *Screens `json:"screens"`
}

// Pages maps page name to page, in document order. Setting an existing name
// replaces the value and keeps the original position.
type Pages = orderedmap.OrderedMap[string, Page]

// NewPages returns an empty page mapping.
func NewPages() *Pages { return orderedmap.New[string, Page]() }

// NewScreens returns an empty screen mapping.
func NewScreens() *Screens { return orderedmap.New[string, Screen]() }

// Snapshot is the stored extraction of one file key. It is replaced whole on
// every sync and never merged.
type Snapshot struct {
	Pages       *Pages    `json:"pages"`
	LastUpdated time.Time `json:"last_updated"`
	FileKey     string    `json:"figma_file_key"`
	Checksum    string    `json:"-"`
}

// Counts returns the number of pages and text items in the snapshot.
func (s *Snapshot) Counts() (pages, texts int) {
	if s == nil || s.Pages == nil {
		return 0, 0
	}
	for p := s.Pages.Oldest(); p != nil; p = p.Next() {
		pages++
		if p.Value.Screens == nil {
			continue
		}
		for sc := p.Value.Screens.Oldest(); sc != nil; sc = sc.Next() {
			texts += len(sc.Value.Texts)
		}
	}
	return pages, texts
}

// PageNames returns page names in stored order.
func (s *Snapshot) PageNames() []string {
	if s == nil || s.Pages == nil {
		return nil
	}
	names := make([]string, 0, s.Pages.Len())
	for p := s.Pages.Oldest(); p != nil; p = p.Next() {
		names = append(names, p.Key)
	}
	return names
}

// TextRecord is the flattened, queryable form of a stored text item.
type TextRecord struct {
	PageID      string    `json:"page_id"`
	PageName    string    `json:"page_name"`
	ScreenID    string    `json:"screen_id"`
	ScreenName  string    `json:"screen_name"`
	TextName    string    `json:"text_name"`
	TextContent string    `json:"text_content"`
	AxisX       float64   `json:"axis_x"`
	AxisY       float64   `json:"axis_y"`
	FileKey     string    `json:"figma_file_key"`
	LastUpdated time.Time `json:"last_updated"`
}

// SyncRun is the historical record of one sync attempt.
type SyncRun struct {
	ID           string    `json:"id"`
	FileKey      string    `json:"figma_file_key"`
	SourceType   string    `json:"source_type"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Success      bool      `json:"success"`
	PagesUpdated int       `json:"pages_updated"`
	TextsUpdated int       `json:"texts_updated"`
	Message      string    `json:"message"`
}

// SnapshotStore persists snapshots. ReplaceSnapshot must be atomic for
// readers: GetSnapshot sees either the old or the new snapshot, never a mix.
type SnapshotStore interface {
	ReplaceSnapshot(ctx context.Context, fileKey string, snap *Snapshot) error
	// GetSnapshot returns ErrNotFound when nothing was synced for fileKey.
	GetSnapshot(ctx context.Context, fileKey string) (*Snapshot, error)
}

// TextIndex exposes stored texts as flat rows.
type TextIndex interface {
	ListTexts(ctx context.Context, fileKey string) ([]TextRecord, error)
}

// RunLogStore persists sync run history.
type RunLogStore interface {
	CreateRun(ctx context.Context, run *SyncRun) error
	ListRuns(ctx context.Context, fileKey string, limit int) ([]SyncRun, error)
}

// Store is everything a storage backend provides.
type Store interface {
	SnapshotStore
	TextIndex
	RunLogStore
	Ping(ctx context.Context) error
	Close() error
}

// TextRecords flattens the snapshot into rows, in page, screen and text order.
func (s *Snapshot) TextRecords() []TextRecord {
	if s == nil || s.Pages == nil {
		return nil
	}
	var out []TextRecord
	for p := s.Pages.Oldest(); p != nil; p = p.Next() {
		if p.Value.Screens == nil {
			continue
		}
		for sc := p.Value.Screens.Oldest(); sc != nil; sc = sc.Next() {
			for _, t := range sc.Value.Texts {
				out = append(out, TextRecord{
					PageID:      p.Value.PageID,
					PageName:    p.Key,
					ScreenID:    sc.Value.ScreenID,
					ScreenName:  sc.Key,
					TextName:    t.Name,
					TextContent: t.Content,
					AxisX:       t.AxisX,
					AxisY:       t.AxisY,
					FileKey:     s.FileKey,
					LastUpdated: s.LastUpdated,
				})
			}
		}
	}
	return out
}
