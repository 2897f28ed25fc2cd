package service

import (
	"context"
	"fmt"
	"strings"

	"figmatext/internal/domain"
	"figmatext/internal/localization"
)

// ─────────────────────────────────────────────────────────────
// Localization Service — read views and exports of stored snapshots
// ─────────────────────────────────────────────────────────────

// LocalizationStore is the storage a LocalizationService reads from.
type LocalizationStore interface {
	domain.SnapshotStore
	domain.TextIndex
}

// LocalizationService serves stored snapshots. An empty file key argument
// means the configured default.
type LocalizationService struct {
	store          LocalizationStore
	signer         *localization.Signer
	defaultFileKey string
}

// NewLocalizationService creates a LocalizationService. A nil signer leaves
// JSON exports unsigned.
func NewLocalizationService(store LocalizationStore, signer *localization.Signer, defaultFileKey string) *LocalizationService {
	return &LocalizationService{store: store, signer: signer, defaultFileKey: defaultFileKey}
}

// PageSummary names one stored page.
type PageSummary struct {
	Name   string `json:"name"`
	PageID string `json:"page_id"`
}

// PageView is one page with screens and texts in display order.
type PageView struct {
	Page        domain.Page `json:"page"`
	LastUpdated *string     `json:"last_updated"`
}

// ScreenView is one screen with texts in display order.
type ScreenView struct {
	Screen      domain.Screen `json:"screen"`
	LastUpdated *string       `json:"last_updated"`
}

// Snapshot loads the snapshot of fileKey. A snapshot without pages counts
// as missing.
func (s *LocalizationService) Snapshot(ctx context.Context, fileKey string) (*domain.Snapshot, error) {
	fileKey, err := s.resolve(fileKey)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.GetSnapshot(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	if snap.Pages == nil || snap.Pages.Len() == 0 {
		return nil, fmt.Errorf("snapshot %s has no pages: %w", fileKey, domain.ErrNotFound)
	}
	return snap, nil
}

// ReadView returns the nested Page → Screen → numbered text structure.
func (s *LocalizationService) ReadView(ctx context.Context, fileKey string) (*localization.ReadView, error) {
	snap, err := s.Snapshot(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	return localization.BuildReadView(snap), nil
}

// Pages lists the stored pages in document order.
func (s *LocalizationService) Pages(ctx context.Context, fileKey string) ([]PageSummary, error) {
	snap, err := s.Snapshot(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	pages := make([]PageSummary, 0, snap.Pages.Len())
	for p := snap.Pages.Oldest(); p != nil; p = p.Next() {
		pages = append(pages, PageSummary{Name: p.Key, PageID: p.Value.PageID})
	}
	return pages, nil
}

// Page returns the page named exactly pageName.
func (s *LocalizationService) Page(ctx context.Context, fileKey, pageName string) (*PageView, error) {
	snap, err := s.Snapshot(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	page, ok := snap.Pages.Get(pageName)
	if !ok {
		return nil, fmt.Errorf("page %q: %w", pageName, domain.ErrNotFound)
	}
	return &PageView{Page: localization.SortedPage(page), LastUpdated: lastUpdated(snap)}, nil
}

// Screen returns one screen of the page named exactly pageName.
func (s *LocalizationService) Screen(ctx context.Context, fileKey, pageName, screenName string) (*ScreenView, error) {
	snap, err := s.Snapshot(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	page, ok := snap.Pages.Get(pageName)
	if !ok {
		return nil, fmt.Errorf("page %q: %w", pageName, domain.ErrNotFound)
	}
	screen, ok := page.Screens.Get(screenName)
	if !ok {
		return nil, fmt.Errorf("screen %q in page %q: %w", screenName, pageName, domain.ErrNotFound)
	}
	return &ScreenView{Screen: localization.SortedScreen(screen), LastUpdated: lastUpdated(snap)}, nil
}

// Export renders a page (matched case-insensitively) in format.
func (s *LocalizationService) Export(ctx context.Context, fileKey, pageName string, format localization.Format) (*localization.Export, error) {
	snap, err := s.Snapshot(ctx, fileKey)
	if err != nil {
		return nil, err
	}
	return localization.ComputeExport(snap, pageName, format, s.signer)
}

// JSON renders the signed flat JSON export of a page.
func (s *LocalizationService) JSON(ctx context.Context, fileKey, pageName string) (*localization.JSONExport, error) {
	exp, err := s.Export(ctx, fileKey, pageName, localization.FormatJSON)
	if err != nil {
		return nil, err
	}
	return exp.JSON, nil
}

// XML renders the string-resource export of a page.
func (s *LocalizationService) XML(ctx context.Context, fileKey, pageName string) ([]byte, error) {
	exp, err := s.Export(ctx, fileKey, pageName, localization.FormatXML)
	if err != nil {
		return nil, err
	}
	return exp.XML, nil
}

// SearchTexts returns stored texts whose content or layer name contains
// query, ignoring case. limit <= 0 returns every match.
func (s *LocalizationService) SearchTexts(ctx context.Context, fileKey, query string, limit int) ([]domain.TextRecord, error) {
	fileKey, err := s.resolve(fileKey)
	if err != nil {
		return nil, err
	}
	texts, err := s.store.ListTexts(ctx, fileKey)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matches []domain.TextRecord
	for _, t := range texts {
		if !strings.Contains(strings.ToLower(t.TextContent), q) && !strings.Contains(strings.ToLower(t.TextName), q) {
			continue
		}
		matches = append(matches, t)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches, nil
}

func (s *LocalizationService) resolve(fileKey string) (string, error) {
	if fileKey == "" {
		fileKey = s.defaultFileKey
	}
	if err := CheckFileKey(fileKey); err != nil {
		return "", err
	}
	return fileKey, nil
}

func lastUpdated(snap *domain.Snapshot) *string {
	if snap.LastUpdated.IsZero() {
		return nil
	}
	ts := localization.FormatTimestamp(snap.LastUpdated)
	return &ts
}
