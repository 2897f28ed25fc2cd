package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"figmatext/internal/domain"
	"figmatext/internal/etl"
	_ "figmatext/internal/etl/sources"
	"figmatext/internal/localization"
	"figmatext/internal/service"
	"figmatext/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// SyncService tests against a temp SQLite store and the json_file source
// ─────────────────────────────────────────────────────────────

const sampleDoc = `{"document": {"children": [
  {"type": "CANVAS", "name": "Onboarding", "id": "1:1", "children": [
    {"type": "FRAME", "name": "Welcome", "id": "2:1", "children": [
      {"type": "TEXT", "name": "title", "characters": "Hi!", "absoluteBoundingBox": {"x": 0, "y": 10}},
      {"type": "TEXT", "name": "title", "characters": "Bye", "absoluteBoundingBox": {"x": 0, "y": 50}}
    ]},
    {"type": "FRAME", "name": "Login", "id": "2:2", "children": [
      {"type": "GROUP", "name": "form", "children": [
        {"type": "TEXT", "name": "cta", "characters": "Sign in", "absoluteBoundingBox": {"x": 4, "y": 5}}
      ]}
    ]}
  ]}
]}}`

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "figma.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewStore(db)
}

func writeDoc(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSyncService_SyncFromFile(t *testing.T) {
	store := newStore(t)
	emitter := &service.MockEmitter{}
	svc := service.NewSyncService(store, emitter, service.SyncConfig{FileKey: "FILE"})
	path := writeDoc(t, t.TempDir(), sampleDoc)

	res := svc.SyncFromFile(context.Background(), "", path, true)
	if !res.Success {
		t.Fatalf("sync failed: %s", res.Message)
	}
	if res.PagesUpdated != 1 || res.TextsUpdated != 3 {
		t.Errorf("counts = %d/%d, want 1/3", res.PagesUpdated, res.TextsUpdated)
	}
	if res.DebugInfo == nil || len(res.DebugInfo.PageNames) != 1 || res.DebugInfo.PageNames[0] != "Onboarding" {
		t.Errorf("unexpected debug info %+v", res.DebugInfo)
	}

	events := emitter.Snapshot()
	if len(events) != 1 || events[0].Event != service.EventSyncCompleted {
		t.Errorf("expected one %s event, got %+v", service.EventSyncCompleted, events)
	}

	runs, err := svc.ListRuns(context.Background(), "FILE", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || !runs[0].Success || runs[0].SourceType != "json_file" || runs[0].TextsUpdated != 3 {
		t.Errorf("unexpected run log %+v", runs)
	}
}

func TestSyncService_FailureKeepsSnapshot(t *testing.T) {
	store := newStore(t)
	emitter := &service.MockEmitter{}
	svc := service.NewSyncService(store, emitter, service.SyncConfig{FileKey: "FILE"})
	dir := t.TempDir()
	path := writeDoc(t, dir, sampleDoc)

	if res := svc.SyncFromFile(context.Background(), "", path, false); !res.Success {
		t.Fatalf("initial sync failed: %s", res.Message)
	}

	res := svc.SyncFromFile(context.Background(), "", filepath.Join(dir, "missing.json"), false)
	if res.Success || !strings.HasPrefix(res.Message, "Sync failed:") {
		t.Errorf("expected failure, got %+v", res)
	}

	snap, err := store.GetSnapshot(context.Background(), "FILE")
	if err != nil {
		t.Fatalf("previous snapshot lost: %v", err)
	}
	if _, texts := snap.Counts(); texts != 3 {
		t.Errorf("previous snapshot changed, %d texts", texts)
	}

	events := emitter.Snapshot()
	if last := events[len(events)-1]; last.Event != service.EventSyncFailed {
		t.Errorf("expected %s, got %s", service.EventSyncFailed, last.Event)
	}
	runs, _ := svc.ListRuns(context.Background(), "FILE", 10)
	if len(runs) != 2 || runs[0].Success {
		t.Errorf("expected failed run logged first, got %+v", runs)
	}
}

func TestSyncService_RejectsPlaceholderKey(t *testing.T) {
	store := newStore(t)
	svc := service.NewSyncService(store, &service.MockEmitter{}, service.SyncConfig{FileKey: "your_figma_file_key_here"})

	res := svc.Sync(context.Background(), "", false)
	if res.Success || !strings.Contains(res.Message, "real FIGMA_FILE_KEY") {
		t.Errorf("unexpected result %+v", res)
	}
	if res := svc.Sync(context.Background(), "", false); res.LastSync.IsZero() {
		t.Error("expected last_sync to be set on failure")
	}

	unset := service.NewSyncService(store, nil, service.SyncConfig{})
	if res := unset.Sync(context.Background(), "", false); !strings.Contains(res.Message, "not set") {
		t.Errorf("unexpected result %+v", res)
	}
}

// blockingSource holds Fetch until released.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) Spec() etl.SourceSpec { return etl.SourceSpec{Type: "test_blocking"} }

func (b *blockingSource) Fetch(ctx context.Context, cfg etl.SourceConfig) (*domain.Document, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return domain.ParseDocument([]byte(sampleDoc))
}

func TestSyncService_OneSyncPerFileKey(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	etl.RegisterSource(src)

	store := newStore(t)
	svc := service.NewSyncService(store, &service.MockEmitter{}, service.SyncConfig{
		FileKey:    "FILE",
		SourceType: "test_blocking",
	})

	first := make(chan *etl.SyncResult, 1)
	go func() { first <- svc.Sync(context.Background(), "", false) }()
	<-src.started

	second := svc.Sync(context.Background(), "", false)
	if second.Success || !strings.Contains(second.Message, "already running") {
		t.Errorf("expected concurrent sync to be rejected, got %+v", second)
	}

	// a different file key is not blocked by the guard
	other := svc.SyncFromFile(context.Background(), "OTHER", writeDoc(t, t.TempDir(), sampleDoc), false)
	if !other.Success {
		t.Errorf("sync of another file key failed: %s", other.Message)
	}

	close(src.release)
	if res := <-first; !res.Success {
		t.Errorf("first sync failed: %s", res.Message)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.WaitRunning(ctx)
	if ctx.Err() != nil {
		t.Error("WaitRunning did not return after syncs finished")
	}
}

func TestSyncService_StartInvalidSchedule(t *testing.T) {
	svc := service.NewSyncService(newStore(t), nil, service.SyncConfig{FileKey: "FILE", Schedule: "not a cron"})
	if err := svc.Start(context.Background()); err == nil {
		t.Error("expected invalid schedule error")
	}
	svc.Stop()
}

func TestSyncService_WatchFile(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "export.json")

	svc := service.NewSyncService(store, &service.MockEmitter{}, service.SyncConfig{FileKey: "FILE", WatchFile: path})
	if err := svc.Start(context.Background()); err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	defer svc.Stop()

	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.GetSnapshot(context.Background(), "FILE"); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("watched file change was not synced")
}

func TestSyncService_Stop_Idempotent(t *testing.T) {
	svc := service.NewSyncService(nil, &service.MockEmitter{}, service.SyncConfig{})
	svc.Stop()
	svc.Stop()
}

// ─────────────────────────────────────────────────────────────
// LocalizationService tests
// ─────────────────────────────────────────────────────────────

func syncedLocalization(t *testing.T) *service.LocalizationService {
	t.Helper()
	store := newStore(t)
	svc := service.NewSyncService(store, nil, service.SyncConfig{FileKey: "FILE"})
	if res := svc.SyncFromFile(context.Background(), "", writeDoc(t, t.TempDir(), sampleDoc), false); !res.Success {
		t.Fatalf("sync failed: %s", res.Message)
	}
	return service.NewLocalizationService(store, localization.NewSigner("k"), "FILE")
}

func TestLocalizationService_Pages(t *testing.T) {
	loc := syncedLocalization(t)
	ctx := context.Background()

	pages, err := loc.Pages(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].Name != "Onboarding" || pages[0].PageID != "1:1" {
		t.Errorf("unexpected pages %+v", pages)
	}

	view, err := loc.Page(ctx, "", "Onboarding")
	if err != nil {
		t.Fatal(err)
	}
	if first := view.Page.Screens.Oldest(); first.Key != "Login" {
		t.Errorf("expected Login (y=5) first, got %s", first.Key)
	}
	if view.LastUpdated == nil {
		t.Error("expected last_updated")
	}

	if _, err := loc.Page(ctx, "", "onboarding"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("page lookup should be exact, got %v", err)
	}
	if _, err := loc.Screen(ctx, "", "Onboarding", "Nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	screen, err := loc.Screen(ctx, "", "Onboarding", "Welcome")
	if err != nil {
		t.Fatal(err)
	}
	if len(screen.Screen.Texts) != 2 || screen.Screen.Texts[0].Content != "Hi!" {
		t.Errorf("unexpected screen %+v", screen.Screen)
	}
}

func TestLocalizationService_Exports(t *testing.T) {
	loc := syncedLocalization(t)
	ctx := context.Background()

	out, err := loc.JSON(ctx, "", "ONBOARDING")
	if err != nil {
		t.Fatal(err)
	}
	if out.Strings.Len() != 3 || out.Signature == "" {
		t.Errorf("unexpected export %+v", out)
	}
	if v, _ := out.Strings.Get("welcome.title_1"); v != "Bye" {
		t.Errorf("welcome.title_1 = %q", v)
	}

	xml, err := loc.XML(ctx, "", "onboarding")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(xml), `<string name="login_cta">Sign in</string>`) {
		t.Errorf("unexpected xml:\n%s", xml)
	}

	if _, err := loc.JSON(ctx, "", "Missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := loc.ReadView(ctx, "OTHER"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unsynced file, got %v", err)
	}
}

func TestLocalizationService_SearchTexts(t *testing.T) {
	loc := syncedLocalization(t)

	hits, err := loc.SearchTexts(context.Background(), "", "SIGN", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ScreenName != "Login" {
		t.Errorf("unexpected hits %+v", hits)
	}

	hits, _ = loc.SearchTexts(context.Background(), "", "title", 1)
	if len(hits) != 1 {
		t.Errorf("limit not applied, got %d", len(hits))
	}

	if _, err := loc.SearchTexts(context.Background(), "test_file_key_placeholder", "x", 0); !errors.Is(err, service.ErrPlaceholderFileKey) {
		t.Errorf("expected placeholder error, got %v", err)
	}
}
