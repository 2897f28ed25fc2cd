package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"figmatext/internal/domain"
	"figmatext/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Sync Service — runs syncs, records them, and triggers them
// ─────────────────────────────────────────────────────────────

const (
	EventSyncCompleted = "sync:completed"
	EventSyncFailed    = "sync:failed"

	syncTimeout   = 5 * time.Minute
	watchDebounce = 500 * time.Millisecond
)

// SyncStore is the storage a SyncService writes to.
type SyncStore interface {
	domain.SnapshotStore
	domain.RunLogStore
}

// SyncConfig selects the source of manual and scheduled syncs and the
// optional triggers.
type SyncConfig struct {
	FileKey    string
	SourceType string
	SourceCfg  etl.SourceConfig
	// Schedule is a cron expression; empty disables scheduled syncs.
	Schedule string
	// WatchFile is a document export on disk; every change to it is synced
	// into FileKey through the json_file source.
	WatchFile string
}

// SyncService runs syncs with at most one in flight per file key.
// It is decoupled from the transport via the EventEmitter interface.
type SyncService struct {
	store   SyncStore
	emitter EventEmitter
	cfg     SyncConfig
	running syncGuard

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewSyncService creates a SyncService ready for use.
func NewSyncService(store SyncStore, emitter EventEmitter, cfg SyncConfig) *SyncService {
	if cfg.SourceType == "" {
		cfg.SourceType = "figma"
	}
	if emitter == nil {
		emitter = LogEmitter{}
	}
	return &SyncService{store: store, emitter: emitter, cfg: cfg}
}

// DefaultFileKey returns the configured file key.
func (s *SyncService) DefaultFileKey() string {
	return s.cfg.FileKey
}

// ── Run ────────────────────────────────────────────────────

// Sync pulls fileKey (the default file key when empty) from the configured
// source. Failures are reported in the result, never as an error.
func (s *SyncService) Sync(ctx context.Context, fileKey string, debug bool) *etl.SyncResult {
	if fileKey == "" {
		fileKey = s.cfg.FileKey
	}
	if err := CheckFileKey(fileKey); err != nil {
		return failedResult(err)
	}
	return s.Run(ctx, &etl.SyncJob{
		FileKey:    fileKey,
		SourceType: s.cfg.SourceType,
		SourceCfg:  s.cfg.SourceCfg,
		Debug:      debug,
	})
}

// SyncFromFile syncs the document at path into fileKey (the default file
// key when empty).
func (s *SyncService) SyncFromFile(ctx context.Context, fileKey, path string, debug bool) *etl.SyncResult {
	if fileKey == "" {
		fileKey = s.cfg.FileKey
	}
	if err := CheckFileKey(fileKey); err != nil {
		return failedResult(err)
	}
	return s.Run(ctx, &etl.SyncJob{
		FileKey:    fileKey,
		SourceType: "json_file",
		SourceCfg:  etl.SourceConfig{"filePath": path},
		Debug:      debug,
	})
}

// Run executes job, writes a run log and emits the outcome.
func (s *SyncService) Run(ctx context.Context, job *etl.SyncJob) *etl.SyncResult {
	// Prevent concurrent syncs of the same file.
	if !s.running.Acquire(job.FileKey) {
		return failedResult(fmt.Errorf("sync already running for %s", job.FileKey))
	}
	defer s.running.Release(job.FileKey)

	engine := &etl.Engine{Dest: &etl.SnapshotWriter{Store: s.store}}

	runCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	start := time.Now()
	result, runErr := engine.RunSync(runCtx, job)

	run := &domain.SyncRun{
		FileKey:      job.FileKey,
		SourceType:   job.SourceType,
		StartedAt:    start,
		FinishedAt:   time.Now(),
		Success:      result.Success,
		PagesUpdated: result.PagesUpdated,
		TextsUpdated: result.TextsUpdated,
		Message:      result.Message,
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		log.Printf("sync: failed to record run for %s: %v", job.FileKey, err)
	}

	if runErr != nil {
		log.Printf("sync: %s from %s failed: %v", job.FileKey, job.SourceType, runErr)
		s.emitter.Emit(ctx, EventSyncFailed, map[string]string{
			"fileKey": job.FileKey,
			"error":   runErr.Error(),
		})
		return result
	}

	log.Printf("sync: %s from %s: %d page(s), %d text(s)", job.FileKey, job.SourceType, result.PagesUpdated, result.TextsUpdated)
	s.emitter.Emit(ctx, EventSyncCompleted, map[string]any{
		"fileKey": job.FileKey,
		"pages":   result.PagesUpdated,
		"texts":   result.TextsUpdated,
	})
	return result
}

func failedResult(err error) *etl.SyncResult {
	return &etl.SyncResult{
		Message:  "Sync failed: " + err.Error(),
		LastSync: time.Now().UTC(),
	}
}

// ListRuns returns the latest run logs of fileKey (every file when empty).
func (s *SyncService) ListRuns(ctx context.Context, fileKey string, limit int) ([]domain.SyncRun, error) {
	return s.store.ListRuns(ctx, fileKey, limit)
}

// ListSources returns the available document source descriptors.
func (s *SyncService) ListSources() []etl.SourceSpec {
	return etl.ListSources()
}

// ── Triggers (cron + file watch) ──────────────────────────

// Start installs the configured schedule and file watch. Calling Start again
// replaces the previous triggers.
func (s *SyncService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	if s.cfg.Schedule != "" {
		c := cron.New()
		_, err := c.AddFunc(s.cfg.Schedule, func() {
			log.Printf("sync cron: syncing %s", s.cfg.FileKey)
			if res := s.Sync(ctx, "", false); !res.Success {
				log.Printf("sync cron: %s", res.Message)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid sync schedule %q: %w", s.cfg.Schedule, err)
		}
		c.Start()
		s.cronSched = c
		log.Printf("sync cron: scheduled %q", s.cfg.Schedule)
	}

	if s.cfg.WatchFile != "" {
		if err := s.watchLocked(ctx, s.cfg.WatchFile); err != nil {
			s.stopLocked()
			return err
		}
	}
	return nil
}

// watchLocked watches the directory of path, since editors often replace
// files instead of writing them in place.
func (s *SyncService) watchLocked(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("bad watch path %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(absPath), err)
	}
	s.watcher = watcher

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel

	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if p, _ := filepath.Abs(event.Name); p != absPath {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					if watchCtx.Err() != nil {
						return
					}
					log.Printf("sync watcher: file changed %q, syncing %s", absPath, s.cfg.FileKey)
					if res := s.SyncFromFile(ctx, "", absPath, false); !res.Success {
						log.Printf("sync watcher: %s", res.Message)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("sync watcher: error: %v", err)
			}
		}
	}()

	log.Printf("sync watcher: watching %q", absPath)
	return nil
}

// WaitRunning blocks until all running syncs finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *SyncService) WaitRunning(ctx context.Context) {
	s.running.Wait(ctx)
}

// Running lists the file keys with a sync in flight.
func (s *SyncService) Running() []string {
	return s.running.Running()
}

// Stop tears down all watchers and schedulers. It is safe to call repeatedly.
func (s *SyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *SyncService) stopLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}

// ── File keys ──────────────────────────────────────────────

var (
	// ErrFileKeyNotSet is returned when no file key was given or configured.
	ErrFileKeyNotSet = errors.New("FIGMA_FILE_KEY not set")
	// ErrPlaceholderFileKey is returned for the sample keys shipped in example configs.
	ErrPlaceholderFileKey = errors.New("please set a real FIGMA_FILE_KEY")
)

var placeholderFileKeys = map[string]bool{
	"your_figma_file_key_here":  true,
	"test_file_key_placeholder": true,
}

// CheckFileKey rejects empty and placeholder file keys.
func CheckFileKey(fileKey string) error {
	if fileKey == "" {
		return ErrFileKeyNotSet
	}
	if placeholderFileKeys[fileKey] {
		return ErrPlaceholderFileKey
	}
	return nil
}
