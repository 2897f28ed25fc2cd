package etl

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"lukechampine.com/blake3"

	"figmatext/internal/domain"
	"figmatext/internal/extract"
)

// ── SyncJob ────────────────────────────────────────────────
// Orchestrates: source.Fetch → extract.Organize → destination.Write.

// SyncJob holds the parameters of a single sync.
type SyncJob struct {
	FileKey    string       `json:"fileKey"`
	SourceType string       `json:"sourceType"`
	SourceCfg  SourceConfig `json:"sourceConfig"`
	Debug      bool         `json:"debug"`
}

// DebugInfo is attached to a SyncResult when the caller asked for it.
type DebugInfo struct {
	PageNames    []string `json:"page_names"`
	PagesUpdated int      `json:"pages_updated"`
	TextsUpdated int      `json:"texts_updated"`
	// Overwritten lists page or "page/screen" names that occurred more than
	// once; only the last occurrence was stored.
	Overwritten []string `json:"overwritten,omitempty"`
}

// SyncResult is the outcome of running a sync job.
type SyncResult struct {
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	PagesUpdated int        `json:"pages_updated"`
	TextsUpdated int        `json:"texts_updated"`
	LastSync     time.Time  `json:"last_sync"`
	DebugInfo    *DebugInfo `json:"debug_info"`
}

const syncOKMessage = "Data synchronized successfully"

// ── Engine ─────────────────────────────────────────────────

// Engine runs sync jobs using the registered sources and a destination.
type Engine struct {
	Dest Destination
	// Now stamps snapshots; defaults to time.Now.
	Now func() time.Time
}

// RunSync executes a sync job end-to-end. The returned result is never nil;
// on failure it carries Success=false and the error text, and the stored
// snapshot is left as it was.
func (e *Engine) RunSync(ctx context.Context, job *SyncJob) (*SyncResult, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	result := &SyncResult{LastSync: now().UTC()}
	fail := func(err error) (*SyncResult, error) {
		result.Message = "Sync failed: " + err.Error()
		return result, err
	}

	// 1. Resolve source from registry.
	source, err := GetSource(job.SourceType)
	if err != nil {
		return fail(err)
	}

	cfg := make(SourceConfig, len(job.SourceCfg)+1)
	for k, v := range job.SourceCfg {
		cfg[k] = v
	}
	if cfg.String("fileKey") == "" {
		cfg["fileKey"] = job.FileKey
	}
	if missing := MissingFields(source.Spec(), cfg); len(missing) > 0 {
		return fail(fmt.Errorf("missing source config: %s", strings.Join(missing, ", ")))
	}

	// 2. Fetch the document.
	doc, err := source.Fetch(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("fetch: %w", err))
	}

	// 3. Organize into pages and screens.
	organized := extract.OrganizeDocument(doc)
	for _, name := range organized.Overwritten {
		log.Printf("etl: %s: duplicate name %q, last occurrence kept", job.FileKey, name)
	}

	snap := &domain.Snapshot{
		Pages:       organized.Pages,
		LastUpdated: result.LastSync,
		FileKey:     job.FileKey,
	}
	if snap.Checksum, err = Checksum(snap); err != nil {
		return fail(err)
	}

	// 4. Replace the stored snapshot.
	if err := e.Dest.Write(ctx, job.FileKey, snap); err != nil {
		return fail(fmt.Errorf("write: %w", err))
	}

	pages, texts := snap.Counts()
	result.Success = true
	result.Message = syncOKMessage
	result.PagesUpdated = pages
	result.TextsUpdated = texts
	if job.Debug {
		result.DebugInfo = &DebugInfo{
			PageNames:    append([]string{}, snap.PageNames()...),
			PagesUpdated: pages,
			TextsUpdated: texts,
			Overwritten:  organized.Overwritten,
		}
	}
	return result, nil
}

// Checksum is the hex blake3 digest of the snapshot's pages as JSON.
func Checksum(snap *domain.Snapshot) (string, error) {
	data, err := json.Marshal(snap.Pages)
	if err != nil {
		return "", fmt.Errorf("encode pages: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
