package etl

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"figmatext/internal/domain"
)

// ── Source ──────────────────────────────────────────────────
// A Source fetches one design document from somewhere.
// Implementations live in etl/sources/, one file per source type.

// SourceConfig is an opaque configuration map parsed per source type.
type SourceConfig map[string]any

// String returns the string value of key, or "" when absent or mistyped.
func (c SourceConfig) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// ConfigField describes a single configuration input for a source.
type ConfigField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Type     string `json:"type"` // "string" | "password" | "file"
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
	Help     string `json:"help,omitempty"`
}

// SourceSpec describes a source type: its label and required config fields.
type SourceSpec struct {
	Type         string        `json:"type"`
	Label        string        `json:"label"`
	ConfigFields []ConfigField `json:"configFields"`
}

// Source is the interface every document source must implement.
type Source interface {
	// Spec returns metadata about this source type.
	Spec() SourceSpec

	// Fetch returns the full document tree. Transport and auth failures are
	// returned as errors, never as an empty document.
	Fetch(ctx context.Context, cfg SourceConfig) (*domain.Document, error)
}

// ── Source Registry ────────────────────────────────────────
// Compile-time registration via init() in each source file.

var (
	registryMu sync.RWMutex
	registry   = map[string]Source{}
)

// RegisterSource registers a source by its spec type.
// Called from init() in each source implementation file.
func RegisterSource(s Source) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Spec().Type] = s
}

// GetSource returns a registered source by type, or an error if not found.
func GetSource(typ string) (Source, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("unknown source type: %q", typ)
	}
	return s, nil
}

// ListSources returns the specs of all registered sources, sorted by type.
func ListSources() []SourceSpec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	specs := make([]SourceSpec, 0, len(registry))
	for _, s := range registry {
		specs = append(specs, s.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}

// MissingFields returns the keys of required fields absent from cfg.
func MissingFields(spec SourceSpec, cfg SourceConfig) []string {
	var missing []string
	for _, f := range spec.ConfigFields {
		if f.Required && cfg.String(f.Key) == "" {
			missing = append(missing, f.Key)
		}
	}
	return missing
}
