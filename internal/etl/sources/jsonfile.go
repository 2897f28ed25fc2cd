package sources

import (
	"context"
	"fmt"
	"os"

	"figmatext/internal/domain"
	"figmatext/internal/etl"
)

// ── JSON File Source ────────────────────────────────────────
// Reads a document previously exported from the design tool. Both the API
// envelope ({"document": {...}}) and a bare root node are accepted.

type jsonFileSource struct{}

func init() { etl.RegisterSource(&jsonFileSource{}) }

func (s *jsonFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "json_file",
		Label: "JSON File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Path to the exported document JSON"},
		},
	}
}

func (s *jsonFileSource) Fetch(ctx context.Context, cfg etl.SourceConfig) (*domain.Document, error) {
	path := cfg.String("filePath")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
