package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"figmatext/internal/domain"
	"figmatext/internal/etl"
)

// ── Figma Source ────────────────────────────────────────────
// Fetches a file document from the Figma REST API.

// DefaultFigmaBaseURL is used when no baseURL is configured.
const DefaultFigmaBaseURL = "https://api.figma.com/v1"

const maxDocumentBytes = 256 << 20

const figmaTimeout = 30 * time.Second

type figmaSource struct {
	client *http.Client
}

func init() { etl.RegisterSource(NewFigmaSource(nil)) }

// NewFigmaSource returns the figma source using client for requests. A nil
// client gets a default one with a 30s timeout.
func NewFigmaSource(client *http.Client) etl.Source {
	if client == nil {
		client = &http.Client{Timeout: figmaTimeout}
	}
	return &figmaSource{client: client}
}

func (s *figmaSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "figma",
		Label: "Figma API",
		ConfigFields: []etl.ConfigField{
			{Key: "fileKey", Label: "File Key", Type: "string", Required: true, Help: "Key from the Figma file URL"},
			{Key: "token", Label: "Access Token", Type: "password", Required: true, Help: "Personal access token sent as X-Figma-Token"},
			{Key: "baseURL", Label: "API URL", Type: "string", Default: DefaultFigmaBaseURL},
		},
	}
}

func (s *figmaSource) Fetch(ctx context.Context, cfg etl.SourceConfig) (*domain.Document, error) {
	base := cfg.String("baseURL")
	if base == "" {
		base = DefaultFigmaBaseURL
	}
	endpoint := strings.TrimRight(base, "/") + "/files/" + url.PathEscape(cfg.String("fileKey"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Figma-Token", cfg.String("token"))
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("figma request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("figma api %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return domain.ParseDocument(data)
}
