package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"lukechampine.com/blake3"

	"figmatext/internal/domain"
	"figmatext/internal/localization"
	"figmatext/internal/service"
)

// ── Health ─────────────────────────────────────────────────

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	connected := h.db != nil && h.db.Ping(r.Context()) == nil
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "healthy",
		"database_connected":   connected,
		"figma_api_configured": h.figmaConfigured,
	})
}

// ── Read views ─────────────────────────────────────────────

// Texts handles GET /api/figma/texts.
func (h *Handler) Texts(w http.ResponseWriter, r *http.Request) {
	view, err := h.loc.ReadView(r.Context(), fileKey(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no data found, try syncing first with POST /api/sync", err)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Data handles GET /api/figma/data.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	snap, err := h.loc.Snapshot(r.Context(), fileKey(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":          snap.Pages,
		"last_updated":   localization.FormatTimestamp(snap.LastUpdated),
		"figma_file_key": snap.FileKey,
	})
}

// Pages handles GET /api/figma/pages.
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.loc.Pages(r.Context(), fileKey(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages": pages,
		"count": len(pages),
	})
}

// Page handles GET /api/figma/pages/{page}.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	view, err := h.loc.Page(r.Context(), fileKey(r), urlParam(r, "page"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Screen handles GET /api/figma/pages/{page}/screens/{screen}.
func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	view, err := h.loc.Screen(r.Context(), fileKey(r), urlParam(r, "page"), urlParam(r, "screen"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ── Sync ───────────────────────────────────────────────────

// Sync handles POST /api/sync?debug=true. A failed sync still answers 200
// with success=false; only a missing or placeholder file key is a 400.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	debug := false
	if v := r.URL.Query().Get("debug"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid debug flag", err)
			return
		}
		debug = b
	}

	key := fileKey(r)
	if key == "" {
		key = h.sync.DefaultFileKey()
	}
	if err := service.CheckFileKey(key); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.sync.Sync(r.Context(), key, debug))
}

// SyncRuns handles GET /api/sync/runs?limit=N.
func (h *Handler) SyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.sync.ListRuns(r.Context(), fileKey(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.SyncRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// ── Exports ────────────────────────────────────────────────

// Localization handles GET /api/localization/{page}.{json|xml}. Responses
// carry an ETag and honor If-None-Match.
func (h *Handler) Localization(w http.ResponseWriter, r *http.Request) {
	file := urlParam(r, "file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		writeError(w, http.StatusBadRequest, "expected {page}.json or {page}.xml", nil)
		return
	}
	pageName := file[:dot]
	format, err := localization.ParseFormat(file[dot+1:])
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported export format", err)
		return
	}

	exp, err := h.loc.Export(r.Context(), fileKey(r), pageName, format)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body []byte
	var contentType string
	switch format {
	case localization.FormatXML:
		body = exp.XML
		contentType = "application/xml; charset=utf-8"
	default:
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(exp.JSON); err != nil {
			writeError(w, http.StatusInternalServerError, "encode export", err)
			return
		}
		body = buf.Bytes()
		contentType = "application/json"
	}

	etag := contentETag(body)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func contentETag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// ── Helpers ────────────────────────────────────────────────

// fileKey returns the optional ?file_key= override; empty means the
// configured default.
func fileKey(r *http.Request) string {
	return r.URL.Query().Get("file_key")
}

// urlParam returns a decoded path parameter. chi hands back the raw segment
// when the request path carried escaped slashes.
func urlParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if s, err := url.PathUnescape(v); err == nil {
		return s
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := map[string]string{"error": msg}
	if err != nil {
		resp["details"] = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrFileKeyNotSet), errors.Is(err, service.ErrPlaceholderFileKey):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	default:
		log.Printf("api: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
