package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tannerhall/mathdex/internal/page"
)

// handleGetPage returns the serialized document model for one path. With
// wait=1 the request blocks (cancellable) until the document is indexed.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("wait") == "1" {
		p, err := s.idx.WaitFor(r.Context(), path)
		if err != nil {
			jsonError(w, "page not ready", http.StatusRequestTimeout)
			return
		}
		if p == nil {
			// Removed while the request was waiting.
			jsonError(w, "page not ready", http.StatusNotFound)
			return
		}
		writeJSON(w, p)
		return
	}

	p := s.idx.Load(path)
	if p == nil {
		jsonError(w, "page not ready", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

// handleGetBlock is the simple positional lookup: by id, by line (with
// offset as fallback), or by offset.
func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	res := s.idx.Resolver(path)
	if res == nil {
		jsonError(w, "page not ready", http.StatusNotFound)
		return
	}

	var b *page.Block
	switch {
	case q.Get("id") != "":
		b = res.ByID(q.Get("id"))
	case q.Get("line") != "":
		line, err := strconv.Atoi(q.Get("line"))
		if err != nil {
			jsonError(w, "invalid line", http.StatusBadRequest)
			return
		}
		b = res.ByLine(line)
		if b == nil && q.Get("offset") != "" {
			if off, err := strconv.Atoi(q.Get("offset")); err == nil {
				b = res.ByOffset(off)
			}
		}
	case q.Get("offset") != "":
		off, err := strconv.Atoi(q.Get("offset"))
		if err != nil {
			jsonError(w, "invalid offset", http.StatusBadRequest)
			return
		}
		b = res.ByOffset(off)
	default:
		jsonError(w, "one of id, line, offset is required", http.StatusBadRequest)
		return
	}

	if b == nil {
		jsonError(w, "no match", http.StatusNotFound)
		return
	}
	writeJSON(w, b)
}

func (s *Server) handleEquationsInRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	start, err1 := strconv.Atoi(q.Get("start"))
	end, err2 := strconv.Atoi(q.Get("end"))
	if path == "" || err1 != nil || err2 != nil {
		jsonError(w, "path, start, and end are required", http.StatusBadRequest)
		return
	}
	res := s.idx.Resolver(path)
	if res == nil {
		jsonError(w, "page not ready", http.StatusNotFound)
		return
	}
	eqs := res.EquationsInRange(start, end)
	if eqs == nil {
		eqs = []*page.Block{}
	}
	writeJSON(w, map[string]any{"equations": eqs})
}

// resolveRequest is the full position-resolution request. Exactly one query
// mode applies, chosen in the order: id, anchor, container ordinal, line
// (offset as fallback), offset.
type resolveRequest struct {
	Path          string `json:"path"`
	ID            string `json:"id,omitempty"`
	Anchor        string `json:"anchor,omitempty"`
	RelativeLine  *int   `json:"relative_line,omitempty"`
	ContainerLine *int   `json:"container_line,omitempty"`
	Ordinal       *int   `json:"ordinal,omitempty"`
	Line          *int   `json:"line,omitempty"`
	Offset        *int   `json:"offset,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}

	// Anchor mode resolves across documents, before any page check.
	if req.Anchor != "" {
		rel := 0
		if req.RelativeLine != nil {
			rel = *req.RelativeLine
		}
		s.writeBlock(w, s.idx.ResolveRelative(req.Path, req.Anchor, rel))
		return
	}

	res := s.idx.Resolver(req.Path)
	if res == nil {
		jsonError(w, "page not ready", http.StatusNotFound)
		return
	}

	var b *page.Block
	switch {
	case req.ID != "":
		b = res.ByID(req.ID)
	case req.ContainerLine != nil && req.Ordinal != nil:
		b = res.NthEquationIn(res.ByLine(*req.ContainerLine), *req.Ordinal)
	case req.Line != nil:
		b = res.ByLine(*req.Line)
		if b == nil && req.Offset != nil {
			b = res.ByOffset(*req.Offset)
		}
	case req.Offset != nil:
		b = res.ByOffset(*req.Offset)
	default:
		jsonError(w, "no query mode given", http.StatusBadRequest)
		return
	}
	s.writeBlock(w, b)
}

func (s *Server) writeBlock(w http.ResponseWriter, b *page.Block) {
	if b == nil {
		jsonError(w, "no match", http.StatusNotFound)
		return
	}
	writeJSON(w, b)
}

// handleReindex forces a rebuild of one document from the vault.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}
	rel := filepath.FromSlash(req.Path)
	if filepath.IsAbs(rel) || strings.Contains(req.Path, "..") {
		jsonError(w, "invalid path", http.StatusBadRequest)
		return
	}
	data, err := os.ReadFile(filepath.Join(s.cfg.VaultDir, rel))
	if err != nil {
		jsonError(w, "read failed: "+err.Error(), http.StatusNotFound)
		return
	}
	if s.cfg.MaxFileBytes > 0 && int64(len(data)) > s.cfg.MaxFileBytes {
		jsonError(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.idx.Update(req.Path, data)
	writeJSON(w, map[string]string{"status": "ok", "path": req.Path})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	paths := s.idx.Paths()
	stats := map[string]int{
		"pages": len(paths),
	}
	for _, p := range paths {
		pg := s.idx.Load(p)
		if pg == nil {
			continue
		}
		stats["sections"] += len(pg.Sections)
		stats["links"] += len(pg.Links)
		for _, sec := range pg.Sections {
			for _, b := range page.Flatten(sec.Blocks) {
				stats["blocks"]++
				stats[string(b.Kind)]++
			}
		}
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
