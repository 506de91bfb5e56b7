package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chumsley/keynote-summary/internal/archive"
	"github.com/chumsley/keynote-summary/internal/keynote"
	"github.com/chumsley/keynote-summary/internal/pipeline"
	"github.com/chumsley/keynote-summary/internal/render"
	"github.com/go-chi/chi/v5/middleware"
)

// handleRender renders an uploaded, zipped presentation. The multipart form
// carries the package as "file" and an optional "format".
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	format := s.cfg.Format
	if v := r.FormValue("format"); v != "" {
		format = v
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	src, err := archive.NewZipSource(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		jsonError(w, "file is not a zipped presentation: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer src.Close()

	filename := sanitizeFilename(header.Filename)
	title := strings.TrimSuffix(strings.TrimSuffix(filename, ".zip"), ".key")
	log := s.log.With("filename", filename, "format", f, "request_id", middleware.GetReqID(r.Context()))

	cfg := s.cfg
	cfg.Format = string(f)
	start := time.Now()
	res, err := pipeline.New(cfg, log).Run(r.Context(), src, title)
	if err != nil {
		s.stats.Record(f, time.Since(start), 0, true)
		log.Error("render failed", "error", err)
		jsonError(w, err.Error(), renderStatus(err))
		return
	}
	s.stats.Record(f, time.Since(start), res.Slides, false)
	log.Info("rendered document", "slides", res.Slides, "fingerprint", res.Fingerprint)

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("X-Keysum-Fingerprint", res.Fingerprint)
	w.Header().Set("X-Keysum-Slides", strconv.Itoa(res.Slides))
	if f == render.FormatDOCX {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", title+f.Ext()))
	}
	w.Write(res.Body)
}

// renderStatus maps pipeline failures to response codes: unresolvable
// document graphs are 422, undecodable entries 415.
func renderStatus(err error) int {
	switch {
	case errors.Is(err, keynote.ErrNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, archive.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
