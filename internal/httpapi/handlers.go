package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/subloc/subloc/internal/jobs"
	"github.com/subloc/subloc/internal/service"
	"github.com/subloc/subloc/internal/subtitle"
	"github.com/subloc/subloc/pkg/log"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to temp files.
const multipartMemory = 8 << 20

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %s limit", humanize.Bytes(uint64(maxErr.Limit))))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	opts := service.RunOptions{
		SourceLang:   strings.TrimSpace(r.FormValue("source_lang")),
		TargetLang:   strings.TrimSpace(r.FormValue("target_lang")),
		CustomPrompt: r.FormValue("custom_prompt"),
		StripSDH:     parseBoolValue(r.FormValue("strip_sdh")),
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		writeError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	runID := uuid.NewString()
	files, totalSize, err := s.spoolUploads(runID, uploads)
	if err != nil {
		if removeErr := s.spool.RemoveRun(runID); removeErr != nil {
			log.Warn("Failed to clean up spool for rejected run %s: %v", runID, removeErr)
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	run := s.queue.Enqueue(jobs.RunRequest{
		ID:      runID,
		Options: opts,
		Files:   files,
	})
	log.Info("Run %s: accepted %d files (%s)", run.ID, len(files), humanize.Bytes(uint64(totalSize)))
	writeJSON(w, http.StatusCreated, run)
}

// spoolUploads writes every upload to disk under the run's spool
// directory. File order follows upload order; translated documents are
// matched back to files by position in the run.
func (s *Server) spoolUploads(runID string, uploads []*multipart.FileHeader) ([]*service.FileItem, int64, error) {
	files := make([]*service.FileItem, 0, len(uploads))
	var total int64
	for _, hdr := range uploads {
		name := filepath.Base(strings.TrimSpace(hdr.Filename))
		if name == "" || name == "." || name == string(filepath.Separator) {
			name = "subtitle"
		}
		item := &service.FileItem{
			ID:     uuid.NewString(),
			Name:   name,
			Status: service.StatusPending,
		}

		src, err := hdr.Open()
		if err != nil {
			return nil, 0, fmt.Errorf("open upload %s: %w", name, err)
		}
		path, err := s.spool.SaveUpload(runID, item.ID, src)
		src.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("spool upload %s: %w", name, err)
		}

		item.Path = path
		files = append(files, item)
		total += hdr.Size
	}
	return files, total, nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.List())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	run, ok := s.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	item := run.FindFile(chi.URLParam(r, "fileID"))
	if item == nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if item.Status != service.StatusDone {
		writeError(w, http.StatusConflict, "file is not translated yet")
		return
	}

	content := []byte(item.TranslatedText)
	if len(content) == 0 {
		// After a restart the in-memory copy is gone; the spool keeps
		// the translated document next to the upload.
		if item.Path == "" {
			writeError(w, http.StatusInternalServerError, "translated document is no longer available")
			return
		}
		data, err := os.ReadFile(s.spool.TranslatedPath(item.Path))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "translated document is no longer available")
			return
		}
		content = data
	}

	name := subtitle.OutputName(item.Name, item.Format, run.Options.TargetLang)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history store is not configured")
		return
	}
	limit := parsePositiveIntWithDefault(r.URL.Query().Get("limit"), 0)
	records, err := s.history.ListHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []service.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, service.SupportedLanguages())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func parseBoolValue(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "on", "yes":
		return true
	}
	return false
}

func parsePositiveIntWithDefault(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
