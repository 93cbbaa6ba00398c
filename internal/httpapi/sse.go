package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleRunStream pushes run snapshots as server-sent events once per
// second. The stream closes after the run reaches a terminal status, so
// the final event always carries the finished run.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if _, ok := s.queue.Get(runID); !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func() (done bool) {
		run, found := s.queue.Get(runID)
		if !found {
			return true
		}
		payload, err := json.Marshal(run)
		if err != nil {
			return true
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return true
		}
		flusher.Flush()
		return run.Status.Terminal()
	}

	if send() {
		return
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if send() {
				return
			}
		}
	}
}
