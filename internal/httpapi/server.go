package httpapi

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/subloc/subloc/internal/jobs"
	"github.com/subloc/subloc/internal/service"
	"github.com/subloc/subloc/pkg/log"
)

const defaultMaxUploadBytes = 20 << 20

// uploadSpool is the on-disk home for uploaded documents and their
// translated counterparts.
type uploadSpool interface {
	SaveUpload(runID, fileID string, r io.Reader) (string, error)
	TranslatedPath(inputPath string) string
	RemoveRun(runID string) error
}

// historyStore is the slice of the persistence layer the API reads
// finished-translation records from.
type historyStore interface {
	ListHistory(ctx context.Context, limit int) ([]service.HistoryRecord, error)
}

type Server struct {
	queue   *jobs.Queue
	spool   uploadSpool
	history historyStore

	maxUploadBytes int64
	corsOrigins    []string
	uiEnabled      bool
	uiStaticDir    string

	router *chi.Mux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithHistoryStore(store historyStore) Option {
	return func(s *Server) {
		s.history = store
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func NewServer(queue *jobs.Queue, spool uploadSpool, opts ...Option) *Server {
	s := &Server{
		queue:          queue,
		spool:          spool,
		maxUploadBytes: defaultMaxUploadBytes,
		uiEnabled:      false,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(cors.Handler(corsOptions(s.corsOrigins)))

	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		})

		r.Get("/health", s.handleHealth)
		r.Get("/languages", s.handleLanguages)
		r.Get("/history", s.handleHistory)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleCreateRun)
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
			r.Get("/{id}/stream", s.handleRunStream)
			r.Get("/{id}/files/{fileID}/download", s.handleDownloadFile)
		})
	})

	r.Get("/*", s.handleStatic)
	s.router = r
}

func corsOptions(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// With a wildcard origin, credentialed requests must stay disabled.
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if r.URL.Path == "/api/health" && rec.status < 400 {
			return
		}
		log.Info("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
