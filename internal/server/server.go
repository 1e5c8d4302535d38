// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/tierlens-cli/internal/analysis"
	"github.com/KaramelBytes/tierlens-cli/internal/parser"
	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

// Config holds what a Server needs per request.
type Config struct {
	Analysis       analysis.Options
	Load           table.LoadOptions
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Server answers upload requests with analysis reports.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// UploadResponse wraps a report with the request id.
type UploadResponse struct {
	ID     string           `json:"id"`
	Report *analysis.Report `json:"report"`
}

// New creates a server. Zero limits fall back to 32 MiB and 60s.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, logger: logger.With(slog.String("component", "server"))}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		r.Get("/health", s.health)
		r.Get("/rules", s.rules)
		r.Post("/upload", s.upload)
	})
	return r
}

// health handles GET /api/health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"id": requestID(r.Context()), "status": "ok"})
}

// rules handles GET /api/rules
func (s *Server) rules(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{"id": requestID(r.Context()), "rules": s.cfg.Analysis.Rules.Rules})
}

// upload handles POST /api/upload
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.logger.With(slog.String("handler", "upload"), slog.String("id", requestID(ctx)))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "upload rejected", slog.Int64("limit", tooLarge.Limit))
			_ = render.Render(w, r, errTooLarge(tooLarge.Limit))
			return
		}
		_ = render.Render(w, r, errMissingFile(err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		_ = render.Render(w, r, errMissingFile(err.Error()))
		return
	}
	defer file.Close()
	if _, err := parser.FormatFor(hdr.Filename); err != nil {
		_ = render.Render(w, r, errUnsupportedFormat(err))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "read upload", slog.String("error", err.Error()))
		_ = render.Render(w, r, errInternal(err))
		return
	}

	t, err := parser.Load(hdr.Filename, data, s.cfg.Load)
	if err != nil {
		if errors.Is(err, table.ErrParse) {
			logger.WarnContext(ctx, "parse failed", slog.String("file", hdr.Filename), slog.String("error", err.Error()))
			_ = render.Render(w, r, errParse(err))
			return
		}
		logger.ErrorContext(ctx, "load upload", slog.String("error", err.Error()))
		_ = render.Render(w, r, errInternal(err))
		return
	}

	rep := analysis.Analyze(t, s.cfg.Analysis)
	for _, warn := range rep.Warnings {
		logger.WarnContext(ctx, "analysis warning", slog.String("file", rep.Filename), slog.String("warning", warn))
	}
	logger.InfoContext(ctx, "analysis complete",
		slog.String("file", rep.Filename),
		slog.Int("rows", rep.Rows),
		slog.Int("dimensions", len(rep.Dimensions)),
	)
	render.JSON(w, r, UploadResponse{ID: requestID(ctx), Report: rep})
}
