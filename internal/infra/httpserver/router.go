package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	appai "github.com/wuwuwuxn/sheetserver/internal/application/ai"
	"github.com/wuwuwuxn/sheetserver/internal/application/uploads"
	domai "github.com/wuwuwuxn/sheetserver/internal/domain/ai"
	domain "github.com/wuwuwuxn/sheetserver/internal/domain/reports"
	"github.com/wuwuwuxn/sheetserver/internal/logger"
	"github.com/wuwuwuxn/sheetserver/internal/middleware"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

// Options configures the router beyond its two services.
type Options struct {
	StorageRoot       string
	RateLimitCapacity int
	RateLimitRefill   int
	HealthCheckers    map[string]middleware.HealthChecker
}

type Router struct {
	uploadsSvc *uploads.Service
	aiSvc      *appai.Service
	static     http.Handler
}

func NewRouter(uploadsSvc *uploads.Service, aiSvc *appai.Service, opts Options) http.Handler {
	r := &Router{
		uploadsSvc: uploadsSvc,
		aiSvc:      aiSvc,
		static:     http.FileServer(http.Dir(opts.StorageRoot)),
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Recovery)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.CORS)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	limited := middleware.RateLimitMiddleware(opts.RateLimitCapacity, opts.RateLimitRefill)
	mux.With(limited).Post("/upload", r.handleUpload)

	mux.Get("/history", r.handleHistory)
	mux.Get("/audit", r.wrap(r.handleAuditLatest))
	mux.Post("/ai/interpret", r.wrap(r.handleInterpret))
	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/metrics", middleware.MetricsHandler)

	// Everything else: GET is a static read from the storage root
	// (index.html, upload.html, analysis_results.json, history/<name>);
	// other methods get a 404 body.
	mux.NotFound(r.handleFallback)
	mux.MethodNotAllowed(r.handleFallback)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (rt *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, domai.ErrNotConfigured) || errors.Is(err, domain.ErrAuditNotConfigured) {
				writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
				return
			}
			if os.IsNotExist(err) {
				writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		}
	}
}

// Response envelopes. The upload contract keeps stderr/stdout present
// (even when empty) on the analysis-failed path.
type uploadSuccess struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	Filename         string         `json:"filename"`
	Size             int            `json:"size"`
	Summary          domain.Summary `json:"summary"`
	HistoryFile      string         `json:"history_file"`
	HistoryTimestamp string         `json:"history_timestamp"`
	Diagnostics      []string       `json:"diagnostics,omitempty"`
}

type analysisFailed struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stderr  string `json:"stderr"`
	Stdout  string `json:"stdout"`
}

type requestFailed struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

// POST /upload
func (rt *Router) handleUpload(w http.ResponseWriter, req *http.Request) {
	ct := req.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		writeJSON(w, http.StatusBadRequest, requestFailed{Message: domain.ErrInvalidContentType.Error()})
		return
	}

	if err := req.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, requestFailed{Message: domain.ErrMissingFileField.Error()})
		return
	}
	var filename string
	var data []byte

	file, header, err := req.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		filename = header.Filename
		b, rerr := io.ReadAll(file)
		if rerr != nil {
			writeJSON(w, http.StatusInternalServerError, requestFailed{
				Message: "upload or analysis failed: " + rerr.Error(),
			})
			return
		}
		data = b
	case req.MultipartForm != nil && len(req.MultipartForm.Value["file"]) > 0:
		// a part declaring filename="" is parsed as a plain form value,
		// not a file; it still counts as an upload with no name
		data = []byte(req.MultipartForm.Value["file"][0])
	default:
		writeJSON(w, http.StatusBadRequest, requestFailed{Message: domain.ErrMissingFileField.Error()})
		return
	}

	if filename == "" {
		filename = uploads.DefaultFilename
	}
	filename, err = middleware.SanitizeFilename(filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestFailed{
			Message: domain.ErrInvalidFilename.Error() + ": " + err.Error(),
		})
		return
	}

	middleware.IncrementUploads()

	out, err := rt.uploadsSvc.Upload(req.Context(), uploads.UploadCommand{
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		var runErr *domain.RunError
		if errors.As(err, &runErr) && runErr.Kind == domain.RunErrTimeout {
			writeJSON(w, http.StatusInternalServerError, analysisFailed{
				Message: "analysis timed out",
				Stderr:  runErr.Stderr,
				Stdout:  runErr.Stdout,
			})
			return
		}
		logger.Error(req.Context(), "upload workflow failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, requestFailed{
			Message: "upload or analysis failed: " + err.Error(),
		})
		return
	}

	if !out.OK {
		middleware.IncrementAnalysesFailed()
		writeJSON(w, http.StatusInternalServerError, analysisFailed{
			Message: "analysis failed",
			Stderr:  out.Stderr,
			Stdout:  out.Stdout,
		})
		return
	}

	writeJSON(w, http.StatusOK, uploadSuccess{
		Success:          true,
		Message:          "upload and analysis complete",
		Filename:         out.Filename,
		Size:             out.Size,
		Summary:          out.Summary,
		HistoryFile:      out.HistoryFile,
		HistoryTimestamp: out.HistoryTimestamp,
		Diagnostics:      out.Diagnostics,
	})
}

// GET /history
func (rt *Router) handleHistory(w http.ResponseWriter, req *http.Request) {
	entries, err := rt.uploadsSvc.History(req.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /audit?limit=20
func (rt *Router) handleAuditLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := rt.uploadsSvc.AuditLatest(req.Context(), limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

// POST /ai/interpret
// Body: {"name": "<history entry>"}
func (rt *Router) handleInterpret(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := middleware.ValidateHistoryName(body.Name); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return nil
	}

	raw, err := rt.uploadsSvc.ReadHistoryEntry(req.Context(), body.Name)
	if err != nil {
		return err
	}

	text, err := rt.aiSvc.Interpret(req.Context(), body.Name, string(raw))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"name":           body.Name,
		"interpretation": text,
	})
	return nil
}

func (rt *Router) handleFallback(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		rt.static.ServeHTTP(w, req)
		return
	}
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Unknown " + req.Method + " endpoint"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), "encode response", "error", err)
	}
}
