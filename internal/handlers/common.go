package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/arviewer/internal/images"
	"github.com/lehigh-university-libraries/arviewer/internal/models"
	"github.com/lehigh-university-libraries/arviewer/internal/observability"
	"github.com/lehigh-university-libraries/arviewer/internal/session"
	"github.com/lehigh-university-libraries/arviewer/internal/storage"
)

// MaxUploadBytes limits every uploaded file
const MaxUploadBytes = 10 * 1024 * 1024

type Handler struct {
	session      *session.Session
	blobs        *storage.HandleStore
	fetcher      *images.Fetcher
	metrics      *observability.Collector
	staticDir    string
	uploadsDir   string
	enableUpload bool
}

// Config wires the HTTP surface
type Config struct {
	Session      *session.Session
	Blobs        *storage.HandleStore
	Fetcher      *images.Fetcher
	Metrics      *observability.Collector
	StaticDir    string
	UploadsDir   string
	EnableUpload bool
}

func New(cfg Config) *Handler {
	if cfg.Fetcher == nil {
		cfg.Fetcher = images.NewFetcher()
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "uploads"
	}
	return &Handler{
		session:      cfg.Session,
		blobs:        cfg.Blobs,
		fetcher:      cfg.Fetcher,
		metrics:      cfg.Metrics,
		staticDir:    cfg.StaticDir,
		uploadsDir:   cfg.UploadsDir,
		enableUpload: cfg.EnableUpload,
	}
}

type errorResponse struct {
	Error   string               `json:"error"`
	Session *models.SessionState `json:"session,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "code", code)
	}
	h.writeJSONStatus(w, code, errorResponse{Error: message})
}

// writeSessionError reports err along with the session state the page should render
func (h *Handler) writeSessionError(w http.ResponseWriter, err error, code int) {
	state := h.session.State()
	h.writeJSONStatus(w, code, errorResponse{Error: err.Error(), Session: &state})
}

// File operation helpers
func (h *Handler) ensureUploadsDir() error {
	return os.MkdirAll(h.uploadsDir, 0755)
}
