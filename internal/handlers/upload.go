package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

// HandleUpload stores a tracker and reference image pair on disk and returns their URLs
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
		h.metrics.ObserveUpload("failed")
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	mind, mindErr := readFormFile(r, "mind")
	image, imageErr := readFormFile(r, "image")
	if mindErr != nil || imageErr != nil {
		h.metrics.ObserveUpload("missing")
		h.writeError(w, "Missing files", http.StatusBadRequest)
		return
	}

	if err := h.ensureUploadsDir(); err != nil {
		h.metrics.ObserveUpload("failed")
		h.writeError(w, "Failed to create uploads directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	mindName, err := h.saveUpload(mind)
	if err != nil {
		h.metrics.ObserveUpload("failed")
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	imageName, err := h.saveUpload(image)
	if err != nil {
		h.metrics.ObserveUpload("failed")
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveUpload("ok")
	h.writeJSON(w, models.UploadResult{
		MindURL:  "/uploads/" + mindName,
		ImageURL: "/uploads/" + imageName,
	})
}

// HandleUploadedFile serves a file previously stored by HandleUpload
func (h *Handler) HandleUploadedFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	path := filepath.Join(h.uploadsDir, name)
	if _, err := os.Stat(path); err != nil {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

func (h *Handler) saveUpload(f models.File) (string, error) {
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), f.Name)
	path := filepath.Join(h.uploadsDir, name)
	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	slog.Info("Upload saved", "filename", name, "bytes", f.Size())
	return name, nil
}
