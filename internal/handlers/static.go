package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	fullPath := filepath.Join(h.staticDir, filepath.FromSlash(path))
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		h.HandleNotFound(w, r)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	case strings.HasSuffix(path, ".mind"):
		w.Header().Set("Content-Type", "application/octet-stream")
	case strings.HasSuffix(path, ".glb"):
		w.Header().Set("Content-Type", "model/gltf-binary")
	}

	http.ServeFile(w, r, fullPath)
}
