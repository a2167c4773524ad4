package handlers

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleBlob serves the bytes behind a live resource handle
func (h *Handler) HandleBlob(w http.ResponseWriter, r *http.Request) {
	blob, ok := h.blobs.Get(mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	if blob.MIMEType != "" {
		w.Header().Set("Content-Type", blob.MIMEType)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, blob.Name, blob.CreatedAt, bytes.NewReader(blob.Data))
}
