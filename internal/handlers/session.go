package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/arviewer/internal/screen"
)

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.session.State())
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Start(r.Context()); err != nil {
		if errors.Is(err, screen.ErrNotReady) || errors.Is(err, screen.ErrPending) || errors.Is(err, screen.ErrInvalidTransition) {
			h.writeSessionError(w, err, http.StatusConflict)
			return
		}
		h.writeSessionError(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSONStatus(w, http.StatusAccepted, h.session.State())
}

func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Back(r.Context()); err != nil {
		if errors.Is(err, screen.ErrInvalidTransition) {
			h.writeSessionError(w, err, http.StatusConflict)
			return
		}
		h.writeSessionError(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.session.State())
}

func (h *Handler) HandleScene(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(h.session.Markup())); err != nil {
		slog.Error("Unable to write scene markup", "err", err)
	}
}
