package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lehigh-university-libraries/arviewer/internal/assets"
	"github.com/lehigh-university-libraries/arviewer/internal/models"
	"github.com/lehigh-university-libraries/arviewer/internal/session"
)

type slotURLRequest struct {
	URL string `json:"url"`
}

func (h *Handler) HandlePutSlot(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseSlotKind(mux.Vars(r)["kind"])
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	var file models.File
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var request slotURLRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if request.URL == "" {
			h.writeError(w, "url is required", http.StatusBadRequest)
			return
		}
		file, err = h.fetcher.Fetch(r.Context(), request.URL)
		if err != nil {
			h.writeSessionError(w, h.session.ReportTransportError("fetch "+request.URL, err), http.StatusBadGateway)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
		file, err = readFormFile(r, "file")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.session.Select(r.Context(), kind, file); err != nil {
		var (
			verr *assets.ValidationError
			perr *assets.ProcessingError
		)
		switch {
		case errors.As(err, &verr), errors.As(err, &perr):
			h.writeSessionError(w, err, http.StatusBadRequest)
		case errors.Is(err, session.ErrSuperseded), errors.Is(err, session.ErrSlotsLocked):
			h.writeSessionError(w, err, http.StatusConflict)
		default:
			h.writeSessionError(w, err, http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, h.session.State())
}

func (h *Handler) HandleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseSlotKind(mux.Vars(r)["kind"])
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := h.session.Clear(kind); err != nil {
		h.writeSessionError(w, err, http.StatusConflict)
		return
	}
	h.writeJSON(w, h.session.State())
}
