package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router builds the route table
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HandleHealth).Methods("GET")
	r.HandleFunc("/favicon.ico", h.HandleFavicon).Methods("GET")
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods("GET")
	}

	if h.enableUpload {
		r.HandleFunc("/upload", h.HandleUpload).Methods("POST")
		r.HandleFunc("/uploads/{name}", h.HandleUploadedFile).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/slots/{kind}", h.HandlePutSlot).Methods("PUT")
	api.HandleFunc("/slots/{kind}", h.HandleDeleteSlot).Methods("DELETE")
	api.HandleFunc("/session", h.HandleGetSession).Methods("GET")
	api.HandleFunc("/session/start", h.HandleStart).Methods("POST")
	api.HandleFunc("/session/back", h.HandleBack).Methods("POST")
	api.HandleFunc("/scene", h.HandleScene).Methods("GET")
	api.NotFoundHandler = http.HandlerFunc(h.HandleNotFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(h.HandleNotFound)

	r.HandleFunc("/blob/{id}", h.HandleBlob).Methods("GET")

	r.PathPrefix("/").HandlerFunc(h.HandleStatic).Methods("GET", "HEAD")
	r.NotFoundHandler = http.HandlerFunc(h.HandleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.HandleNotFound)

	return r
}
