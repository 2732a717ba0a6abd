package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/carebook/internal/catalog"
)

// ListServices handles GET /services.
func ListServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

// GetService handles GET /services/{id}.
func GetService(w http.ResponseWriter, r *http.Request) {
	s, ok := catalog.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Service not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
