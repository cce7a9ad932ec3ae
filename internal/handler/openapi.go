package handler

import (
	"net/http"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 description of the console API.
type OpenAPIHandler struct {
	version string
	views   []openapi.View
}

// NewOpenAPIHandler creates a new OpenAPIHandler for the given guarded views.
func NewOpenAPIHandler(version string, views []openapi.View) *OpenAPIHandler {
	return &OpenAPIHandler{version: version, views: views}
}

// ServeSpec returns the document with the server URL taken from the request.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	doc := openapi.Generate(scheme+"://"+r.Host, h.version, h.views)
	writeJSON(w, http.StatusOK, doc)
}
