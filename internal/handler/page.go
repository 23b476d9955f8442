package handler

import (
	"bytes"
	"log"
	"net/http"

	"imagination-site-api/pkg/response"
)

// PageHandler serves the rendered page and its JSON snapshot.
type PageHandler struct {
	page PageSource
}

// NewPageHandler creates a new page handler.
func NewPageHandler(page PageSource) *PageHandler {
	return &PageHandler{page: page}
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	response.HTML(w, http.StatusOK, func(buf *bytes.Buffer) error {
		if err := h.page.RenderPage(buf); err != nil {
			log.Printf("[PageHandler] Error rendering page: %v", err)
			return err
		}
		return nil
	})
}

// Snapshot handles GET /api/v1/page
func (h *PageHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	response.OK(w, h.page.Snapshot())
}
