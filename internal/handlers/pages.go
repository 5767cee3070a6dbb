package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mockery-backend/internal/models"
	"mockery-backend/internal/services"
)

type pageService interface {
	List(ctx context.Context) ([]models.PageInfo, error)
	Create(ctx context.Context, rawName string) (string, error)
	Delete(ctx context.Context, rawName string) error
	Get(ctx context.Context, rawName string) (*models.Page, error)
	Version(ctx context.Context, rawName string) (time.Time, error)
	Save(ctx context.Context, req models.SaveRequest) (string, error)
}

type PageHandler struct {
	pages pageService
}

func NewPageHandler(pages pageService) *PageHandler {
	return &PageHandler{pages: pages}
}

// List handles GET /api/pages.
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if pages == nil {
		pages = []models.PageInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"pages":   pages,
	})
}

// Action handles POST /api/pages with {action: create|delete, name}.
func (h *PageHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req models.PageActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", msgInvalidBody, r))
		return
	}

	switch req.Action {
	case "create":
		name, err := h.pages.Create(r.Context(), req.Name)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "name": name})
	case "delete":
		if err := h.pages.Delete(r.Context(), req.Name); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	default:
		handleServiceError(w, r, services.ErrUnknownAction)
	}
}

// Version handles GET /api/version?page=. Polled every 500 ms by the UI.
func (h *PageHandler) Version(w http.ResponseWriter, r *http.Request) {
	noCache(w)

	mod, err := h.pages.Version(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewVersionInfo(mod))
}

// Content handles GET /pages/{file}, serving the stored document.
func (h *PageHandler) Content(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if !strings.HasSuffix(file, ".html") {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Strona nie istnieje", r))
		return
	}

	page, err := h.pages.Get(r.Context(), strings.TrimSuffix(file, ".html"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	noCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Last-Modified", page.Modified.UTC().Format(http.TimeFormat))
	w.Header().Set("X-Page-Version", page.Version())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(page.Content))
}

// Save handles POST /api/save.
func (h *PageHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", msgInvalidBody, r))
		return
	}

	version, err := h.pages.Save(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "version": version})
}
