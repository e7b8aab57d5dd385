package employee

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/talentdesk/backoffice/internal/transport"
	"github.com/talentdesk/backoffice/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

// List serves the employee table. A non-empty search term bypasses pagination
// and returns the merged search results instead.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if term := r.URL.Query().Get("search"); term != "" {
		results, err := h.Service.Search(r.Context(), term)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		h.WriteJSON(w, http.StatusOK, map[string]any{"records": results})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := h.Service.ListPage(r.Context(), page)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// Index serves the flat employee index; force=true bypasses the cache window.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	entries, err := h.Service.Index(r.Context(), force)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Create: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	emp, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, emp)
}

// PreviewUpdate returns the change summary a pending edit would produce, for
// the confirmation dialog.
func (h *Handler) PreviewUpdate(w http.ResponseWriter, r *http.Request) {
	var dto UpdateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("PreviewUpdate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := h.Service.PreviewUpdate(r.Context(), chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// Update applies an edit; classification changes need confirm=true.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var dto UpdateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Update: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	confirmed := r.URL.Query().Get("confirm") == "true"

	emp, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), dto, confirmed)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, emp)
}

// Delete removes an employee; it refuses without confirm=true.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"), confirmed); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
