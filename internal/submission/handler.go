package submission

import (
	"encoding/json"
	"net/http"

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

func (h *Handler) ListCareer(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.Service.ListCareer(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{"submissions": submissions})
}

func (h *Handler) GetCareer(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Service.GetCareer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sub)
}

// ResolveCareer sets the review status of an application.
func (h *Handler) ResolveCareer(w http.ResponseWriter, r *http.Request) {
	var dto struct {
		Status CareerStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("ResolveCareer: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.Service.ResolveCareer(r.Context(), chi.URLParam(r, "id"), dto.Status)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) DeleteCareer(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.Service.DeleteCareer(r.Context(), chi.URLParam(r, "id"), confirmed); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListContact(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.Service.ListContact(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{"submissions": submissions})
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.Service.DeleteContact(r.Context(), chi.URLParam(r, "id"), confirmed); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
