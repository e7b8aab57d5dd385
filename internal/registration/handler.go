package registration

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/talentdesk/backoffice/internal/indexer"
	"github.com/talentdesk/backoffice/internal/transport"
	"github.com/talentdesk/backoffice/pkg/logger"
)

// IndexRebuilder is satisfied by the indexer service.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (indexer.Report, error)
}

type Handler struct {
	*transport.BaseHandler
	Service   *Service
	Rebuilder IndexRebuilder
}

func NewHandler(service *Service, rebuilder IndexRebuilder) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
		Rebuilder:   rebuilder,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := h.Service.ListPage(r.Context(), page)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	reg, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, reg)
}

// Reindex rebuilds the denormalized indexes from the source collections and
// drops the now stale cached pages.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	report, err := h.Rebuilder.Rebuild(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Service.InvalidateListing(r.Context())

	h.WriteJSON(w, http.StatusOK, report)
}
