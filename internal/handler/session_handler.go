package handler

import (
	"net/http"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
)

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.Open(r.Context(), sessionFrom(r)); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.Close(r.Context(), sessionFrom(r)); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetView отдает последний согласованный снимок открытой сессии
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	view, ok := h.views.Snapshot(sess.UserID)
	if !ok {
		h.handleError(w, domain.NewNotFoundError("session for user "+sess.UserID))
		return
	}

	writeJSON(w, http.StatusOK, viewToHTTP(view))
}

func (h *Handler) RefreshView(w http.ResponseWriter, r *http.Request) {
	collection := repository.Collection(r.URL.Query().Get("collection"))
	if !collection.Valid() {
		h.handleError(w, domain.NewInvalidInputError("unknown collection %q", collection))
		return
	}

	if err := h.views.Refresh(r.Context(), sessionFrom(r).UserID, collection); err != nil {
		h.handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
