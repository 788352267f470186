package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

type heartResponse struct {
	Hearts  []string `json:"hearts"`
	Hearted bool     `json:"hearted"`
}

func (h *Handler) heartToggleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.context(r)
		defer cancel()

		storeID := chi.URLParam(r, "id")
		hearts, err := h.hearts.Toggle(ctx, user.ID, storeID)
		if err != nil {
			common.WriteError(h.logger, w, "heart toggle", err)
			return
		}

		if hearts == nil {
			hearts = []string{}
		}
		hearted := false
		for _, id := range hearts {
			if id == storeID {
				hearted = true
				break
			}
		}
		common.WriteJSON(h.logger, w, http.StatusOK, heartResponse{Hearts: hearts, Hearted: hearted})
	}
}

func (h *Handler) heartedStoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.context(r)
		defer cancel()

		stores, err := h.queries.Hearted(ctx, user.ID)
		if err != nil {
			common.WriteError(h.logger, w, "hearted stores", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewStoreViews(stores))
	}
}
