package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

func (h *Handler) storeCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		cmd, err := parseStoreForm(w, r)
		if err != nil {
			common.WriteError(h.logger, w, "store create", err)
			return
		}

		ctx, cancel := h.context(r)
		defer cancel()

		store, err := h.commands.Create(ctx, user.ID, cmd)
		if err != nil {
			common.WriteError(h.logger, w, "store create", err)
			return
		}
		h.logger.Info("store created", "storeId", store.ID, "slug", store.Slug, "authorId", user.ID)
		w.Header().Set("Location", "/store/"+store.Slug)
		common.WriteJSON(h.logger, w, http.StatusCreated, common.NewStoreView(*store))
	}
}

func (h *Handler) storeEditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.context(r)
		defer cancel()

		store, err := h.commands.Editable(ctx, chi.URLParam(r, "id"), user.ID)
		if err != nil {
			common.WriteError(h.logger, w, "store edit", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewStoreView(*store))
	}
}

func (h *Handler) storeUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		ctx, cancel := h.context(r)
		defer cancel()

		// ownership is reported before any form error
		id := chi.URLParam(r, "id")
		if _, err := h.commands.Editable(ctx, id, user.ID); err != nil {
			common.WriteError(h.logger, w, "store update", err)
			return
		}
		cmd, err := parseStoreForm(w, r)
		if err != nil {
			common.WriteError(h.logger, w, "store update", err)
			return
		}

		store, err := h.commands.Update(ctx, id, user.ID, cmd)
		if err != nil {
			common.WriteError(h.logger, w, "store update", err)
			return
		}
		h.logger.Info("store updated", "storeId", store.ID, "slug", store.Slug)
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewStoreView(*store))
	}
}
