package public

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/catalog/domain"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

// storeListHandler serves /stores and /stores/page/{page}. Pages past the end redirect to the
// last page.
func (h *Handler) storeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		page := 1
		if raw := chi.URLParam(r, "page"); raw != "" {
			parsed, ok := common.ParsePositiveInt(raw, 0)
			if !ok {
				common.WriteError(h.logger, w, "store list", domain.Validationf("page must be a positive integer"))
				return
			}
			page = parsed
		}

		result, err := h.stores.List(ctx, page)
		if err != nil {
			var outOfRange *domain.PageOutOfRangeError
			if errors.As(err, &outOfRange) {
				h.logger.Info("page out of range, redirecting", "requested", outOfRange.Requested, "last", outOfRange.LastPage)
				http.Redirect(w, r, fmt.Sprintf("/stores/page/%d", outOfRange.LastPage), http.StatusFound)
				return
			}
			common.WriteError(h.logger, w, "store list", err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, newStoreListResponse(result))
	}
}

func (h *Handler) storeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		store, err := h.stores.DetailBySlug(ctx, chi.URLParam(r, "slug"))
		if err != nil {
			common.WriteError(h.logger, w, "store detail", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, common.NewStoreView(*store))
	}
}

func (h *Handler) tagsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		page, err := h.stores.ByTag(ctx, chi.URLParam(r, "tag"))
		if err != nil {
			common.WriteError(h.logger, w, "tags", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, tagPageResponse{
			Tag:    page.Tag,
			Tags:   newTagCountResponses(page.Tags),
			Stores: common.NewStoreViews(page.Stores),
		})
	}
}

func (h *Handler) topStoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		stores, err := h.ranking.TopStores(ctx)
		if err != nil {
			common.WriteError(h.logger, w, "top stores", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newRankedStoreResponses(stores))
	}
}

func (h *Handler) searchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		query := r.URL.Query()
		limit, _ := common.ParsePositiveInt(query.Get("limit"), application.DefaultSearchLimit)

		hits, err := h.stores.Search(ctx, query.Get("q"), limit)
		if err != nil {
			common.WriteError(h.logger, w, "search", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newScoredStoreResponses(hits))
	}
}

func (h *Handler) nearbyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		query := r.URL.Query()
		lng, err := common.ParseFloat("lng", query.Get("lng"))
		if err != nil {
			common.WriteError(h.logger, w, "nearby", err)
			return
		}
		lat, err := common.ParseFloat("lat", query.Get("lat"))
		if err != nil {
			common.WriteError(h.logger, w, "nearby", err)
			return
		}
		maxDistance, _ := common.ParsePositiveInt(query.Get("maxDistance"), application.DefaultMaxDistanceMeters)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), application.DefaultNearbyLimit)

		hits, err := h.stores.Nearby(ctx, application.NearbyQuery{
			Longitude:   lng,
			Latitude:    lat,
			MaxDistance: float64(maxDistance),
			Limit:       limit,
		})
		if err != nil {
			common.WriteError(h.logger, w, "nearby", err)
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newNearbyStoreResponses(hits))
	}
}

func (h *Handler) photoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.context(r)
		defer cancel()

		name := chi.URLParam(r, "name")
		if name == "" || strings.ContainsAny(name, `/\`) {
			common.WriteError(h.logger, w, "photo", domain.ErrNotFound)
			return
		}

		body, contentType, err := h.photos.Open(ctx, name)
		if err != nil {
			common.WriteError(h.logger, w, "photo", err)
			return
		}
		defer body.Close()

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil {
			h.logger.Warn("photo stream interrupted", "name", name, "error", err)
		}
	}
}
