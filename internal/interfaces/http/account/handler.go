package account

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

// Handler serves the endpoints that act on behalf of the signed-in user.
type Handler struct {
	logger         *slog.Logger
	commands       application.StoreCommandService
	queries        application.StoreQueryService
	hearts         application.HeartService
	requestTimeout time.Duration
}

// Config provides dependencies for Handler.
type Config struct {
	Logger         *slog.Logger
	Commands       application.StoreCommandService
	Queries        application.StoreQueryService
	Hearts         application.HeartService
	RequestTimeout time.Duration
}

func NewHandler(cfg Config) *Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = common.DefaultRequestTimeout
	}
	return &Handler{
		logger:         cfg.Logger,
		commands:       cfg.Commands,
		queries:        cfg.Queries,
		hearts:         cfg.Hearts,
		requestTimeout: timeout,
	}
}

// Register mounts the authenticated routes. authMiddleware must put a common.AuthenticatedUser
// into the request context.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/auth/verify", h.authVerifyHandler())
		r.Post("/stores", h.storeCreateHandler())
		r.Get("/stores/{id}/edit", h.storeEditHandler())
		r.Post("/stores/{id}", h.storeUpdateHandler())
		r.Post("/api/stores/{id}/heart", h.heartToggleHandler())
		r.Get("/hearts", h.heartedStoresHandler())
	})
}

func (h *Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.requestTimeout)
}

// currentUser writes 401 and returns false when the middleware did not authenticate anyone.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (common.AuthenticatedUser, bool) {
	user, ok := common.UserFromContext(r.Context())
	if !ok {
		common.WriteJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return common.AuthenticatedUser{}, false
	}
	return user, true
}

func (h *Handler) authVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, map[string]any{
			"status": "ok",
			"user":   user,
		})
	}
}
