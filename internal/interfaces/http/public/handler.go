package public

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/common"
)

// PhotoReader serves stored photos back to clients.
type PhotoReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger         *slog.Logger
	stores         application.StoreQueryService
	ranking        application.RankingService
	photos         PhotoReader
	requestTimeout time.Duration
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger         *slog.Logger
	Stores         application.StoreQueryService
	Ranking        application.RankingService
	Photos         PhotoReader
	RequestTimeout time.Duration
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = common.DefaultRequestTimeout
	}
	return &Handler{
		logger:         cfg.Logger,
		stores:         cfg.Stores,
		ranking:        cfg.Ranking,
		photos:         cfg.Photos,
		requestTimeout: timeout,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/stores", h.storeListHandler())
	r.Get("/stores/page/{page}", h.storeListHandler())
	r.Get("/store/{slug}", h.storeDetailHandler())
	r.Get("/tags", h.tagsHandler())
	r.Get("/tags/{tag}", h.tagsHandler())
	r.Get("/top", h.topStoresHandler())
	r.Get("/api/search", h.searchHandler())
	r.Get("/api/stores/near", h.nearbyHandler())
	if h.photos != nil {
		r.Get(common.UploadsPath+"{name}", h.photoHandler())
	}
}

func (h *Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.requestTimeout)
}
