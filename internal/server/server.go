package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
	"github.com/sngm3741/delicious/api/internal/config"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/account"
	"github.com/sngm3741/delicious/api/internal/interfaces/http/public"
)

// Server は HTTP サーバーのライフサイクルを管理するコンポジションルート。
// ストレージ・写真・イベントの各アダプタを選び、アプリケーションサービスをルータへ接続する。
type Server struct {
	logger         *slog.Logger
	addr           string
	allowedOrigins []string
	jwtConfigs     []config.JWTConfig
	jwtAudience    string
	requestTimeout time.Duration

	health   Pinger
	photos   public.PhotoReader
	commands application.StoreCommandService
	queries  application.StoreQueryService
	ranking  application.RankingService
	hearts   application.HeartService

	closers []func(context.Context)
}

// New builds every adapter named by cfg and wires the services on top of them. Resources opened
// before a failure are released before returning the error.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	srv := &Server{
		logger:         logger,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		jwtConfigs:     append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:    cfg.JWTAudience,
		requestTimeout: cfg.RequestTimeout,
	}

	deps, err := srv.buildDependencies(ctx, cfg)
	if err != nil {
		srv.shutdown(context.Background())
		return nil, err
	}

	photos := application.NewPhotoIngester(deps.blobs, deps.resizer, logger)
	srv.health = deps.pinger
	srv.photos = deps.blobs
	srv.commands = application.NewStoreCommandService(deps.stores, application.NewSlugGenerator(deps.stores), photos, deps.events, logger)
	srv.queries = application.NewStoreQueryService(deps.stores, deps.aggregates, deps.users)
	srv.ranking = application.NewRankingService(deps.aggregates)
	srv.hearts = application.NewHeartService(deps.users)
	return srv, nil
}

// Handler はミドルウェアと全ルートを組み立てたルータを返す。
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	publicHandler := public.NewHandler(public.Config{
		Logger:         s.logger,
		Stores:         s.queries,
		Ranking:        s.ranking,
		Photos:         s.photos,
		RequestTimeout: s.requestTimeout,
	})
	publicHandler.Register(router)

	accountHandler := account.NewHandler(account.Config{
		Logger:         s.logger,
		Commands:       s.commands,
		Queries:        s.queries,
		Hearts:         s.hearts,
		RequestTimeout: s.requestTimeout,
	})
	accountHandler.Register(router, s.authMiddleware)

	return router
}

// Run serves HTTP until the listener fails or SIGINT/SIGTERM arrives, then shuts down gracefully.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return s.waitForShutdown(httpServer, errChan)
}

func (s *Server) waitForShutdown(httpServer *http.Server, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("http server shutdown failed", "error", err)
		}
	}

	s.shutdown(context.Background())
	return runErr
}

// shutdown は登録順と逆順にリソースを解放する。
func (s *Server) shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i](shutdownCtx)
	}
	s.closers = nil
}

func (s *Server) onShutdown(fn func(context.Context)) {
	s.closers = append(s.closers, fn)
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestId", middleware.GetReqID(r.Context()),
			)
		})
	}
}
