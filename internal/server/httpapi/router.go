package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scanvault/scanvault/internal/logging"
	"github.com/scanvault/scanvault/internal/server/auth"
	"github.com/scanvault/scanvault/internal/server/config"
	"github.com/scanvault/scanvault/internal/server/services"
)

// NewRouter assembles the full route tree.
//
// Three access tiers: public (auth endpoints, healthz, metrics), bearer
// (file endpoints), and webhook (scanner secret).
func NewRouter(cfg *config.Config, users *services.UserService, files *services.FileService, blacklist *auth.TokenBlacklist, logger logging.Logger) http.Handler {
	authHandler := NewAuthHandler(users)
	filesHandler := NewFilesHandler(files)
	webhookHandler := NewWebhookHandler(files)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(bearerAuth([]byte(cfg.SecretKey), blacklist))
			r.Post("/logout", authHandler.Logout)
		})
	})

	r.Route("/api/files", func(r chi.Router) {
		r.Use(bearerAuth([]byte(cfg.SecretKey), blacklist))
		r.Post("/upload-url", filesHandler.UploadURL)
		r.Get("/", filesHandler.List)
		r.Get("/{id}", filesHandler.Get)
		r.Delete("/{id}", filesHandler.Delete)
	})

	r.Route("/api/webhooks", func(r chi.Router) {
		r.Use(webhookAuth(cfg.WebhookSecret))
		r.Post("/scan-result", webhookHandler.ScanResult)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// requestLogger logs one line per request with method, path, status and
// elapsed time.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// NewServer wraps the router in an http.Server with sane timeouts.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.EndpointAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Shutdown drains the server with a bounded grace window.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
