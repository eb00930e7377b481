package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/disblox/disblox/internal/auth"
	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/database"
	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/guild"
	"github.com/disblox/disblox/internal/handler"
	"github.com/disblox/disblox/internal/identity"
	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/metrics"
	"github.com/disblox/disblox/internal/setup"
)

// Config carries everything the HTTP layer needs at construction time
type Config struct {
	Port             int
	FrontendURL      string
	TrustedProxies   []string
	RobloxConfigured bool
}

type Server struct {
	httpServer *http.Server
}

// NewServer wires the router, middleware stack, and all API handlers
func NewServer(cfg Config, dbPool database.Pool, authSvc auth.Service, identitySvc identity.Service, wizard setup.Service, provider *guild.Provider, dataCache *cache.Cache, configs handler.ConfigSource, mirror handler.GuildMirror, botStats handler.CommandStatsSource, eventBus event.Bus) *Server {
	r := chi.NewRouter()

	// Middleware stack
	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()

	r.Use(SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(AuthMiddleware(authSvc, cfg.TrustedProxies, detector))
	r.Use(SecurityLoggingMiddleware(cfg.TrustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool, provider))

	// Version endpoint (public, for deployment verification)
	r.Get("/version", handler.HandleVersion())

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Discord login and session lifecycle
		authHandlers := handler.NewAuthHandlers(authSvc, cfg.FrontendURL)
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", authHandlers.HandleLogin())
			r.Get("/callback", authHandlers.HandleCallback())
			r.Post("/refresh", authHandlers.HandleRefresh())
			r.Get("/me", authHandlers.HandleMe())
			r.Post("/logout", authHandlers.HandleLogout())
		})

		// Roblox account linking
		robloxHandlers := handler.NewRobloxHandlers(identitySvc, cfg.FrontendURL, cfg.RobloxConfigured)
		r.Route("/roblox", func(r chi.Router) {
			r.Get("/auth", robloxHandlers.HandleBeginAuth())
			r.Get("/callback", robloxHandlers.HandleCallback())
			r.Delete("/unlink/{accountID}", robloxHandlers.HandleUnlink())
			r.Get("/status", robloxHandlers.HandleStatus())
		})

		// Per-guild setup wizard, gated on Discord manage permission
		serverHandlers := handler.NewServerHandlers(wizard, authSvc)
		r.Route("/server/{serverID}", func(r chi.Router) {
			r.Get("/config", serverHandlers.HandleGetConfig())
			r.Delete("/config", serverHandlers.HandleReset())
			r.Get("/setup", serverHandlers.HandleGetSetup())
			r.Post("/setup/nickname", serverHandlers.HandleSetupNickname())
			r.Post("/setup/verified-role", serverHandlers.HandleSetupVerifiedRole())
			r.Post("/setup/group", serverHandlers.HandleSetupGroup())
			r.Get("/group-roles", serverHandlers.HandleGetGroupRoles())
			r.Patch("/edit/nickname", serverHandlers.HandleEditNickname())
			r.Patch("/edit/verified-role", serverHandlers.HandleEditVerifiedRole())
			r.Patch("/edit/group", serverHandlers.HandleEditGroup())
		})

		// Dashboard views
		dashboardHandlers := handler.NewDashboardHandlers(authSvc, identitySvc, provider, dataCache, configs, mirror, botStats, eventBus)
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/user", dashboardHandlers.HandleGetUser())
			r.Get("/user/servers", dashboardHandlers.HandleGetUserServers())
			r.Get("/user/linked-accounts", dashboardHandlers.HandleGetLinkedAccounts())
			r.Get("/bot/status/{serverID}", dashboardHandlers.HandleBotStatus())
			r.Get("/bot/ready", dashboardHandlers.HandleBotReady())
			r.Post("/bot/manual-sync", dashboardHandlers.HandleManualSync())
			r.Post("/bot/verify-in-server", dashboardHandlers.HandleVerifyInServer())
			r.Get("/cache/stats", dashboardHandlers.HandleCacheStats())
			r.Post("/cache/clear", dashboardHandlers.HandleCacheClear())
		})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		// Use HasPrefix to catch potential variations (e.g. /healthz/)
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAuthorization) || strings.EqualFold(k, "Cookie") {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
