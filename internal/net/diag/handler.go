// Package diag serves the bridge's health, diagnostics and admin endpoints.
package diag

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"glyphbridge"
	"glyphbridge/logging"
)

// Bridge is the session surface the handlers need.
type Bridge interface {
	Snapshot() glyphbridge.Diagnostics
	Reload(ctx context.Context) error
}

// Config configures the handler.
type Config struct {
	// AdminToken, when set, must be presented as a bearer token on admin
	// routes. When empty the admin routes are disabled.
	AdminToken    string
	ReloadTimeout time.Duration
	Metrics       *logging.Metrics
	Logger        *log.Logger
	// Profiler mounts net/http/pprof under /debug.
	Profiler bool
}

// NewHandler builds the diagnostics router.
func NewHandler(bridge Bridge, cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = time.Minute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	r.Get("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status     string                  `json:"status"`
			ServerTime int64                   `json:"serverTime"`
			Session    glyphbridge.Diagnostics `json:"session"`
			Metrics    map[string]uint64       `json:"metrics,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Session:    bridge.Snapshot(),
			Metrics:    cfg.Metrics.Snapshot(),
		}
		writeJSON(w, logger, http.StatusOK, payload)
	})

	if cfg.Profiler {
		r.Mount("/debug", middleware.Profiler())
	}

	r.Group(func(r chi.Router) {
		r.Use(requireToken(cfg.AdminToken))
		r.Post("/reload", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.ReloadTimeout)
			defer cancel()
			if err := bridge.Reload(ctx); err != nil {
				logger.Printf("reload via %s failed: %v", middleware.GetReqID(r.Context()), err)
				writeJSON(w, logger, http.StatusBadGateway, map[string]string{"status": "error", "error": err.Error()})
				return
			}
			writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}

func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				httpError(w, "admin routes disabled", http.StatusForbidden)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || got != token {
				httpError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode diagnostics: %v", err)
		httpError(w, "failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
