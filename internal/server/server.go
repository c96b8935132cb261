// Package server assembles the HTTP surface: Connect services, health and
// metrics endpoints, and the single-page frontend.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitx/pkg/api"
)

// rpcPrefix marks Connect procedure paths so the frontend fallback never
// answers them.
const rpcPrefix = "/splitx.v1."

// Services are the RPC implementations to mount. Nil entries are skipped.
type Services struct {
	Auth        api.AuthServiceHandler
	Groups      api.GroupServiceHandler
	Expenses    api.ExpenseServiceHandler
	Balances    api.BalanceServiceHandler
	Settlements api.SettlementServiceHandler
}

// Options configures the root handler.
type Options struct {
	// StaticPath is the directory holding the built frontend. Empty disables it.
	StaticPath string

	// Interceptors wrap every RPC, outermost first.
	Interceptors []connect.Interceptor

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Ping backs /healthz.
	Ping func(ctx context.Context) error

	Logger *slog.Logger
}

// New returns the root handler, wrapped with h2c so Connect and gRPC clients
// can use HTTP/2 without TLS.
func New(services Services, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", healthHandler(opts.Ping))
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	handlerOpts := []connect.HandlerOption{connect.WithInterceptors(opts.Interceptors...)}
	mount := func(path string, h http.Handler) {
		r.Handle(path+"*", h)
		logger.Debug("Mounted service", "path", path)
	}
	if services.Auth != nil {
		mount(api.NewAuthServiceHandler(services.Auth, handlerOpts...))
	}
	if services.Groups != nil {
		mount(api.NewGroupServiceHandler(services.Groups, handlerOpts...))
	}
	if services.Expenses != nil {
		mount(api.NewExpenseServiceHandler(services.Expenses, handlerOpts...))
	}
	if services.Balances != nil {
		mount(api.NewBalanceServiceHandler(services.Balances, handlerOpts...))
	}
	if services.Settlements != nil {
		mount(api.NewSettlementServiceHandler(services.Settlements, handlerOpts...))
	}

	if opts.StaticPath != "" {
		r.Get("/*", spaHandler(opts.StaticPath))
	}

	return h2c.NewHandler(r, &http2.Server{})
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status, code = "unavailable", http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

// spaHandler serves files from dir and falls back to index.html for unknown
// paths so client-side routes work on reload.
func spaHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, rpcPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// requestLogger logs every HTTP request after it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// cors allows browser clients on other origins to call the Connect API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms, X-Request-Id")
		h.Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
