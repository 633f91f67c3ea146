package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/petermazzocco/memory-wall/internal/logging"
)

type Deps struct {
	Memories    MemoryService
	Auth        LoginService
	RequireAuth func(http.Handler) http.Handler
	Logger      *slog.Logger

	AllowedOrigins     []string
	RateLimitPerMinute int

	// UploadsDir is served under /uploads when set (disk blob backend).
	UploadsDir string
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(RejectUnknownOrigins(d.AllowedOrigins))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	limit := httprate.Limit(
		d.RateLimitPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(limit).Post("/upload", func(w http.ResponseWriter, r *http.Request) {
		UploadMemoryHandler(w, r, d.Memories)
	})

	r.Route("/api", func(r chi.Router) {
		r.With(limit).Post("/login", func(w http.ResponseWriter, r *http.Request) {
			UserLoginHandler(w, r, d.Auth)
		})
		r.With(d.RequireAuth).Get("/memories", func(w http.ResponseWriter, r *http.Request) {
			GetMemoriesHandler(w, r, d.Memories)
		})
	})

	if d.UploadsDir != "" {
		r.Handle("/uploads/*", uploadsHandler(d.UploadsDir))
	}

	return r
}

// uploadsHandler serves stored images without directory listings.
func uploadsHandler(dir string) http.Handler {
	files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		files.ServeHTTP(w, r)
	})
}

// RejectUnknownOrigins answers 403 to requests whose Origin header is not in
// allowed. Requests without an Origin pass through.
func RejectUnknownOrigins(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || wildcard {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := set[strings.ToLower(origin)]; !ok {
				logging.FromContext(r.Context()).Info("rejected origin", "origin", origin)
				writeMessage(w, http.StatusForbidden, "Origin not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
