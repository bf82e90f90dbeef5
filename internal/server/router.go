package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mjansen/recipebox/internal/auth"
	"github.com/mjansen/recipebox/internal/config"
	"github.com/mjansen/recipebox/internal/handlers"
	"github.com/mjansen/recipebox/internal/httpx"
	"github.com/mjansen/recipebox/internal/media"
	"github.com/mjansen/recipebox/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. Everything the handlers need is built here from the injected
// config; nothing reads the environment past this point.
func New(db *gorm.DB, cfg config.Config, store media.Store) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	limiter := auth.NewRateLimiter(cfg.LoginRateWindow, cfg.LoginRateLimit)

	userHandler := handlers.NewUserHandler(services.NewUserService(db), tokens, limiter)
	recipeHandler := handlers.NewRecipeHandler(services.NewRecipeService(db, store))
	tagHandler := handlers.NewTagHandler(services.NewTagService(db))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(auth.Middleware(tokens, db))

	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Create)
			r.Get("/", userHandler.List)
			r.Post("/login-user", userHandler.Login)
			r.Post("/token/refresh", userHandler.Refresh)
			r.Post("/token/verify", userHandler.Verify)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.Get)
				r.Patch("/", userHandler.Patch)
				r.Delete("/", userHandler.Delete)
			})
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/", recipeHandler.List)
			r.Post("/", recipeHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recipeHandler.Get)
				r.Put("/", recipeHandler.Put)
				r.Patch("/", recipeHandler.Patch)
				r.Delete("/", recipeHandler.Delete)
				r.Post("/upload-image", recipeHandler.UploadImage)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/", tagHandler.List)
			r.Post("/", tagHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", tagHandler.Get)
				r.Put("/", tagHandler.Update)
				r.Patch("/", tagHandler.Update)
				r.Delete("/", tagHandler.Delete)
			})
		})
	})

	// With the filesystem backend, uploaded images are served straight
	// from the media directory. The S3 backend serves nothing here.
	if fsStore, ok := store.(*media.FSStore); ok {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(fsStore.Dir())))
		r.Get("/media/*", fileServer.ServeHTTP)
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
