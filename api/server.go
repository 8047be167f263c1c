package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-projects-backend/config"
	"github.com/rpupo63/portfolio-projects-backend/database"
	"github.com/rpupo63/portfolio-projects-backend/errs"
	"github.com/rpupo63/portfolio-projects-backend/payload"
	"github.com/rpupo63/portfolio-projects-backend/services"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(database database.Database, opts ...Option) (Server, error) {
	rt := buildRouter(opts...)
	if rt.config == nil {
		rt.config = config.New()
	}
	c := rt.config

	// Ensure correct port is set
	port := config.GetString(c, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port) // Bind to 0.0.0.0 for external access

	// Capture startup time
	rt.startupTime = time.Now()

	router := newRouter(database, rt)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  config.GetSeconds(c, "READ_TIMEOUT_SECONDS", 30),
		WriteTimeout: config.GetSeconds(c, "WRITE_TIMEOUT_SECONDS", 30),
		IdleTimeout:  config.GetSeconds(c, "IDLE_TIMEOUT_SECONDS", 120),
	}

	return Server{server, rt.startupTime}, nil
}

type router struct {
	config      map[string]string
	startupTime time.Time
	uploader    services.ImageUploader
	cleaner     *services.ImageCleaner
	credentials services.CredentialChecker
	assetsDir   string
	bodyLimit   int64
	maxUpload   int64
}

// Option configures the router built by NewServer.
type Option func(*router)

func WithConfig(c map[string]string) Option {
	return func(r *router) {
		r.config = c
	}
}

// WithImageUploader sets where uploads go. Without it uploads are written to
// UPLOAD_DIR and served under /assets/.
func WithImageUploader(uploader services.ImageUploader) Option {
	return func(r *router) {
		r.uploader = uploader
	}
}

func WithImageCleaner(cleaner *services.ImageCleaner) Option {
	return func(r *router) {
		r.cleaner = cleaner
	}
}

func WithCredentialChecker(checker services.CredentialChecker) Option {
	return func(r *router) {
		r.credentials = checker
	}
}

func buildRouter(opts ...Option) router {
	var router router
	for _, opt := range opts {
		opt(&router)
	}
	return router
}

func newRouter(database database.Database, router router) *chi.Mux {
	if router.uploader == nil {
		local := services.NewLocalImageStore(config.GetString(router.config, "UPLOAD_DIR", "assets"))
		router.uploader = local
		router.assetsDir = local.Dir()
	}
	if router.credentials == nil {
		router.credentials = services.NewStaticSecret(config.GetString(router.config, "ADMIN_PASSWORD", ""))
	}
	if router.bodyLimit <= 0 {
		router.bodyLimit = payload.DefaultLimit
	}
	if router.maxUpload <= 0 {
		router.maxUpload = int64(config.GetInt(router.config, "MAX_UPLOAD_MB", 10)) << 20
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(middleware.RequestID)
	chiRouter.Use(middleware.RealIP)
	chiRouter.Use(ColoredHTTPLoggingMiddleware)
	chiRouter.Use(RecoverPanics)

	// Apply CORS middleware
	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS", []string{"*"})
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins: acceptedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	responder := NewResponder(log.With().Str("handlerName", "router").Logger())
	chiRouter.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responder.WriteError(w, errs.NewApiErr(http.StatusNotFound, "Not Found"))
	})
	chiRouter.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responder.WriteError(w, errs.NewApiErr(http.StatusMethodNotAllowed, "Method Not Allowed"))
	})

	handlers := initializeHandlers(database, router)
	setupRoutes(chiRouter, handlers, database.Schema(), router.assetsDir)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Dur("uptime", time.Since(s.startupTime)).Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
