package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"productpager/internal/api/handlers"
	"productpager/internal/api/middleware"
	"productpager/internal/config"
	"productpager/internal/database"
	"productpager/internal/events"
	"productpager/internal/logger"
	"productpager/internal/services/shopify"
)

type SessionRepository interface {
	middleware.SessionFinder
	handlers.SessionSaver
}

// Dependencies are the collaborators the routes are built on.
type Dependencies struct {
	Sessions    SessionRepository
	BulkActions handlers.BulkActionRepository
	Publisher   events.Publisher
	Executors   handlers.ExecutorSource
	OAuth       handlers.OAuthProvider
	Auth        middleware.ShopAuthenticator
	Health      handlers.Pinger
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

// New wires the Shopify-backed dependencies and builds the server.
func New(cfg *config.Config, logger *logger.Logger, db *database.Database, publisher events.Publisher) *Server {
	pool := shopify.NewClientPool(logger,
		shopify.WithAPIVersion(cfg.ShopifyAPIVersion),
		shopify.WithTimeout(cfg.UpstreamTimeout),
		shopify.WithRetries(cfg.UpstreamMaxRetries, 250*time.Millisecond),
	)

	oauth := shopify.NewOAuthService(cfg, logger)

	return NewWithDependencies(cfg, logger, Dependencies{
		Sessions:    database.NewSessionStore(db),
		BulkActions: database.NewBulkActionStore(db),
		Publisher:   publisher,
		Executors:   handlers.NewShopifyExecutors(pool, cfg),
		OAuth:       oauth,
		Auth:        oauth,
		Health:      db,
	})
}

func NewWithDependencies(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.Metrics())

	healthHandler := handlers.NewHealthHandler(deps.Health)
	shopifyHandler := handlers.NewShopifyHandler(deps.OAuth, deps.Sessions, logger, cfg.IsProduction())
	productHandler := handlers.NewProductHandler(deps.Executors, cfg.UpstreamTimeout, logger)
	bulkActionHandler := handlers.NewBulkActionHandler(deps.BulkActions, deps.Publisher, logger)

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/auth")
	{
		auth.GET("/install", shopifyHandler.Install)
		auth.GET("/callback", shopifyHandler.Callback)
	}

	requireSession := middleware.RequireSession(deps.Sessions, deps.Auth, logger)

	app := router.Group("/app", requireSession)
	{
		app.GET("/productlist", productHandler.List)
		app.GET("/productgallery", productHandler.Gallery)
	}

	shopifyAPI := router.Group("/api/shopify", requireSession)
	{
		shopifyAPI.GET("/graphql", productHandler.NextPage)
		shopifyAPI.POST("/bulk-actions", bulkActionHandler.Create)
		shopifyAPI.GET("/bulk-actions/:id", bulkActionHandler.Get)
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on %s", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
