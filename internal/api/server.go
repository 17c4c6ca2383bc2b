package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"stagedoor/internal/cache"
	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/handlers"
	"stagedoor/internal/messaging"
	"stagedoor/internal/middleware"
	"stagedoor/internal/models"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
	"stagedoor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

// Server wires the HTTP layer to the backing services.
type Server struct {
	router    *gin.Engine
	config    *config.Config
	db        *database.DB
	nats      *messaging.NATSClient
	showCache *cache.ShowCache
	esClient  *search.ElasticsearchClient
	services  *service.Services
	repos     *repository.Repositories
}

// NewServer connects to all configured backends, runs migrations and builds
// the router. Cache, search and messaging are optional and stay nil when
// disabled in the configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	var showCache *cache.ShowCache
	if cfg.Cache.Enabled {
		showCache, err = cache.NewShowCache(cfg.Cache)
		if err != nil {
			slog.Warn("Cache unavailable, continuing without it", "error", err)
			showCache = nil
		}
	}

	var esClient *search.ElasticsearchClient
	if cfg.Elasticsearch.Enabled {
		esClient, err = search.NewElasticsearchClient(cfg.Elasticsearch)
		if err != nil {
			slog.Warn("Elasticsearch unavailable, falling back to database search", "error", err)
			esClient = nil
		}
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, showCache, esClient)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:    router,
		config:    cfg,
		db:        db,
		nats:      natsClient,
		showCache: showCache,
		esClient:  esClient,
		services:  services,
		repos:     repos,
	}

	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services)

	api := s.router.Group("/api/v1")
	{
		shows := api.Group("/shows")
		{
			shows.POST("", h.CreateShow)
			shows.GET("", h.ListShows)
			shows.GET("/search", h.SearchShows)
			shows.GET("/:id", h.GetShow)
			shows.POST("/:id/show-times", h.CreateShowTime)
			shows.GET("/:id/show-times", h.ListShowTimes)
			shows.GET("/:id/booking-stats", h.ShowBookingStats)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.GET("/search", h.SearchBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.PUT("/:id/confirm", h.ConfirmBooking)
			bookings.PUT("/:id/cancel", h.CancelBooking)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthPayload is the health envelope plus the database pool counters.
type healthPayload struct {
	models.HealthResponse
	Pool database.PoolStats `json:"pool"`
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	resp := healthPayload{
		HealthResponse: models.HealthResponse{
			Status:   "ok",
			Database: "up",
			Service:  "stagedoor-api",
			Version:  version,
		},
		Pool: s.db.GetPoolStats(),
	}

	status := http.StatusOK
	if err := s.db.HealthCheck(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}

	if s.showCache != nil {
		resp.Cache = "up"
		if err := s.showCache.HealthCheck(ctx); err != nil {
			resp.Cache = "down"
		}
	}

	if s.esClient != nil {
		resp.Search = "up"
		if err := s.esClient.HealthCheck(ctx); err != nil {
			resp.Search = "down"
		}
	}

	c.JSON(status, resp)
}

// Run starts the HTTP server on the configured port.
func (s *Server) Run() error {
	return s.router.Run(":" + s.config.Port)
}

// GetRouter exposes the router for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes all backend connections.
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.showCache != nil {
		if err := s.showCache.Close(); err != nil {
			slog.Error("Error closing cache connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
