package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/api/handlers"
	"github.com/OldStager01/botnet-detectors-comparer/api/middleware"
	"github.com/OldStager01/botnet-detectors-comparer/api/websocket"
	"github.com/OldStager01/botnet-detectors-comparer/docs"
	"github.com/OldStager01/botnet-detectors-comparer/internal/auth"
	"github.com/OldStager01/botnet-detectors-comparer/internal/metrics"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/database"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const maxRequestBody = 1 << 20

// RunSource is the live side of the orchestrator the server reads from.
type RunSource interface {
	handlers.ActiveRuns
	SubscribeAllEvents() <-chan *models.Event
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      *config.Config
	store       database.ResultStore
	runs        RunSource
	metrics     *metrics.Metrics
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
}

// NewServer wires the results API over store. runs and m may be nil.
func NewServer(cfg *config.Config, store database.ResultStore, runs RunSource, m *metrics.Metrics) *Server {
	apiCfg := cfg.API
	if apiCfg.JWTSecret == "" || apiCfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	expiry := apiCfg.JWTDuration
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	s := &Server{
		router:      gin.New(),
		config:      cfg,
		store:       store,
		runs:        runs,
		metrics:     m,
		authService: auth.NewService(apiCfg.JWTSecret, expiry).WithIssuer(apiCfg.JWTIssuer),
		wsHub:       websocket.NewHub(&cfg.WebSocket),
	}

	s.setupMiddleware()
	s.setupRoutes()

	go s.wsHub.Run()

	if runs != nil {
		s.wsBridge = websocket.NewEventBridge(s.wsHub, runs.SubscribeAllEvents())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.CORSFromConfig(s.config.API.CORS)))
	s.router.Use(middleware.RequestSizeLimit(maxRequestBody))
	s.router.Use(middleware.RateLimit(middleware.NewRateLimiter(s.config.API.RateLimit, time.Minute)))
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.store)
	authHandler := handlers.NewAuthHandler(s.store, s.authService, s.config.App.Mode != "development")
	runHandler := handlers.NewRunHandler(s.store, s.runs, &s.config.API)
	metricsHandler := handlers.NewMetricsHandler(s.store, &s.config.API)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	docs.SwaggerInfo.Title = s.config.App.Name + " API"
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// series rebuilds every window of a run
	heavy := middleware.NewEndpointRateLimiter()
	heavy.AddEndpoint("/runs/:id/series", 10, time.Minute)

	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService), heavy.Middleware())
	{
		protected.GET("/runs", runHandler.List)
		protected.GET("/runs/active", runHandler.Active)
		protected.GET("/runs/:id", runHandler.Get)
		protected.GET("/runs/:id/windows", runHandler.Windows)
		protected.GET("/runs/:id/results", runHandler.Results)
		protected.GET("/runs/:id/events", runHandler.Events)
		protected.GET("/runs/:id/series", metricsHandler.Series)
	}
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.API.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
		IdleTimeout:  s.config.API.IdleTimeout,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// AuthService exposes the token service, mainly for tests.
func (s *Server) AuthService() *auth.Service {
	return s.authService
}
