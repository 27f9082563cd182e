package router

import (
	"context"
	"net/http"

	convapi "chat-sentiment/backend/conversation/api"
	"chat-sentiment/backend/pkg/config"
	"chat-sentiment/backend/pkg/di"
	"chat-sentiment/backend/pkg/errors"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/pkg/middleware"
	userapi "chat-sentiment/backend/user/api"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config

	api     *gin.RouterGroup
	limiter *middleware.RateLimiter
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// The logger middleware goes first so every later handler sees the request logger.
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(middleware.CORS(cfg.Security.AllowedOrigins))

	limiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit: rate.Limit(cfg.Security.RateLimit),
		Burst: cfg.Security.RateLimitBurst,
	})

	api := engine.Group("/")
	api.Use(limiter.Middleware())
	api.Use(middleware.BodyLimit(cfg.Security.MaxBodySize))

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		api:       api,
		limiter:   limiter,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	if path := r.Config.Observability.OpenAPISchemaPath; path != "" {
		r.AddOpenAPIValidation(path)
	}

	convapi.RegisterMessageRoutes(r.api, convapi.NewMessageHandler(r.Container.MessageService))
	userapi.RegisterUserRoutes(r.api, userapi.NewUserHandler(r.Container.UserService))

	r.setupHealthRoutes()

	r.Engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(errors.NewNotFoundError("no route for " + c.Request.Method + " " + c.Request.URL.Path))
	})
}

// MountMetrics serves h at /metrics outside the rate limiter.
func (r *Router) MountMetrics(h http.Handler) {
	r.Engine.GET("/metrics", gin.WrapH(h))
}

// Start runs the background sweeps the router's middleware needs until ctx is done.
func (r *Router) Start(ctx context.Context) {
	r.limiter.Start(ctx)
}
