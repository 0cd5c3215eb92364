package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/video-dubber/pkg/config"
)

const healthTimeout = 3 * time.Second

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds all handlers
type Router struct {
	cfg        *config.Config
	dubHandler *Dub
	storage    Pinger
}

// NewRouter creates a new router with all handlers. storage may be nil.
func NewRouter(cfg *config.Config, dubHandler *Dub, storage Pinger) *Router {
	return &Router{
		cfg:        cfg,
		dubHandler: dubHandler,
		storage:    storage,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupPipelineRoutes(v1)
	rt.setupDubRoutes(v1)
}

// setupPipelineRoutes exposes each pipeline stage on its own
func (rt *Router) setupPipelineRoutes(g *echo.Group) {
	if rt.dubHandler == nil {
		g.POST("/transcribe", rt.notImplemented)
		g.POST("/translate", rt.notImplemented)
		g.POST("/synthesize", rt.notImplemented)
		return
	}
	g.POST("/transcribe", rt.dubHandler.Transcribe)
	g.POST("/translate", rt.dubHandler.Translate)
	g.POST("/synthesize", rt.dubHandler.Synthesize)
}

// setupDubRoutes configures the asynchronous dub job routes
func (rt *Router) setupDubRoutes(g *echo.Group) {
	dubs := g.Group("/dubs")

	if rt.dubHandler == nil {
		dubs.POST("", rt.notImplemented)
		dubs.GET("", rt.notImplemented)
		dubs.GET("/:id", rt.notImplemented)
		return
	}
	dubs.POST("", rt.dubHandler.CreateDub)
	dubs.GET("", rt.dubHandler.ListDubs)
	dubs.GET("/:id", rt.dubHandler.GetDub)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status; 503 when artifact storage is unreachable
func (rt *Router) healthCheck(c echo.Context) error {
	env := "production"
	if rt.cfg != nil && rt.cfg.Server.Environment != "" {
		env = rt.cfg.Server.Environment
	}
	body := map[string]interface{}{
		"status":      "ok",
		"environment": env,
	}
	if rt.storage == nil {
		return c.JSON(http.StatusOK, body)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()
	if err := rt.storage.Ping(ctx); err != nil {
		body["status"] = "degraded"
		body["storage"] = err.Error()
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	body["storage"] = "ok"
	return c.JSON(http.StatusOK, body)
}
