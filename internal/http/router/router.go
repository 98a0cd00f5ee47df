package router

import (
	"context"
	"net/http"
	"time"

	apphttp "carsearch_frontend/internal/http"
	"carsearch_frontend/platform/config"
	"carsearch_frontend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 3 * time.Second

func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	if mw := corsMiddleware(app.Config); mw != nil {
		v1.Use(mw)
	}

	rc := &apphttp.RouterContext{
		Engine: engine,
		Pages:  engine.Group(""),
		V1:     v1,
		Config: app.Config,
	}

	for _, mod := range app.Modules {
		app.Logger.Debug("registering module routes", "module", mod.Name())
		mod.RegisterRoutes(rc)
	}

	engine.NoRoute(func(c *gin.Context) {
		httpkit.Error(c, http.StatusNotFound, "not found", nil)
	})

	return engine
}

// corsMiddleware returns nil when no origin is configured.
func corsMiddleware(cfg config.HTTPConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", httpkit.RequestIDHeader},
		ExposeHeaders: []string{httpkit.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	switch {
	case cfg.GetCORSAllowAll():
		corsCfg.AllowAllOrigins = true
	case len(cfg.GetCORSOrigins()) > 0:
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
		corsCfg.AllowCredentials = true
	default:
		return nil
	}
	return cors.New(corsCfg)
}
