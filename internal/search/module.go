// Package search wires the vehicle search bounded context: backend client,
// service, per-session controllers and the HTTP handlers.
package search

import (
	"context"

	apphttp "carsearch_frontend/internal/http"
	"carsearch_frontend/internal/search/client"
	"carsearch_frontend/internal/search/controller"
	"carsearch_frontend/internal/search/handler"
	"carsearch_frontend/internal/search/service"
	"carsearch_frontend/platform/config"
	"carsearch_frontend/platform/httpkit"
	"carsearch_frontend/platform/logger"
	"carsearch_frontend/platform/validator"
)

// ModuleConfig combines the config interfaces the search module reads.
type ModuleConfig interface {
	config.SearchBackendConfig
	config.SessionConfig
	config.RateLimitConfig
}

type Module struct {
	client  *client.Client
	store   *controller.Store
	handler *handler.Handler
	limiter *httpkit.IPRateLimiter
}

func NewModule(cfg ModuleConfig, log *logger.Logger, val *validator.Validator) *Module {
	return newModule(cfg, client.New(cfg, log), log, val)
}

func newModule(cfg ModuleConfig, backend *client.Client, log *logger.Logger, val *validator.Validator) *Module {
	svc := service.New(backend, log)
	store := controller.NewStore(svc, cfg.GetSessionTTL())
	h := handler.New(store, val, cfg, log)
	limiter := httpkit.NewPerMinuteLimiter(cfg.GetSearchRateLimitPerMinute(), cfg.GetSearchRateLimitBurst(), log)

	return &Module{client: backend, store: store, handler: h, limiter: limiter}
}

func (m *Module) Name() string {
	return "search"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPages(ctx.Pages, m.limiter.RateLimitWith(handler.RedirectWhenLimited))
	m.handler.RegisterAPI(ctx.V1.Group("/search"), m.limiter.RateLimit())
}

// Ping reports whether the search backend is reachable.
func (m *Module) Ping(ctx context.Context) error {
	return m.client.Ping(ctx)
}

// Run evicts idle sessions until ctx is done.
func (m *Module) Run(ctx context.Context) {
	m.store.Run(ctx)
}

var _ apphttp.Module = (*Module)(nil)
var _ apphttp.HealthChecker = (*Module)(nil)
