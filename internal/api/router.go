package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/shop-admin/internal/api/docs"
	"github.com/99minutos/shop-admin/internal/api/handler"
	"github.com/99minutos/shop-admin/internal/api/middleware"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
)

const metricsSubsystem = "shopadmin_stub"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Auth      ports.AuthService
	Catalog   ports.CatalogService
	Orders    ports.OrderService
	JWTSecret string
	Cookie    handler.CookieConfig
	// Checks feed the readiness probe, keyed by dependency name.
	Checks map[string]handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// Each router owns its request metrics so several can live in one process.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: reg,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Cookie)
	catalogHandler := handler.NewCatalogHandler(deps.Catalog)
	orderHandler := handler.NewOrderHandler(deps.Orders)
	healthHandler := handler.NewHealthHandler(deps.Checks)

	authed := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	staff := middleware.RBAC(domain.RoleAdmin, domain.RoleOperator)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh-token", authHandler.RefreshToken)
	e.POST("/auth/logout", authHandler.Logout, authed)
	e.GET("/users/current", authHandler.CurrentUser, authed)

	// --- Catalog routes ---
	e.GET("/products", catalogHandler.ListProducts)
	e.POST("/products", catalogHandler.CreateProduct, authed, staff)
	e.PUT("/products/:id", catalogHandler.UpdateProduct, authed, staff)
	e.DELETE("/products/:id", catalogHandler.DeleteProduct, authed, adminOnly)

	e.GET("/category", catalogHandler.ListCategories)
	e.POST("/category/create", catalogHandler.CreateCategory, authed, adminOnly)
	e.PUT("/category/:id", catalogHandler.UpdateCategory, authed, adminOnly)
	e.DELETE("/category/:id", catalogHandler.DeleteCategory, authed, adminOnly)

	// --- Order routes ---
	op := e.Group("/operator", authed)
	op.GET("/orders", orderHandler.ListOrders, adminOnly)
	op.POST("/orders/assign", orderHandler.Assign, adminOnly)
	op.GET("/orders/:id", orderHandler.GetOrder, staff)
	op.PUT("/orders/:id/status", orderHandler.UpdateStatus, staff)
	op.GET("/my-orders", orderHandler.ListMyOrders, staff)
	op.GET("/operators", orderHandler.ListOperators, adminOnly)
	op.GET("/admin/stats", orderHandler.Stats, adminOnly)

	// --- Health probes and tooling (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
