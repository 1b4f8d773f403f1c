// Command stubserver runs a development implementation of the shop API for
// the console to talk to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/api"
	"github.com/99minutos/shop-admin/internal/api/handler"
	"github.com/99minutos/shop-admin/internal/core/domain"
	"github.com/99minutos/shop-admin/internal/core/ports"
	"github.com/99minutos/shop-admin/internal/core/service"
	"github.com/99minutos/shop-admin/internal/infrastructure/config"
	"github.com/99minutos/shop-admin/internal/infrastructure/db/memory"
	mongodb "github.com/99minutos/shop-admin/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/shop-admin/internal/infrastructure/db/redis"
	"github.com/99minutos/shop-admin/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadServer(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Service: "shop-admin-stub"})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("stub server stopped")
		os.Exit(1)
	}
}

// repositories groups the storage a backend provides.
type repositories struct {
	accounts   ports.AccountRepository
	categories ports.CategoryRepository
	products   ports.ProductRepository
	orders     ports.OrderRepository
	sessions   ports.RefreshSessionStore
}

func run(ctx context.Context, cfg *config.ServerConfig, log zerolog.Logger) error {
	checks := map[string]handler.Check{}
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var repos repositories
	switch cfg.Store {
	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		checks["mongodb"] = mongodb.Ping(db)
		repos = repositories{
			accounts:   mongodb.NewAccountRepository(db),
			categories: mongodb.NewCategoryRepository(db),
			products:   mongodb.NewProductRepository(db),
			orders:     mongodb.NewOrderRepository(db),
		}
	default:
		store := memory.NewStore()
		repos = repositories{
			accounts:   store.Accounts(),
			categories: store.Categories(),
			products:   store.Products(),
			orders:     store.Orders(),
			sessions:   store.Sessions(cfg.RefreshTokenTTL),
		}
	}

	switch cfg.SessionStore {
	case config.StoreRedis:
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = client.Close() })
		checks["redis"] = redisdb.Ping(client)
		repos.sessions = redisdb.NewRefreshSessionStore(client, cfg.RefreshTokenTTL)
	default:
		if repos.sessions == nil {
			repos.sessions = memory.NewStore().Sessions(cfg.RefreshTokenTTL)
		}
	}

	authService := service.NewAuthService(repos.accounts, repos.sessions, cfg.JWTSecret, cfg.AccessTokenTTL, logger.Component("auth"))
	catalogService := service.NewCatalogService(repos.products, repos.categories, logger.Component("catalog"))
	orderService := service.NewOrderService(repos.orders, repos.accounts, repos.products, logger.Component("orders"))

	seeder := service.NewSeeder(authService, repos.accounts, catalogService, repos.orders, logger.Component("seed"))
	if err := seeder.EnsureAccount(ctx, "admin", cfg.SeedAdminEmail, cfg.SeedAdminPass, domain.RoleAdmin); err != nil {
		return err
	}
	if cfg.SeedDemoData {
		switch err := seeder.Demo(ctx); {
		case errors.Is(err, domain.ErrConflict):
			log.Info().Msg("demo data already present")
		case err != nil:
			return err
		}
	}

	e := api.NewRouter(api.Deps{
		Auth:      authService,
		Catalog:   catalogService,
		Orders:    orderService,
		JWTSecret: cfg.JWTSecret,
		Cookie:    handler.CookieConfig{Secure: cfg.CookieSecure, TTL: cfg.RefreshTokenTTL},
		Checks:    checks,
	}, logger.Component("http"))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Str("sessions", cfg.SessionStore).Msg("stub server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
