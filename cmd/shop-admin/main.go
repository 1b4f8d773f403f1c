// Command shop-admin is the terminal console for the shop API. Results are
// printed as JSON on stdout; logs go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/99minutos/shop-admin/internal/client/adminapi"
	"github.com/99minutos/shop-admin/internal/client/session"
	"github.com/99minutos/shop-admin/internal/client/transport"
	"github.com/99minutos/shop-admin/internal/core/ports"
	"github.com/99minutos/shop-admin/internal/infrastructure/config"
	"github.com/99minutos/shop-admin/internal/infrastructure/db/redis"
	"github.com/99minutos/shop-admin/internal/infrastructure/tokenstore"
	"github.com/99minutos/shop-admin/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		usage(stderr)
		return 2
	}

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Output:  stderr,
		Service: "shop-admin",
	})
	log := logger.Component("cli")

	app, closeFn, err := newApp(ctx, cfg, stdout)
	if err != nil {
		log.Error().Err(err).Msg("failed to start console")
		fmt.Fprintln(stderr, failureNotice("startup", err))
		return 1
	}
	defer closeFn()

	op, err := app.dispatch(ctx, args)
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(stderr, ue.Error())
			usage(stderr)
			return 2
		}
		log.Debug().Err(err).Str("op", op).Msg("command failed")
		fmt.Fprintln(stderr, failureNotice(op, err))
		return 1
	}
	return 0
}

// app holds the wired client stack for one invocation.
type app struct {
	session *session.Manager
	client  *adminapi.Client
	out     io.Writer
}

func newApp(ctx context.Context, cfg *config.ClientConfig, out io.Writer) (*app, func(), error) {
	store, closeStore, err := newTokenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	jarPath := cfg.CookieFile
	if cfg.TokenStore == config.StoreMemory {
		jarPath = ""
	}
	jar, err := transport.NewJar(jarPath)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	httpClient := transport.NewHTTPClient(cfg.HTTPTimeout, jar)

	mgr := session.NewManager(cfg.APIBaseURL, httpClient, store, logger.Component("session"))
	facade := transport.NewFacade(httpClient, mgr, logger.Component("transport"))
	client := adminapi.NewClient(facade, mgr, cfg.APIBaseURL, logger.Component("adminapi"))

	return &app{session: mgr, client: client, out: out}, closeStore, nil
}

func newTokenStore(ctx context.Context, cfg *config.ClientConfig) (ports.TokenStore, func(), error) {
	switch cfg.TokenStore {
	case config.StoreRedis:
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, nil, err
		}
		return redis.NewTokenStore(client, redis.DefaultTokenKey), func() { _ = client.Close() }, nil
	case config.StoreMemory:
		return tokenstore.NewMemoryStore(""), func() {}, nil
	default:
		return tokenstore.NewFileStore(cfg.TokenFile), func() {}, nil
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: shop-admin <command> [args]

session:
  login <email> <password>
  register <username> <email> <password> [-role admin|operator|user]
  logout
  whoami

admin panel:
  admin stats
  admin products [-page N -limit N]
  admin product-create -title T -price P -category ID [-old-price P -stock N -rating R -reviews N -colours a,b -sizes a,b -in-stock -free-delivery -return-delivery -image FILE...]
  admin product-update <id> (same flags as product-create)
  admin product-delete <id>
  admin categories [-page N -limit N]
  admin category-create <name>
  admin category-update <id> <name>
  admin category-delete <id>
  admin orders [-page N -limit N]
  admin order <id>
  admin order-status <id> <pending|confirmed|delivered>
  admin order-assign <order-id> <operator-id>
  admin operators

operator panel:
  operator orders [-page N -limit N]
  operator order <id>
  operator order-status <id> <pending|confirmed|delivered>
  operator products [-page N -limit N]
  operator product-create (same flags as admin product-create)
  operator product-update <id> (same flags as admin product-create)
`)
}
