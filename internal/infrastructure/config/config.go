package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Token store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// ClientConfig configures the shop-admin console.
type ClientConfig struct {
	APIBaseURL  string        `env:"API_BASE_URL,  default=http://localhost:8080"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT,  default=30s"`
	TokenStore  string        `env:"TOKEN_STORE,   default=file"`
	TokenFile   string        `env:"TOKEN_FILE,    default=.shop-admin/session.json"`
	CookieFile  string        `env:"COOKIE_FILE,   default=.shop-admin/cookies.json"`
	LogLevel    string        `env:"LOG_LEVEL,     default=warn"`
	LogPretty   bool          `env:"LOG_PRETTY,    default=true"`

	Redis RedisConfig
}

// ServerConfig configures the stub API server.
type ServerConfig struct {
	Port            string        `env:"PORT,              default=8080"`
	Env             string        `env:"ENV,               default=development"`
	JWTSecret       string        `env:"JWT_SECRET,        default=dev-secret"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
	Store           string        `env:"STORE,             default=memory"`
	SessionStore    string        `env:"SESSION_STORE,     default=memory"`
	LogLevel        string        `env:"LOG_LEVEL,         default=info"`
	SeedAdminEmail  string        `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPass   string        `env:"SEED_ADMIN_PASSWORD"`
	SeedDemoData    bool          `env:"SEED_DEMO_DATA,    default=false"`
	CookieSecure    bool          `env:"COOKIE_SECURE,     default=false"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=shop_admin"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// LoadClient reads the console configuration from the environment.
func LoadClient(ctx context.Context) (*ClientConfig, error) {
	return LoadClientFrom(ctx, envconfig.OsLookuper())
}

// LoadClientFrom reads the console configuration through l.
func LoadClientFrom(ctx context.Context, l envconfig.Lookuper) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch cfg.TokenStore {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("config: unknown TOKEN_STORE %q", cfg.TokenStore)
	}
	return &cfg, nil
}

// LoadServer reads the stub server configuration from the environment.
func LoadServer(ctx context.Context) (*ServerConfig, error) {
	return LoadServerFrom(ctx, envconfig.OsLookuper())
}

// LoadServerFrom reads the stub server configuration through l.
func LoadServerFrom(ctx context.Context, l envconfig.Lookuper) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch cfg.Store {
	case StoreMemory, StoreMongo:
	default:
		return nil, fmt.Errorf("config: unknown STORE %q", cfg.Store)
	}
	switch cfg.SessionStore {
	case StoreMemory, StoreRedis:
	default:
		return nil, fmt.Errorf("config: unknown SESSION_STORE %q", cfg.SessionStore)
	}
	return &cfg, nil
}
