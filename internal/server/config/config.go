// Package config handles configuration for the server component: defaults,
// an optional JSON file, the environment (with .env support) and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/cryptox"
)

// DevSecretKey is the development signing secret. Startup refuses it when
// APP_ENV is "production".
const DevSecretKey = "dev-secret-change-me"

// Config holds runtime settings for the saltgate server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses. An empty GRPCAddr disables gRPC.
//   - DatabaseDSN: memory://, sqlite://path or postgres:// DSN.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - SaltPepper: server constant mixed into salt derivation. Derived from
//     SecretKey when empty.
//   - LoginRateLimit / LoginRateBurst: login attempts per minute and burst
//     per client address and username. A zero limit disables limiting.
//     The Redis limiter uses a fixed window capped at limit + burst.
//   - RedisAddr / RedisPassword / RedisDB: shared rate limiter, optional.
//   - UsernameCacheTTL: lifetime of known-username cache entries; zero
//     disables the cache.
type Config struct {
	AppEnv           string
	HTTPAddr         string
	GRPCAddr         string
	DatabaseDSN      string
	SecretKey        string
	SaltPepper       string
	LogLevel         string
	LogFormat        string
	LoginRateLimit   int
	LoginRateBurst   int
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	UsernameCacheTTL time.Duration
	ShutdownTimeout  time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret is insecure for production and must be overridden.
func (c *Config) LoadDefaults() {
	c.AppEnv = "development"
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ""
	c.DatabaseDSN = "memory://"
	c.SecretKey = DevSecretKey
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.LoginRateLimit = 10
	c.LoginRateBurst = 5
	c.UsernameCacheTTL = 10 * time.Minute
	c.ShutdownTimeout = 10 * time.Second
}

// Load builds a Config from defaults, then the JSON file named by -c/-config
// in args, then the environment, then the flags in args.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads .env into the process environment and then calls Load
// with os.Args.
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return Load(os.Args[1:], os.LookupEnv)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.AppEnv == "production" && c.SecretKey == DevSecretKey {
		errs = append(errs, errors.New("development secret key used in production"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if c.LoginRateLimit < 0 {
		errs = append(errs, fmt.Errorf("login rate limit must not be negative, got %d", c.LoginRateLimit))
	}
	if c.LoginRateLimit > 0 && c.LoginRateBurst < 1 {
		errs = append(errs, fmt.Errorf("login rate burst must be at least 1, got %d", c.LoginRateBurst))
	}
	if c.UsernameCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("username cache ttl must not be negative, got %s", c.UsernameCacheTTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Pepper returns the salt pepper, deriving it from SecretKey when none is
// configured.
func (c *Config) Pepper() ([]byte, error) {
	if c.SaltPepper != "" {
		return []byte(c.SaltPepper), nil
	}
	return cryptox.DerivePepper([]byte(c.SecretKey))
}
