package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv copies variables from path into the process environment.
// Variables already set win; a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays environment variables onto config:
//
//	APP_ENV, HTTP_ADDR, GRPC_ADDR, DATABASE_URL, SECRET_KEY, SALT_PEPPER,
//	LOG_LEVEL, LOG_FORMAT, LOGIN_RATE_LIMIT, LOGIN_RATE_BURST,
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, USERNAME_CACHE_TTL,
//	SHUTDOWN_TIMEOUT
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("APP_ENV", &config.AppEnv)
	str("HTTP_ADDR", &config.HTTPAddr)
	str("GRPC_ADDR", &config.GRPCAddr)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("SALT_PEPPER", &config.SaltPepper)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)
	num("LOGIN_RATE_LIMIT", &config.LoginRateLimit)
	num("LOGIN_RATE_BURST", &config.LoginRateBurst)
	str("REDIS_ADDR", &config.RedisAddr)
	str("REDIS_PASSWORD", &config.RedisPassword)
	num("REDIS_DB", &config.RedisDB)
	dur("USERNAME_CACHE_TTL", &config.UsernameCacheTTL)
	dur("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
