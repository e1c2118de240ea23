package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/saltgate/internal/flagx"
	"github.com/dmitrijs2005/saltgate/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Intervals use
// timex.Duration so they may be written as "10m" or as nanoseconds.
// Pointer fields distinguish "absent" from an explicit zero.
type JsonConfig struct {
	AppEnv           string          `json:"app_env"`
	HTTPAddr         string          `json:"http_addr"`
	GRPCAddr         *string         `json:"grpc_addr"`
	DatabaseDSN      string          `json:"database_dsn"`
	SecretKey        string          `json:"secret_key"`
	SaltPepper       string          `json:"salt_pepper"`
	LogLevel         string          `json:"log_level"`
	LogFormat        string          `json:"log_format"`
	LoginRateLimit   *int            `json:"login_rate_limit"`
	LoginRateBurst   *int            `json:"login_rate_burst"`
	RedisAddr        string          `json:"redis_addr"`
	RedisPassword    string          `json:"redis_password"`
	RedisDB          *int            `json:"redis_db"`
	UsernameCacheTTL *timex.Duration `json:"username_cache_ttl"`
	ShutdownTimeout  *timex.Duration `json:"shutdown_timeout"`
}

// parseJSON overlays the file named by -c/-config onto config. Without the
// flag nothing is loaded. Fields missing from the file keep their values.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.AppEnv, c.AppEnv)
	setString(&config.HTTPAddr, c.HTTPAddr)
	if c.GRPCAddr != nil {
		config.GRPCAddr = *c.GRPCAddr
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SaltPepper, c.SaltPepper)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setInt(&config.LoginRateLimit, c.LoginRateLimit)
	setInt(&config.LoginRateBurst, c.LoginRateBurst)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	if c.UsernameCacheTTL != nil {
		config.UsernameCacheTTL = c.UsernameCacheTTL.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
