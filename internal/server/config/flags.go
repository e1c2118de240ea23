package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/saltgate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address; empty disables gRPC
//	-d string   database DSN
//	-s string   token signing secret
//	-p string   salt pepper
//	-l string   log level
//	-r int      login attempts per minute
//	-b int      login burst
//
// Only these flags are looked at; everything else in args (the -c/-config
// path, flags of other layers) is filtered out first with flagx.FilterArgs.
func parseFlags(config *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-p", "-l", "-r", "-b"})

	fs := flag.NewFlagSet("saltgate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to run the gRPC server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SaltPepper, "p", config.SaltPepper, "salt pepper")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.LoginRateLimit, "r", config.LoginRateLimit, "login attempts per minute")
	fs.IntVar(&config.LoginRateBurst, "b", config.LoginRateBurst, "login burst")

	return fs.Parse(filtered)
}
