package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// flagNames lists every flag parseFlags understands; anything else in args
// is dropped before parsing so -c/-config and foreign flags do not collide.
var flagNames = []string{"-a", "-d", "-storage", "-s", "-rs", "-t", "-r", "-i", "-bc", "-l", "-m", "-o"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string        HTTP bind address (e.g. ":8080")
//	-d string        PostgreSQL DSN
//	-storage string  storage backend: postgres or memory
//	-s string        access token secret
//	-rs string       refresh token secret
//	-t duration      access token ttl (e.g. 30m)
//	-r duration      refresh token ttl (e.g. 720h)
//	-i duration      sweep interval
//	-bc int          bcrypt cost
//	-l string        log level
//	-m string        gin mode
//	-o string        comma-separated CORS origins
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Storage, "storage", config.Storage, "storage backend (postgres|memory)")
	fs.StringVar(&config.AccessTokenSecret, "s", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret")
	fs.DurationVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token ttl")
	fs.DurationVar(&config.RefreshTokenTTL, "r", config.RefreshTokenTTL, "refresh token ttl")
	fs.DurationVar(&config.SweepInterval, "i", config.SweepInterval, "expired token sweep interval")
	fs.IntVar(&config.BcryptCost, "bc", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.GinMode, "m", config.GinMode, "gin mode")
	origins := fs.String("o", strings.Join(config.CORSAllowedOrigins, ","), "comma-separated CORS allowed origins")

	if err := fs.Parse(flagx.FilterArgs(args, flagNames)); err != nil {
		return err
	}

	config.CORSAllowedOrigins = splitList(*origins)
	return nil
}
