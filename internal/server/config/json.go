package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// both "30m" strings and integer nanoseconds.
type JsonConfig struct {
	ListenAddr         string         `json:"listen_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	Storage            string         `json:"storage"`
	AccessTokenSecret  string         `json:"access_token_secret"`
	RefreshTokenSecret string         `json:"refresh_token_secret"`
	AccessTokenTTL     timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL    timex.Duration `json:"refresh_token_ttl"`
	SweepInterval      timex.Duration `json:"sweep_interval"`
	BcryptCost         int            `json:"bcrypt_cost"`
	LogLevel           string         `json:"log_level"`
	GinMode            string         `json:"gin_mode"`
	CORSAllowedOrigins []string       `json:"cors_allowed_origins"`
}

// parseJson overlays values from the JSON file given with -c/-config.
// Keys absent from the file leave the current values untouched.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Storage, c.Storage)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.GinMode, c.GinMode)

	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration != 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.SweepInterval.Duration != 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
