package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays values from envFile (if it exists) and the process
// environment. Variables already set in the environment win over the file.
func parseEnv(config *Config, envFile string) error {
	fileVars := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading %s: %w", envFile, err)
		}
		if m != nil {
			fileVars = m
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	strs := map[string]*string{
		"LISTEN_ADDR":          &config.ListenAddr,
		"DATABASE_DSN":         &config.DatabaseDSN,
		"STORAGE":              &config.Storage,
		"ACCESS_TOKEN_SECRET":  &config.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": &config.RefreshTokenSecret,
		"LOG_LEVEL":            &config.LogLevel,
		"GIN_MODE":             &config.GinMode,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &config.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &config.RefreshTokenTTL,
		"SWEEP_INTERVAL":    &config.SweepInterval,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		config.BcryptCost = n
	}

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
