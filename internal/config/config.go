package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven configuration.
type Config struct {
	Sheet struct {
		URL          string        // spreadsheet web app endpoint; empty means every call fails
		ResponseMode string        // opaque (default) or inspect
		Timeout      time.Duration // default: 30s
	}
	Session struct {
		Reconcile     string // optimistic (default) or refetch
		RecentEntries int    // rows shown in the recent-entries table, default 50
	}
	HTTP struct {
		Addr        string  // default: :8080
		SubmitRate  float64 // submissions per second, default 2
		SubmitBurst int     // default: 4
	}
	MySQL struct {
		DSN string // optional; enables the mirror, e.g. user:pass@tcp(host:3306)/db?parseTime=true&multiStatements=true
	}
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	var cfg Config
	var err error

	cfg.Sheet.URL = getenv("SHEET_API_URL")
	cfg.Sheet.ResponseMode = getenv("SHEET_RESPONSE_MODE")
	switch cfg.Sheet.ResponseMode {
	case "":
		cfg.Sheet.ResponseMode = "opaque"
	case "opaque", "inspect":
	default:
		return cfg, errors.New("SHEET_RESPONSE_MODE must be opaque or inspect")
	}
	if cfg.Sheet.Timeout, err = duration(getenv, "SHEET_TIMEOUT", 30*time.Second); err != nil {
		return cfg, err
	}

	cfg.Session.Reconcile = getenv("RECONCILE_MODE")
	switch cfg.Session.Reconcile {
	case "":
		cfg.Session.Reconcile = "optimistic"
	case "optimistic", "refetch":
	default:
		return cfg, errors.New("RECONCILE_MODE must be optimistic or refetch")
	}
	if cfg.Session.RecentEntries, err = integer(getenv, "RECENT_ENTRIES", 50); err != nil {
		return cfg, err
	}

	cfg.HTTP.Addr = getenv("HTTP_ADDR")
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	cfg.HTTP.SubmitRate = 2
	if v := getenv("SUBMIT_RATE_PER_SEC"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return cfg, errors.New("SUBMIT_RATE_PER_SEC must be a positive number")
		}
		cfg.HTTP.SubmitRate = f
	}
	if cfg.HTTP.SubmitBurst, err = integer(getenv, "SUBMIT_BURST", 4); err != nil {
		return cfg, err
	}

	cfg.MySQL.DSN = getenv("MYSQL_DSN")

	return cfg, nil
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func integer(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
