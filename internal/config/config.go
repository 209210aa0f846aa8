package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"commentlottery/internal/bilibili"

	"github.com/joho/godotenv"
)

// Names of the environment variables read by Load.
const (
	AddrEnv            = "LOTTERY_ADDR"
	WinnersEnv         = "LOTTERY_WINNERS"
	VerboseEnv         = "LOTTERY_VERBOSE"
	APIBaseEnv         = "BILIBILI_API_BASE"
	RequestIntervalEnv = "REQUEST_INTERVAL"
	HTTPTimeoutEnv     = "HTTP_TIMEOUT"
	MaxPagesEnv        = "MAX_PAGES"
)

// Config holds the settings shared by the CLI and the HTTP server.
type Config struct {
	Addr            string
	Winners         int
	Verbose         bool
	APIBase         string
	RequestInterval time.Duration // 0 = no pacing between page requests
	HTTPTimeout     time.Duration // 0 = transport default
	MaxPages        int           // 0 = unlimited
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:    ":8080",
		Winners: 3,
		APIBase: bilibili.DefaultBaseURL,
	}
}

// Load reads a .env file if one is present, then overlays environment
// variables on the defaults.
func Load() (Config, error) {
	// variables may also come from the real environment
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup to read variables.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(AddrEnv); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup(APIBaseEnv); ok && v != "" {
		cfg.APIBase = v
	}
	if v, ok := lookup(WinnersEnv); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("environment variable %q: invalid winner count %q", WinnersEnv, v)
		}
		cfg.Winners = n
	}
	if v, ok := lookup(MaxPagesEnv); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("environment variable %q: invalid page cap %q", MaxPagesEnv, v)
		}
		cfg.MaxPages = n
	}
	if v, ok := lookup(VerboseEnv); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("environment variable %q: %w", VerboseEnv, err)
		}
		cfg.Verbose = b
	}

	var err error
	if cfg.RequestInterval, err = duration(lookup, RequestIntervalEnv); err != nil {
		return cfg, err
	}
	if cfg.HTTPTimeout, err = duration(lookup, HTTPTimeoutEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func duration(lookup func(string) (string, bool), env string) (time.Duration, error) {
	v, ok := lookup(env)
	if !ok || v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("environment variable %q: invalid duration %q", env, v)
	}
	return d, nil
}
