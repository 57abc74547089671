// Package config reads server settings from flags, falling back to
// CHESSMATE_* environment variables and then to built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                string
	AllowedOrigins      []string
	ClockTime           time.Duration
	MatchmakingInterval time.Duration
	ClockCheckInterval  time.Duration
	LogDevelopment      bool
}

func Default() Config {
	return Config{
		Addr:                ":3000",
		AllowedOrigins:      []string{"http://localhost:5173"},
		ClockTime:           10 * time.Minute,
		MatchmakingInterval: time.Second,
		ClockCheckInterval:  250 * time.Millisecond,
	}
}

// Load parses args (without the program name). getenv is usually os.Getenv.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.fromEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("chessmate", flag.ContinueOnError)
	origins := strings.Join(cfg.AllowedOrigins, ",")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&origins, "origins", origins, "Comma-separated list of allowed CORS/WebSocket origins")
	fs.DurationVar(&cfg.ClockTime, "clock", cfg.ClockTime, "Time on each player's clock")
	fs.DurationVar(&cfg.MatchmakingInterval, "matchmaking-interval", cfg.MatchmakingInterval, "How often queued players are paired")
	fs.DurationVar(&cfg.ClockCheckInterval, "clock-check-interval", cfg.ClockCheckInterval, "How often running clocks are checked for a flag fall")
	fs.BoolVar(&cfg.LogDevelopment, "dev", cfg.LogDevelopment, "Human-readable development logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.AllowedOrigins = splitList(origins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv(getenv func(string) string) error {
	if v := getenv("CHESSMATE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("CHESSMATE_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CHESSMATE_CLOCK", &c.ClockTime},
		{"CHESSMATE_MATCHMAKING_INTERVAL", &c.MatchmakingInterval},
		{"CHESSMATE_CLOCK_CHECK_INTERVAL", &c.ClockCheckInterval},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	if v := getenv("CHESSMATE_LOG_DEVELOPMENT"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHESSMATE_LOG_DEVELOPMENT: %w", err)
		}
		c.LogDevelopment = dev
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("no allowed origins"))
	}
	if c.ClockTime <= 0 {
		errs = append(errs, fmt.Errorf("clock must be positive, got %s", c.ClockTime))
	}
	if c.MatchmakingInterval <= 0 {
		errs = append(errs, fmt.Errorf("matchmaking interval must be positive, got %s", c.MatchmakingInterval))
	}
	if c.ClockCheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("clock check interval must be positive, got %s", c.ClockCheckInterval))
	}
	return errors.Join(errs...)
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
