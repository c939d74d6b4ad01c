// Package config loads the load generator's settings.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// environment variables (WORKER_COUNT, FIBO_COUNT, FACTORIAL_COUNT, ...).
// Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/utkarsh5026/fibload/internal/workload"
)

// Duration is a time.Duration that reads and writes as a string such as "3s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds every tunable of a run.
type Config struct {
	Load    LoadConfig    `toml:"load"`
	Pool    PoolConfig    `toml:"pool"`
	Logging LoggingConfig `toml:"logging"`
	Profile ProfileConfig `toml:"profile"`
	Metrics MetricsConfig `toml:"metrics"`
}

// LoadConfig shapes the synthetic workload.
type LoadConfig struct {
	WorkerCount    int      `toml:"worker_count"`
	FiboCount      int      `toml:"fibo_count"`
	FactorialCount int      `toml:"factorial_count"`
	FactorialDelay Duration `toml:"factorial_delay"`
	RetrieveDelay  Duration `toml:"retrieve_delay"`
	WorkFactor     int      `toml:"work_factor"`
	URLTemplate    string   `toml:"url_template"`
}

// PoolConfig tunes both worker pools.
type PoolConfig struct {
	Strategy   string  `toml:"strategy"`
	RateLimit  float64 `toml:"rate_limit"`
	RateBurst  int     `toml:"rate_burst"`
	PinWorkers bool    `toml:"pin_workers"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ProfileConfig controls the per-task statistics export written at exit.
type ProfileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	Summary bool   `toml:"summary"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	s := workload.DefaultSettings()
	return Config{
		Load: LoadConfig{
			WorkerCount:    8,
			FiboCount:      s.FiboCount,
			FactorialCount: s.FactorialCount,
			FactorialDelay: Duration{s.FactorialDelay},
			RetrieveDelay:  Duration{s.RetrieveDelay},
			WorkFactor:     s.WorkFactor,
			URLTemplate:    "https://google.local/%d.html",
		},
		Pool: PoolConfig{
			Strategy: "queue",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Profile: ProfileConfig{
			Dir: ".",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every invalid setting, joined into one error.
func (c Config) Validate() error {
	var errs []error
	if c.Load.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("worker_count must be positive, got %d", c.Load.WorkerCount))
	}
	if c.Load.FiboCount <= 0 {
		errs = append(errs, fmt.Errorf("fibo_count must be positive, got %d", c.Load.FiboCount))
	}
	if c.Load.FactorialCount <= 0 {
		errs = append(errs, fmt.Errorf("factorial_count must be positive, got %d", c.Load.FactorialCount))
	}
	if c.Load.FiboCount > workload.MaxFibonacciInput+1 {
		errs = append(errs, fmt.Errorf("fibo_count must be at most %d, got %d", workload.MaxFibonacciInput+1, c.Load.FiboCount))
	}
	if c.Load.FactorialDelay.Duration < 0 || c.Load.RetrieveDelay.Duration < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if u := fmt.Sprintf(c.Load.URLTemplate, 0); strings.Contains(u, "%!") {
		errs = append(errs, fmt.Errorf("url_template must contain exactly one integer verb, got %q", c.Load.URLTemplate))
	}
	switch c.Pool.Strategy {
	case "queue", "channel":
	default:
		errs = append(errs, fmt.Errorf("unknown pool strategy %q", c.Pool.Strategy))
	}
	return errors.Join(errs...)
}

// Settings converts the load section into task settings.
func (c Config) Settings() workload.Settings {
	return workload.Settings{
		FiboCount:      c.Load.FiboCount,
		FactorialCount: c.Load.FactorialCount,
		FactorialDelay: c.Load.FactorialDelay.Duration,
		RetrieveDelay:  c.Load.RetrieveDelay.Duration,
		WorkFactor:     c.Load.WorkFactor,
	}
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"WORKER_COUNT", &cfg.Load.WorkerCount},
		{"FIBO_COUNT", &cfg.Load.FiboCount},
		{"FACTORIAL_COUNT", &cfg.Load.FactorialCount},
		{"WORK_FACTOR", &cfg.Load.WorkFactor},
		{"RATE_BURST", &cfg.Pool.RateBurst},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", e.key, err)
		}
		*e.dst = n
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"FACTORIAL_DELAY", &cfg.Load.FactorialDelay},
		{"RETRIEVE_DELAY", &cfg.Load.RetrieveDelay},
	}
	for _, e := range durations {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		if err := e.dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("env %s: %w", e.key, err)
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"URL_TEMPLATE", &cfg.Load.URLTemplate},
		{"POOL_STRATEGY", &cfg.Pool.Strategy},
		{"LOG_LEVEL", &cfg.Logging.Level},
		{"LOG_FORMAT", &cfg.Logging.Format},
		{"PROFILE_DIR", &cfg.Profile.Dir},
		{"METRICS_ADDR", &cfg.Metrics.Addr},
	}
	for _, e := range strs {
		if v, ok := lookup(e.key); ok && v != "" {
			*e.dst = v
		}
	}

	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env RATE_LIMIT: %w", err)
		}
		cfg.Pool.RateLimit = f
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"PIN_WORKERS", &cfg.Pool.PinWorkers},
		{"PROFILE_ENABLED", &cfg.Profile.Enabled},
	}
	for _, e := range bools {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", e.key, err)
		}
		*e.dst = b
	}
	return nil
}
