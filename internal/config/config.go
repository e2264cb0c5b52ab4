package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration. Values are layered: defaults, then
// the YAML file, then EXPENSE_* environment variables, then flags.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	GRPC   GRPCConfig   `yaml:"grpc"`
	Ledger LedgerConfig `yaml:"ledger"`
	Log    LogConfig    `yaml:"log"`
}

type HTTPConfig struct {
	Addr         string          `yaml:"addr"`
	MaxBodyBytes int64           `yaml:"max_body_bytes"`
	ReadTimeout  time.Duration   `yaml:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is per client IP; RPS 0 turns limiting off.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type GRPCConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

type LedgerConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or postgres
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit:    RateLimitConfig{RPS: 0, Burst: 20},
		},
		GRPC: GRPCConfig{
			Enabled:        true,
			Addr:           ":50051",
			HealthInterval: 15 * time.Second,
		},
		Ledger: LedgerConfig{Driver: "sqlite", DSN: "expenses.db"},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// Load parses command-line args and builds the layered configuration.
// lookupEnv is os.LookupEnv outside tests.
func Load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	fs := pflag.NewFlagSet("expense-tracker", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file (env EXPENSE_CONFIG)")
	httpAddr := fs.String("http-addr", "", "HTTP listen address")
	grpcAddr := fs.String("grpc-addr", "", "gRPC health listen address")
	noGRPC := fs.Bool("no-grpc", false, "disable the gRPC health server")
	driver := fs.String("ledger-driver", "", "ledger backend: memory, sqlite or postgres")
	dsn := fs.String("ledger-dsn", "", "ledger data source name")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "log format (json, console)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path, _ = lookupEnv("EXPENSE_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}

	if fs.Changed("http-addr") {
		cfg.HTTP.Addr = *httpAddr
	}
	if fs.Changed("grpc-addr") {
		cfg.GRPC.Addr = *grpcAddr
	}
	if *noGRPC {
		cfg.GRPC.Enabled = false
	}
	if fs.Changed("ledger-driver") {
		cfg.Ledger.Driver = *driver
	}
	if fs.Changed("ledger-dsn") {
		cfg.Ledger.DSN = *dsn
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("EXPENSE_HTTP_ADDR", &c.HTTP.Addr)
	str("EXPENSE_GRPC_ADDR", &c.GRPC.Addr)
	str("EXPENSE_LEDGER_DRIVER", &c.Ledger.Driver)
	str("EXPENSE_LEDGER_DSN", &c.Ledger.DSN)
	str("EXPENSE_LOG_LEVEL", &c.Log.Level)
	str("EXPENSE_LOG_FORMAT", &c.Log.Format)

	var errs []error
	if v, ok := lookupEnv("EXPENSE_GRPC_ENABLED"); ok {
		b, valid := parseBool(v)
		if !valid {
			errs = append(errs, fmt.Errorf("EXPENSE_GRPC_ENABLED: invalid boolean %q", v))
		}
		c.GRPC.Enabled = b
	}
	if v, ok := lookupEnv("EXPENSE_MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("EXPENSE_MAX_BODY_BYTES: %w", err))
		}
		c.HTTP.MaxBodyBytes = n
	}
	if v, ok := lookupEnv("EXPENSE_RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("EXPENSE_RATE_LIMIT_RPS: %w", err))
		}
		c.HTTP.RateLimit.RPS = f
	}
	if v, ok := lookupEnv("EXPENSE_RATE_LIMIT_BURST"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("EXPENSE_RATE_LIMIT_BURST: %w", err))
		}
		c.HTTP.RateLimit.Burst = n
	}
	return errors.Join(errs...)
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if c.HTTP.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("http.rate_limit.rps must not be negative"))
	}
	if c.HTTP.RateLimit.RPS > 0 && c.HTTP.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("http.rate_limit.burst must be positive when rate limiting is on"))
	}
	if c.GRPC.Enabled {
		if c.GRPC.Addr == "" {
			errs = append(errs, errors.New("grpc.addr is required when grpc is enabled"))
		}
		if c.GRPC.HealthInterval <= 0 {
			errs = append(errs, errors.New("grpc.health_interval must be positive"))
		}
	}
	switch c.Ledger.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Ledger.DSN == "" {
			errs = append(errs, fmt.Errorf("ledger.dsn is required for the %s driver", c.Ledger.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ledger.driver %q", c.Ledger.Driver))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
