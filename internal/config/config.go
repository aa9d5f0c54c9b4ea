package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvToken      = "PRINT_SERVER_TOKEN"
	EnvConfigFile = "PRINT_SERVER_CONFIG"

	DefaultPort         = 5151
	DefaultMaxBodyBytes = 20 * 1024 * 1024
)

type Config struct {
	Host         string `yaml:"host"`           // bind address, ex: "0.0.0.0"
	Port         int    `yaml:"port"`           // bind port, ex: 5151
	Token        string `yaml:"token"`          // explicit bearer token (flag or file), wins over EnvToken
	EnvToken     string `yaml:"-"`              // value of PRINT_SERVER_TOKEN
	MaxBodyBytes int64  `yaml:"max_body_bytes"` // request body cap

	LogLevel  string `yaml:"log_level"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)

	HostIdentity string `yaml:"host_identity"` // suffix of every display name, defaults to os.Hostname()
	CUPSAddr     string `yaml:"cups_addr"`     // CUPS scheduler, ex: "localhost:631"

	TrustProxy     bool          `yaml:"trust_proxy"`      // resolve client IP from X-Forwarded-For
	AllowedHosts   []string      `yaml:"allowed_hosts"`    // optional Host header allow-list
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`   // per-client requests per second, 0 disables
	RateLimitBurst int           `yaml:"rate_limit_burst"` // per-client burst
	RequestTimeout time.Duration `yaml:"request_timeout"`  // per-request deadline at the HTTP boundary

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout"` // mDNS conflict probe window
	SyncInterval    time.Duration `yaml:"sync_interval"` // printer resync while sharing, 0 disables

	ConfigFile string `yaml:"-"`
}

// Defaults returns the configuration used when nothing else is provided.
func Defaults() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            DefaultPort,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		LogLevel:        "info",
		PrettyLog:       false,
		HostIdentity:    defaultHostIdentity(),
		CUPSAddr:        "localhost:631",
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		RequestTimeout:  60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		ProbeTimeout:    750 * time.Millisecond,
		SyncInterval:    30 * time.Second,
	}
}

// Load layers configuration: defaults < YAML file < environment < flags.
// args excludes the program name.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("printshare", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		fConfig   = fs.String("config", "", "path to a YAML config file")
		fHost     = fs.String("host", "", "host/IP to bind")
		fPort     = fs.Int("port", 0, "TCP port to bind")
		fToken    = fs.String("token", "", "bearer token required for API access")
		fMaxBody  = fs.Int64("max-body", 0, "maximum accepted request body in bytes")
		fLevel    = fs.String("log-level", "", "log level (debug, info, warning, error)")
		fPretty   = fs.Bool("pretty-log", false, "human readable colored logs")
		fIdentity = fs.String("host-identity", "", "host identity used in printer display names")
		fCUPS     = fs.String("cups-addr", "", "CUPS scheduler address")
	)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg := Defaults()

	cfg.ConfigFile = getenv(EnvConfigFile, "")
	if *fConfig != "" {
		cfg.ConfigFile = *fConfig
	}
	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *fHost
		case "port":
			cfg.Port = *fPort
		case "token":
			cfg.Token = *fToken
		case "max-body":
			cfg.MaxBodyBytes = *fMaxBody
		case "log-level":
			cfg.LogLevel = *fLevel
		case "pretty-log":
			cfg.PrettyLog = *fPretty
		case "host-identity":
			cfg.HostIdentity = *fIdentity
		case "cups-addr":
			cfg.CUPSAddr = *fCUPS
		}
	})

	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.HostIdentity = strings.TrimSpace(cfg.HostIdentity)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Host = getenv("PRINT_SERVER_HOST", c.Host)
	c.Port = getenvInt("PRINT_SERVER_PORT", c.Port)
	c.EnvToken = strings.TrimSpace(os.Getenv(EnvToken))
	c.MaxBodyBytes = getenvInt64("PRINT_SERVER_MAX_BODY_BYTES", c.MaxBodyBytes)

	c.LogLevel = getenv("PRINT_SERVER_LOG_LEVEL", c.LogLevel)
	c.PrettyLog = mustBool("PRINT_SERVER_PRETTY_LOG", c.PrettyLog)

	c.HostIdentity = getenv("PRINT_SERVER_HOST_IDENTITY", c.HostIdentity)
	c.CUPSAddr = getenv("PRINT_SERVER_CUPS_ADDR", c.CUPSAddr)

	c.TrustProxy = mustBool("PRINT_SERVER_TRUST_PROXY", c.TrustProxy)
	if hosts := splitAndTrim(getenv("PRINT_SERVER_ALLOWED_HOSTS", "")); len(hosts) > 0 {
		c.AllowedHosts = hosts
	}
	c.RateLimitRPS = getenvFloat("PRINT_SERVER_RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getenvInt("PRINT_SERVER_RATE_LIMIT_BURST", c.RateLimitBurst)
	c.RequestTimeout = mustDuration("PRINT_SERVER_REQUEST_TIMEOUT", c.RequestTimeout)

	c.ShutdownTimeout = mustDuration("PRINT_SERVER_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.ProbeTimeout = mustDuration("PRINT_SERVER_PROBE_TIMEOUT", c.ProbeTimeout)
	c.SyncInterval = mustDuration("PRINT_SERVER_SYNC_INTERVAL", c.SyncInterval)
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max body must be positive, got %d", c.MaxBodyBytes))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateLimitBurst))
	}
	if c.SyncInterval < 0 {
		errs = append(errs, fmt.Errorf("sync interval must not be negative, got %v", c.SyncInterval))
	}
	if strings.TrimSpace(c.CUPSAddr) == "" {
		errs = append(errs, errors.New("cups address is empty"))
	}
	return errors.Join(errs...)
}

// ListenAddr is the address handed to http.Server.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.Token != "" {
		cp.Token = "***REDACTED***"
	}
	if cp.EnvToken != "" {
		cp.EnvToken = "***REDACTED***"
	}
	return cp
}

func defaultHostIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
