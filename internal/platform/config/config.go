package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DevSigningKey is only accepted when Environment is "development".
const DevSigningKey = "dev-session-signing-key-change-me"

// Config is the resolved runtime configuration.
type Config struct {
	Environment string
	LogLevel    string

	Server   Server
	Session  Session
	Cases    Cases
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Audit    Audit

	RateLimit RateLimit

	// SeedDemoData loads the demo admin, session and cases into in-memory stores.
	SeedDemoData bool
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string

	// LoginURL is where denied dashboard requests are redirected.
	LoginURL string
}

// Session configures session token validation.
type Session struct {
	SigningKey string
	Issuer     string
	Audience   string
	CookieName string
	TTL        time.Duration
}

// Cases configures the case lookup path.
type Cases struct {
	CacheTTL time.Duration

	// LookupTimeout bounds a coalesced backing lookup, which outlives any
	// single caller's request.
	LookupTimeout time.Duration
}

// Postgres is optional; empty URL selects in-memory stores.
type Postgres struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int

	// AutoMigrate applies pending schema migrations at startup.
	AutoMigrate bool
}

// Redis is optional; empty URL disables the session store and lookup cache.
type Redis struct {
	URL string
}

// Kafka is optional; empty Brokers keeps audit events local.
type Kafka struct {
	Brokers    string
	AuditTopic string
}

// Audit configures audit event persistence.
type Audit struct {
	// AsyncBuffer queues events for a background writer; 0 persists inline.
	AsyncBuffer int
}

// RateLimit bounds case lookups per client IP. LookupsPerWindow of 0 disables it.
type RateLimit struct {
	LookupsPerWindow int
	Window           time.Duration
}

// configFile mirrors the YAML schema of configs/casestatus.yaml.
type configFile struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	Server      struct {
		Addr           string   `yaml:"addr"`
		RequestTimeout string   `yaml:"request_timeout"`
		TrustedProxies []string `yaml:"trusted_proxies"`
		LoginURL       string   `yaml:"login_url"`
	} `yaml:"server"`
	Session struct {
		Issuer     string `yaml:"issuer"`
		Audience   string `yaml:"audience"`
		CookieName string `yaml:"cookie_name"`
		TTL        string `yaml:"ttl"`
	} `yaml:"session"`
	Cases struct {
		CacheTTL      string `yaml:"cache_ttl"`
		LookupTimeout string `yaml:"lookup_timeout"`
	} `yaml:"cases"`
	Dependencies struct {
		PostgresURL     string `yaml:"postgres_url"`
		PostgresMigrate *bool  `yaml:"postgres_auto_migrate"`
		RedisURL        string `yaml:"redis_url"`
		KafkaBrokers    string `yaml:"kafka_brokers"`
		AuditTopic      string `yaml:"audit_topic"`
	} `yaml:"dependencies"`
	Audit struct {
		AsyncBuffer *int `yaml:"async_buffer"`
	} `yaml:"audit"`
	RateLimit struct {
		LookupsPerWindow *int   `yaml:"lookups_per_window"`
		Window           string `yaml:"window"`
	} `yaml:"rate_limit"`
	SeedDemoData *bool `yaml:"seed_demo_data"`
}

// Defaults returns the configuration used when neither file nor env set a value.
func Defaults() Config {
	return Config{
		Environment: "development",
		LogLevel:    "info",
		Server: Server{
			Addr:            ":8080",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			LoginURL:        "/login",
		},
		Session: Session{
			SigningKey: DevSigningKey,
			Issuer:     "casestatus",
			Audience:   "casestatus-admin",
			CookieName: "casestatus_session",
			TTL:        8 * time.Hour,
		},
		Cases:        Cases{CacheTTL: 5 * time.Minute, LookupTimeout: 5 * time.Second},
		Postgres:     Postgres{MaxOpenConns: 25, MaxIdleConns: 5},
		Kafka:        Kafka{AuditTopic: "casestatus.audit"},
		Audit:        Audit{AsyncBuffer: 1024},
		RateLimit:    RateLimit{LookupsPerWindow: 60, Window: time.Minute},
		SeedDemoData: true,
	}
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.Environment != "" {
		cfg.Environment = f.Environment
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.Server.Addr != "" {
		cfg.Server.Addr = f.Server.Addr
	}
	if len(f.Server.TrustedProxies) > 0 {
		cfg.Server.TrustedProxies = f.Server.TrustedProxies
	}
	if f.Server.LoginURL != "" {
		cfg.Server.LoginURL = f.Server.LoginURL
	}
	if f.Session.Issuer != "" {
		cfg.Session.Issuer = f.Session.Issuer
	}
	if f.Session.Audience != "" {
		cfg.Session.Audience = f.Session.Audience
	}
	if f.Session.CookieName != "" {
		cfg.Session.CookieName = f.Session.CookieName
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.Postgres.URL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.PostgresMigrate != nil {
		cfg.Postgres.AutoMigrate = *f.Dependencies.PostgresMigrate
	}
	if f.Dependencies.RedisURL != "" {
		cfg.Redis.URL = f.Dependencies.RedisURL
	}
	if f.Dependencies.KafkaBrokers != "" {
		cfg.Kafka.Brokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.AuditTopic != "" {
		cfg.Kafka.AuditTopic = f.Dependencies.AuditTopic
	}
	if f.Audit.AsyncBuffer != nil {
		cfg.Audit.AsyncBuffer = *f.Audit.AsyncBuffer
	}
	if f.RateLimit.LookupsPerWindow != nil {
		cfg.RateLimit.LookupsPerWindow = *f.RateLimit.LookupsPerWindow
	}
	if f.SeedDemoData != nil {
		cfg.SeedDemoData = *f.SeedDemoData
	}

	durations := []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{f.Server.RequestTimeout, &cfg.Server.RequestTimeout, "server.request_timeout"},
		{f.Session.TTL, &cfg.Session.TTL, "session.ttl"},
		{f.Cases.CacheTTL, &cfg.Cases.CacheTTL, "cases.cache_ttl"},
		{f.Cases.LookupTimeout, &cfg.Cases.LookupTimeout, "cases.lookup_timeout"},
		{f.RateLimit.Window, &cfg.RateLimit.Window, "rate_limit.window"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = envOrDefault("CASESTATUS_ENV", cfg.Environment)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Addr = envOrDefault("CASESTATUS_ADDR", cfg.Server.Addr)
	cfg.Server.RequestTimeout = envDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.TrustedProxies = envCSV("TRUSTED_PROXIES", cfg.Server.TrustedProxies)
	cfg.Server.LoginURL = envOrDefault("LOGIN_URL", cfg.Server.LoginURL)

	cfg.Session.SigningKey = envOrDefault("SESSION_SIGNING_KEY", cfg.Session.SigningKey)
	cfg.Session.Issuer = envOrDefault("SESSION_ISSUER", cfg.Session.Issuer)
	cfg.Session.Audience = envOrDefault("SESSION_AUDIENCE", cfg.Session.Audience)
	cfg.Session.CookieName = envOrDefault("SESSION_COOKIE_NAME", cfg.Session.CookieName)
	cfg.Session.TTL = envDuration("SESSION_TTL", cfg.Session.TTL)

	cfg.Cases.CacheTTL = envDuration("CASE_CACHE_TTL", cfg.Cases.CacheTTL)
	cfg.Cases.LookupTimeout = envDuration("CASE_LOOKUP_TIMEOUT", cfg.Cases.LookupTimeout)

	cfg.Postgres.URL = envOrDefault("DATABASE_URL", cfg.Postgres.URL)
	cfg.Postgres.MaxOpenConns = envInt("DB_MAX_OPEN_CONNS", cfg.Postgres.MaxOpenConns)
	cfg.Postgres.MaxIdleConns = envInt("DB_MAX_IDLE_CONNS", cfg.Postgres.MaxIdleConns)
	cfg.Postgres.AutoMigrate = envBool("DB_AUTO_MIGRATE", cfg.Postgres.AutoMigrate)
	cfg.Redis.URL = envOrDefault("REDIS_URL", cfg.Redis.URL)
	cfg.Kafka.Brokers = envOrDefault("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.AuditTopic = envOrDefault("KAFKA_AUDIT_TOPIC", cfg.Kafka.AuditTopic)

	cfg.Audit.AsyncBuffer = envInt("AUDIT_ASYNC_BUFFER", cfg.Audit.AsyncBuffer)

	cfg.RateLimit.LookupsPerWindow = envInt("RATE_LIMIT_LOOKUPS", cfg.RateLimit.LookupsPerWindow)
	cfg.RateLimit.Window = envDuration("RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.SeedDemoData = envBool("SEED_DEMO_DATA", cfg.SeedDemoData)
}

// Validate rejects configurations that must never reach production.
func (c Config) Validate() error {
	if c.Server.LoginURL == "" {
		return errors.New("login url must not be empty")
	}
	if c.Session.SigningKey == "" {
		return errors.New("session signing key must not be empty")
	}
	if !c.IsDevelopment() && c.Session.SigningKey == DevSigningKey {
		return errors.New("SESSION_SIGNING_KEY must be set outside development")
	}
	if c.Cases.CacheTTL < 0 {
		return errors.New("case cache ttl must not be negative")
	}
	if c.Cases.LookupTimeout <= 0 {
		return errors.New("case lookup timeout must be positive")
	}
	if c.Audit.AsyncBuffer < 0 {
		return errors.New("audit async buffer must not be negative")
	}
	if c.RateLimit.LookupsPerWindow < 0 {
		return errors.New("rate limit lookups must not be negative")
	}
	if c.RateLimit.LookupsPerWindow > 0 && c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive when limiting is enabled")
	}
	return nil
}

// IsDevelopment reports whether dev-only conveniences are allowed.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envCSV(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
