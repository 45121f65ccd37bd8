package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	AuditSQLite = "sqlite"
	AuditMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request deadline

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Sharing
	BaseURL         string        // prefix of the shareUrl returned to senders
	WebhookSecret   string        // pre-shared HMAC secret (required)
	ShareTTL        time.Duration // how long a record stays readable (default: 300s)
	ShareRetention  time.Duration // how long an expired record is kept to answer "expired"
	StoreBackend    string        // "memory" | "redis"
	SweepInterval   time.Duration // 0 disables the background sweeper
	MaxBodyBytes    int64         // webhook body cap
	SigningEndpoint bool          // expose POST /api/generate-signature

	// Rate limiting
	RateLimitPoints     int           // admissions per window (default: 10)
	RateLimitWindow     time.Duration // window length (default: 60s)
	RateLimitBackend    string        // "memory" | "redis"
	RateLimitMaxEntries int           // memory backend: sweep early past this many keys

	// Audit log
	AuditDriver   string // "sqlite" | "memory"
	AuditDSN      string // sqlite path, ex: "/data/audit.db"
	AuditCapacity int    // memory driver: entries kept

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict admin endpoints to specific Host headers
	AllowedCIDRS []string // optional, restrict admin endpoints to specific IPs (e.g. "10.0.0.0/8, 127.0.0.1")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // origins allowed to call the retrieval endpoint
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c *Config) NeedsRedis() bool {
	return c.StoreBackend == StoreRedis || c.RateLimitBackend == StoreRedis
}

// Load reads the configuration from the environment. When PSHARE_CONFIG_FILE
// points at a YAML file its values act as defaults under the environment.
// Invalid or missing required values panic.
func Load() *Config {
	fileValues = nil
	if path := os.Getenv("PSHARE_CONFIG_FILE"); path != "" {
		values, err := readOverlay(path)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
		fileValues = values
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PSHARE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PSHARE_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("PSHARE_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("PSHARE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PSHARE_PRETTY_LOG", false),

		// Sharing
		BaseURL:         getenv("PSHARE_BASE_URL", "http://localhost:8080"),
		WebhookSecret:   requireEnv("PSHARE_WEBHOOK_SECRET"),
		ShareTTL:        mustDuration("PSHARE_SHARE_TTL", 300*time.Second),
		ShareRetention:  mustDuration("PSHARE_SHARE_RETENTION", time.Hour),
		StoreBackend:    oneOf("PSHARE_STORE_BACKEND", StoreMemory, StoreMemory, StoreRedis),
		SweepInterval:   mustDuration("PSHARE_SWEEP_INTERVAL", time.Minute),
		MaxBodyBytes:    int64(getenvInt("PSHARE_MAX_BODY_BYTES", 1<<20)),
		SigningEndpoint: mustBool("PSHARE_SIGNING_ENDPOINT", false),

		// Rate limiting
		RateLimitPoints:     getenvInt("PSHARE_RATE_LIMIT_POINTS", 10),
		RateLimitWindow:     mustDuration("PSHARE_RATE_LIMIT_WINDOW", 60*time.Second),
		RateLimitBackend:    oneOf("PSHARE_RATE_LIMIT_BACKEND", StoreMemory, StoreMemory, StoreRedis),
		RateLimitMaxEntries: getenvInt("PSHARE_RATE_LIMIT_MAX_ENTRIES", 100_000),

		// Audit
		AuditDriver:   oneOf("PSHARE_AUDIT_DRIVER", AuditSQLite, AuditSQLite, AuditMemory),
		AuditDSN:      getenv("PSHARE_AUDIT_DSN", "patientshare-audit.db"),
		AuditCapacity: getenvInt("PSHARE_AUDIT_CAPACITY", 1000),

		// Redis settings
		RedisAddr:             getenv("PSHARE_REDIS_ADDR", ""),
		RedisUser:             getenv("PSHARE_REDIS_USERNAME", ""),
		RedisPasswordRequired: mustBool("PSHARE_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("PSHARE_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("PSHARE_REDIS_DB", 0),
		RedisDT:               mustDuration("PSHARE_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("PSHARE_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("PSHARE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("PSHARE_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("PSHARE_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("PSHARE_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("PSHARE_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("PSHARE_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("PSHARE_REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("PSHARE_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("PSHARE_ALLOWED_CIDRS", "127.0.0.1/32, ::1/128")),
		TrustProxy:   mustBool("PSHARE_TRUST_PROXY", false),
		CORSOrigins:  splitAndTrim(getenv("PSHARE_CORS_ORIGINS", "*")),
	}

	if cfg.ShareTTL <= 0 {
		panic("❌ FATAL: PSHARE_SHARE_TTL must be positive")
	}
	if cfg.RateLimitPoints < 1 {
		panic("❌ FATAL: PSHARE_RATE_LIMIT_POINTS must be at least 1")
	}
	if cfg.MaxBodyBytes <= 0 {
		panic("❌ FATAL: PSHARE_MAX_BODY_BYTES must be positive")
	}
	if cfg.NeedsRedis() && cfg.RedisAddr == "" {
		panic("❌ FATAL: PSHARE_REDIS_ADDR is required when a redis backend is selected")
	}
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: PSHARE_REDIS_PASSWORD is required when PSHARE_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.WebhookSecret = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers

// lookup prefers the environment over the overlay file.
func lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fileValues[key]
}

func getenv(key, def string) string {
	if v := lookup(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := lookup(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// bare integers are seconds
		if s, err := strconv.Atoi(v); err == nil {
			return time.Duration(s) * time.Second
		}
	}
	return def
}

// oneOf returns the lower-cased value of key, panicking if it is not allowed.
func oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(getenv(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	panic(fmt.Sprintf("❌ FATAL: %s must be one of %s, got %q", key, strings.Join(allowed, "|"), v))
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
