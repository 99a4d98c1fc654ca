package app

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"telecall/cmd/internal/session"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	APIBaseURL string
	LogLevel   string
	LogFormat  string

	HTTPTimeout    time.Duration
	RefreshPath    string
	RefreshTimeout time.Duration
	CSRFCookie     string
	CSRFHeader     string

	// Session covers profile, state dir, device class, redis and the vault key.
	Session session.Config

	// If true, TELECALL_VAULT_KEY MUST be set and satisfy the vault policy.
	RequireVault bool

	// FollowUpHorizon caps how far ahead log-call accepts a follow-up date.
	FollowUpHorizon time.Duration

	DatabaseURL   string
	DBMaxConns    int32
	DBMinConns    int32
	ArchiveSchema string

	// MetricsAddr, when set, makes watch serve /metrics, /healthz and /readyz.
	MetricsAddr  string
	PollInterval time.Duration
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	sess, err := session.LoadConfigFromEnv()
	if err != nil {
		return Config{}, fmt.Errorf("session config: %w", err)
	}

	cfg := Config{
		APIBaseURL: EnvString("TELECALL_API_BASE_URL", "http://127.0.0.1:8000"),
		LogLevel:   EnvString("TELECALL_LOG_LEVEL", "warn"),
		LogFormat:  EnvString("TELECALL_LOG_FORMAT", "json"),

		HTTPTimeout:    EnvDuration("TELECALL_HTTP_TIMEOUT", 30*time.Second),
		RefreshPath:    EnvString("TELECALL_REFRESH_PATH", "/auth/refresh"),
		RefreshTimeout: EnvDuration("TELECALL_REFRESH_TIMEOUT", 15*time.Second),
		CSRFCookie:     EnvString("TELECALL_CSRF_COOKIE", ""),
		CSRFHeader:     EnvString("TELECALL_CSRF_HEADER", "X-CSRF-Token"),

		Session:      sess,
		RequireVault: EnvBool("TELECALL_REQUIRE_VAULT", false),

		FollowUpHorizon: EnvDuration("TELECALL_FOLLOWUP_HORIZON", 90*24*time.Hour),

		DatabaseURL:   EnvString("TELECALL_DATABASE_URL", ""),
		DBMaxConns:    EnvInt32("TELECALL_DB_MAX_CONNS", 4),
		DBMinConns:    EnvInt32("TELECALL_DB_MIN_CONNS", 0),
		ArchiveSchema: EnvString("TELECALL_ARCHIVE_SCHEMA", "telecall"),

		MetricsAddr:  EnvString("TELECALL_METRICS_ADDR", ""),
		PollInterval: EnvDuration("TELECALL_POLL_INTERVAL", 30*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("TELECALL_API_BASE_URL must be an absolute http(s) url, got %q", c.APIBaseURL)
	}
	if !strings.HasPrefix(c.RefreshPath, "/") {
		return fmt.Errorf("TELECALL_REFRESH_PATH must start with /, got %q", c.RefreshPath)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "pretty":
	default:
		return fmt.Errorf("TELECALL_LOG_FORMAT must be json or pretty, got %q", c.LogFormat)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("TELECALL_DB_MIN_CONNS(%d) > TELECALL_DB_MAX_CONNS(%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
