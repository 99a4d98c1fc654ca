package session

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Config defines where and how the client keeps its session state.
type Config struct {
	// Profile names the session, so one machine can hold a manager and a
	// telecaller login side by side.
	Profile string

	// StateDir holds the identity file and the cookie vault.
	// Empty keeps everything in memory.
	StateDir string

	// DeviceClass is reported to the backend on every refresh.
	DeviceClass DeviceClass

	// Redis, when RedisAddr is set, replaces the identity file.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// VaultKey seals the persisted cookies. Empty stores them as plain 0600 JSON.
	VaultKey string
}

var profilePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// DefaultConfig returns the defaults for a terminal client.
func DefaultConfig() Config {
	return Config{
		Profile:     "default",
		StateDir:    defaultStateDir(),
		DeviceClass: DeviceDesktop,
		RedisTTL:    30 * 24 * time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - TELECALL_PROFILE
//   - TELECALL_STATE_DIR
//   - TELECALL_DEVICE_CLASS
//   - TELECALL_REDIS_ADDR
//   - TELECALL_REDIS_PASSWORD
//   - TELECALL_REDIS_DB
//   - TELECALL_SESSION_TTL
//   - TELECALL_VAULT_KEY
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("TELECALL_PROFILE"); v != "" {
		if !profilePattern.MatchString(v) {
			return Config{}, ErrConfig
		}
		cfg.Profile = v
	}

	if v, ok := os.LookupEnv("TELECALL_STATE_DIR"); ok {
		cfg.StateDir = v
	}

	if v := os.Getenv("TELECALL_DEVICE_CLASS"); v != "" {
		d, err := ParseDeviceClass(v)
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.DeviceClass = d
	}

	cfg.RedisAddr = os.Getenv("TELECALL_REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("TELECALL_REDIS_PASSWORD")

	if v := os.Getenv("TELECALL_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 15 {
			return Config{}, ErrConfig
		}
		cfg.RedisDB = n
	}

	if v := os.Getenv("TELECALL_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RedisTTL = d
	}

	cfg.VaultKey = os.Getenv("TELECALL_VAULT_KEY")

	return cfg, nil
}

// IdentityPath is the identity file for the profile, or "" without a state dir.
func (c Config) IdentityPath() string {
	if c.StateDir == "" {
		return ""
	}
	return filepath.Join(c.StateDir, c.Profile+".identity.json")
}

// CookiePath is the cookie vault file for the profile, or "" without a state dir.
func (c Config) CookiePath() string {
	if c.StateDir == "" {
		return ""
	}
	return filepath.Join(c.StateDir, c.Profile+".cookies")
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "telecall")
	}
	return ".telecall"
}
