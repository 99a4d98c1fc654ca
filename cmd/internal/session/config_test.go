package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("TELECALL_PROFILE", "")
	t.Setenv("TELECALL_DEVICE_CLASS", "")
	t.Setenv("TELECALL_REDIS_ADDR", "")
	t.Setenv("TELECALL_REDIS_DB", "")
	t.Setenv("TELECALL_SESSION_TTL", "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv error: %v", err)
	}
	if cfg.Profile != "default" || cfg.DeviceClass != DeviceDesktop {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RedisTTL != 30*24*time.Hour {
		t.Fatalf("RedisTTL=%v", cfg.RedisTTL)
	}
}

func TestLoadConfigFromEnv_Override(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TELECALL_PROFILE", "north-team")
	t.Setenv("TELECALL_STATE_DIR", dir)
	t.Setenv("TELECALL_DEVICE_CLASS", "web")
	t.Setenv("TELECALL_REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("TELECALL_REDIS_DB", "3")
	t.Setenv("TELECALL_SESSION_TTL", "12h")
	t.Setenv("TELECALL_VAULT_KEY", "k")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv error: %v", err)
	}
	if cfg.Profile != "north-team" || cfg.DeviceClass != DeviceWeb || cfg.RedisDB != 3 || cfg.RedisTTL != 12*time.Hour {
		t.Fatalf("override failed: %+v", cfg)
	}
	if cfg.IdentityPath() != filepath.Join(dir, "north-team.identity.json") {
		t.Fatalf("IdentityPath()=%q", cfg.IdentityPath())
	}
	if cfg.CookiePath() != filepath.Join(dir, "north-team.cookies") {
		t.Fatalf("CookiePath()=%q", cfg.CookiePath())
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		key string
		val string
	}{
		{key: "TELECALL_PROFILE", val: "../etc"},
		{key: "TELECALL_DEVICE_CLASS", val: "fridge"},
		{key: "TELECALL_REDIS_DB", val: "-1"},
		{key: "TELECALL_SESSION_TTL", val: "forever"},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
				t.Fatalf("%s=%q err=%v want ErrConfig", tc.key, tc.val, err)
			}
		})
	}
}

func TestConfigPaths_NoStateDir(t *testing.T) {
	t.Parallel()

	cfg := Config{Profile: "default"}
	if cfg.IdentityPath() != "" || cfg.CookiePath() != "" {
		t.Fatalf("paths must be empty without a state dir")
	}
}
