package session

import (
	"context"
	"log/slog"
)

// NewStore picks the identity backend: redis when an address is configured,
// a file under the state dir otherwise, memory when there is no state dir.
func NewStore(ctx context.Context, cfg Config, log *slog.Logger) (Store, error) {
	if log == nil {
		log = slog.Default()
	}

	switch {
	case cfg.RedisAddr != "":
		rdb, err := DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		log.Info("session.backend", "type", "redis", "addr", cfg.RedisAddr, "profile", cfg.Profile)
		return NewRedisStore(rdb, cfg.Profile, cfg.RedisTTL), nil
	case cfg.StateDir != "":
		log.Debug("session.backend", "type", "file", "path", cfg.IdentityPath())
		return NewFileStore(cfg.IdentityPath()), nil
	default:
		log.Debug("session.backend", "type", "in-memory")
		return NewMemoryStore(), nil
	}
}
