package session

import "errors"

var (
	// ErrNoIdentity is returned when no signed-in identity is stored.
	ErrNoIdentity = errors.New("no session identity")

	// ErrInvalidIdentity is returned for an identity missing its subject id or role.
	ErrInvalidIdentity = errors.New("invalid session identity")

	// ErrVaultLocked is returned when persisted cookies are sealed but no vault key is configured.
	ErrVaultLocked = errors.New("cookie vault is sealed and no vault key is configured")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
