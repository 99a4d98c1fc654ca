package app

import (
	"errors"
	"fmt"

	"telecall/cmd/security/vault"
)

// ValidateSecurityConfig enforces the cookie-vault policy at startup and
// returns the vault parameters to seal with.
//
// With TELECALL_REQUIRE_VAULT=true a missing or weak TELECALL_VAULT_KEY is
// fatal. Without it, a configured key must still satisfy the policy; an
// absent key means cookies are stored unsealed.
func ValidateSecurityConfig(cfg Config) (vault.Config, error) {
	vcfg, err := vault.FromEnv()
	if err != nil {
		return vault.Config{}, fmt.Errorf("security policy: %w", err)
	}

	key := cfg.Session.VaultKey
	if key == "" {
		if cfg.RequireVault {
			return vault.Config{}, errors.New("security policy: TELECALL_REQUIRE_VAULT=true but TELECALL_VAULT_KEY is missing")
		}
		return vcfg, nil
	}

	if err := vcfg.Validate(key); err != nil {
		if errors.Is(err, vault.ErrPassphraseTooShort) {
			return vault.Config{}, fmt.Errorf("security policy: TELECALL_VAULT_KEY is too short (min %d characters)", vcfg.Policy.MinLength)
		}
		return vault.Config{}, fmt.Errorf("security policy: %w", err)
	}
	return vcfg, nil
}
