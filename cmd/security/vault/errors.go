package vault

import "errors"

// Public, stable errors for callers.
var (
	ErrPassphraseTooShort = errors.New("vault passphrase too short")
	ErrPassphraseTooLong  = errors.New("vault passphrase too long")
	ErrInvalidSealed      = errors.New("invalid sealed payload")
	ErrDecrypt            = errors.New("vault decrypt failed")
)
