package vault

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	formatTag     = "tcvault"
	formatVersion = 1
	prefix        = "$" + formatTag + "$"
)

// Validate checks the passphrase policy. Length is counted in runes.
func (c Config) Validate(passphrase string) error {
	n := utf8.RuneCountInString(passphrase)
	if n < c.Policy.MinLength {
		return ErrPassphraseTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPassphraseTooLong
	}
	return nil
}

// Seal encrypts plaintext under a key derived from passphrase and returns the
// encoded payload.
func (c Config) Seal(passphrase string, plaintext []byte) (string, error) {
	if err := c.Validate(passphrase); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt, c.Params))
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	box := aead.Seal(nonce, nonce, plaintext, header(c.Params))

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$%s$v=%d$%s$%s$%s",
		formatTag,
		formatVersion,
		paramString(c.Params),
		b64.EncodeToString(salt),
		b64.EncodeToString(box),
	), nil
}

// Open decrypts an encoded payload produced by Seal.
// Payloads whose cost parameters exceed twice the configured ones are refused.
func (c Config) Open(passphrase string, sealed string) ([]byte, error) {
	params, salt, box, err := decode(sealed)
	if err != nil {
		return nil, err
	}
	if !withinReasonableBounds(params, c.Params) {
		return nil, ErrInvalidSealed
	}

	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt, params))
	if err != nil {
		return nil, err
	}
	if len(box) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrInvalidSealed
	}

	nonce, ct := box[:aead.NonceSize()], box[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, header(params))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// IsSealed reports whether data looks like a Seal payload.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte(prefix))
}

func deriveKey(passphrase string, salt []byte, p Argon2idParams) []byte {
	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		p.Iterations,
		p.MemoryKiB,
		p.Parallelism,
		chacha20poly1305.KeySize,
	)
}

// header is bound as associated data so a payload cannot be replayed with
// altered cost parameters.
func header(p Argon2idParams) []byte {
	return []byte(fmt.Sprintf("%s/v%d/%s", formatTag, formatVersion, paramString(p)))
}

func paramString(p Argon2idParams) string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.MemoryKiB, p.Iterations, p.Parallelism)
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if got.Parallelism > limits.Parallelism*2 {
		return false
	}
	if got.SaltLength < 8 || got.SaltLength > 64 {
		return false
	}
	return true
}

func decode(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(strings.TrimSpace(encoded), "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != formatTag {
		return Argon2idParams{}, nil, nil, ErrInvalidSealed
	}
	if parts[2] != fmt.Sprintf("v=%d", formatVersion) {
		return Argon2idParams{}, nil, nil, ErrInvalidSealed
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidSealed
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidSealed
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidSealed
	}
	box, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidSealed
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),
		SaltLength:  uint32(len(salt)), // #nosec G115 -- bounded by withinReasonableBounds.
	}
	return params, salt, box, nil
}
