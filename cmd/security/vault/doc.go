// Package vault seals small local secrets (the persisted session cookies)
// with a key derived from an operator passphrase.
//
// Key derivation is Argon2id; sealing is XChaCha20-Poly1305. The encoded form
// carries its own cost parameters so older payloads stay readable after the
// defaults change:
//
//	$tcvault$v=1$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<nonce||ciphertext_b64>
package vault
