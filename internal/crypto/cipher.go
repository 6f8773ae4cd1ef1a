// Package crypto implements the per-namespace authenticated encryption used
// by the secret vault (VaultStore, internal/vault). Values are AES-256-GCM
// sealed under a single 256-bit master key sourced at startup.
//
// Envelope format: "VAULT:" + base64(IV || CIPHERTEXT || TAG), IV is 12
// random bytes, TAG is the GCM 16-byte authentication tag (see spec.md §3,
// Encrypted Value).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/gitconf/internal/errs"
)

const (
	// Prefix marks a value as an encrypted envelope; its absence means the
	// value is plaintext (spec.md §3).
	Prefix = "VAULT:"

	keyLen   = 32 // 256-bit key
	nonceLen = 12 // GCM standard nonce size
)

// Cipher seals and opens vault values under one process-wide master key.
// The key is read-only after construction and safe for concurrent use.
type Cipher struct {
	gcm cipher.AEAD
}

// New builds a Cipher from a 32-byte key. Callers load the key via
// LoadMasterKey first.
func New(key []byte) (*Cipher, error) {
	if len(key) != keyLen {
		return nil, errs.New(errs.CodeKeyInitializationFailed, 500, "master key must be exactly 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.CodeKeyInitializationFailed, 500, "failed to construct AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.CodeKeyInitializationFailed, 500, "failed to construct GCM mode", err)
	}
	return &Cipher{gcm: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the
// "VAULT:"-prefixed envelope. Empty or whitespace-only input is rejected
// (spec.md §4.2).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", errs.New(errs.CodeEncryptionFailed, 500, "refusing to encrypt empty or whitespace-only input")
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errs.Wrap(errs.CodeEncryptionFailed, 500, "failed to generate nonce", err)
	}

	sealed := c.gcm.Seal(nil, nonce, []byte(plaintext), nil)
	envelope := append(nonce, sealed...) // nonce || ciphertext || tag (Seal appends the tag)
	return Prefix + base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt opens an encrypted envelope. Values without the "VAULT:" prefix
// are returned unchanged (spec.md §4.2).
func (c *Cipher) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", errs.Wrap(errs.CodeDecryptionFailed, 500, "envelope is not valid base64", err)
	}
	if len(raw) < nonceLen {
		return "", errs.New(errs.CodeDecryptionFailed, 500, "envelope shorter than nonce length")
	}

	nonce, ciphertext := raw[:nonceLen], raw[nonceLen:]
	plain, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errs.Wrap(errs.CodeDecryptionFailed, 500, "authentication tag did not verify", err)
	}
	return string(plain), nil
}

// IsEncrypted is a prefix test only — it does not validate the envelope.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// defaultMasterKeyBase64 is the embedded fallback used only when
// VAULT_MASTER_KEY and configserver.vault_master_key are both unset. It
// exists so the service still boots in a throwaway dev environment;
// LoadMasterKey logs a prominent warning whenever it is used (spec.md §4.2).
const defaultMasterKeyBase64 = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=" // base64("0123456789abcdef0123456789abcdef")

// LoadMasterKey resolves the 32-byte master key from a base64 string,
// falling back to the embedded default and logging a warning when no
// override was supplied.
func LoadMasterKey(base64Key string, log *zap.Logger) ([]byte, error) {
	usingDefault := base64Key == ""
	if usingDefault {
		base64Key = defaultMasterKeyBase64
	}

	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, errs.Wrap(errs.CodeKeyLoadFailed, 500, "master key is not valid base64", err)
	}
	if len(key) != keyLen {
		return nil, errs.New(errs.CodeKeyLoadFailed, 500, "decoded master key must be exactly 32 bytes")
	}

	if usingDefault {
		log.Warn("using the embedded default vault master key; set VAULT_MASTER_KEY before handling real secrets")
	}
	return key, nil
}
