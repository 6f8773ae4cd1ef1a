package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	key := make([]byte, keyLen)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	c, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := testCipher(t)

	plaintext := "s3cret-value"
	enc, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.HasPrefix(enc, Prefix) {
		t.Fatalf("encrypted value missing prefix: %q", enc)
	}

	got, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != plaintext {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestEncryptFreshNoncePerCall(t *testing.T) {
	c := testCipher(t)

	a, err := c.Encrypt("same-plaintext")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := c.Encrypt("same-plaintext")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct ciphertexts for successive calls, got identical values")
	}
}

func TestEncryptRejectsEmptyOrWhitespace(t *testing.T) {
	c := testCipher(t)

	for _, in := range []string{"", "   ", "\t\n"} {
		if _, err := c.Encrypt(in); err == nil {
			t.Fatalf("expected error encrypting %q", in)
		}
	}
}

func TestDecryptPlaintextPassthrough(t *testing.T) {
	c := testCipher(t)

	got, err := c.Decrypt("not-encrypted")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "not-encrypted" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestDecryptRejectsTamperedEnvelope(t *testing.T) {
	c := testCipher(t)

	enc, err := c.Encrypt("tamper-me")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(enc, Prefix))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF // flip a tag bit
	tampered := Prefix + base64.StdEncoding.EncodeToString(raw)

	if _, err := c.Decrypt(tampered); err == nil {
		t.Fatalf("expected tag verification failure")
	}
}

func TestIsEncrypted(t *testing.T) {
	if !IsEncrypted("VAULT:abc") {
		t.Fatalf("expected true for prefixed value")
	}
	if IsEncrypted("abc") {
		t.Fatalf("expected false for unprefixed value")
	}
}
