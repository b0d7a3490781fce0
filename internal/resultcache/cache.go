// Package resultcache persists the self-test report between CLI runs,
// encrypted at rest with ChaCha20-Poly1305. Adapted from the pattern of
// encrypting a small Go value with gob before writing it to disk, keyed
// by a fingerprint derived with HKDF-SHA256.
package resultcache

import (
	"bytes"
	"crypto/hkdf"
	"crypto/rand"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	runtimecrypto "github.com/butterknife/butterknife/internal/runtime_crypto"
)

// DeriveKey derives a 32-byte ChaCha20-Poly1305 key from an arbitrary
// fingerprint (e.g. hostname + architecture), using HKDF-SHA256 with a
// fixed domain-separation info string so this key can never collide with
// a key derived for an unrelated purpose from the same fingerprint.
func DeriveKey(fingerprint []byte) ([]byte, error) {
	key, err := hkdf.Key(sha256.New, fingerprint, nil, "butterknife/resultcache:v1", 32)
	if err != nil {
		return nil, fmt.Errorf("resultcache: derive key: %w", err)
	}
	return key, nil
}

// Save gob-encodes value, encrypts it under key and writes it to path,
// creating parent directories as needed. The file format is
// [nonce][ciphertext+tag].
func Save(path string, key []byte, value any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("resultcache: encode: %w", err)
	}

	aead, err := runtimecrypto.NewAEAD(key)
	if err != nil {
		return fmt.Errorf("resultcache: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("resultcache: nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, buf.Bytes(), nil)

	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("resultcache: mkdir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("resultcache: write: %w", err)
	}
	return nil
}

// Load decrypts and gob-decodes the report at path into value. It
// returns an error if the file is missing, truncated, or fails
// authentication (tampered or wrong key).
func Load(path string, key []byte, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("resultcache: read: %w", err)
	}

	aead, err := runtimecrypto.NewAEAD(key)
	if err != nil {
		return fmt.Errorf("resultcache: %w", err)
	}
	if len(data) < aead.NonceSize() {
		return fmt.Errorf("resultcache: truncated cache file (%d bytes)", len(data))
	}
	nonce, sealed := data[:aead.NonceSize()], data[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return fmt.Errorf("resultcache: decrypt (tampered or wrong key): %w", err)
	}

	if err := gob.NewDecoder(bytes.NewReader(plaintext)).Decode(value); err != nil {
		return fmt.Errorf("resultcache: decode: %w", err)
	}
	return nil
}
