package storage

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted objects carry a magic header so Get can tell them apart from
// plaintext uploads made before encryption was switched on.
var gcmMagic = []byte("GCM3NCR0")

const (
	gcmSaltLen  = 16
	gcmNonceLen = 12
	pbkdf2Iters = 100000
)

func isGCMEncrypted(data []byte) bool {
	return len(data) > len(gcmMagic) && bytes.Equal(data[:len(gcmMagic)], gcmMagic)
}

// encryptGCM seals data with AES-256-GCM under a PBKDF2-derived key.
// Layout: magic(8) + salt(16) + nonce(12) + ciphertext+tag.
func encryptGCM(data []byte, password string) ([]byte, error) {
	salt := make([]byte, gcmSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iters, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcmNonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, data, nil)

	out := make([]byte, 0, len(gcmMagic)+gcmSaltLen+gcmNonceLen+len(sealed))
	out = append(out, gcmMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// decryptGCM reverses encryptGCM.
func decryptGCM(data []byte, password string) ([]byte, error) {
	header := len(gcmMagic) + gcmSaltLen + gcmNonceLen
	if len(data) < header+16 {
		return nil, fmt.Errorf("encrypted data too short: %d bytes", len(data))
	}

	salt := data[len(gcmMagic) : len(gcmMagic)+gcmSaltLen]
	nonce := data[len(gcmMagic)+gcmSaltLen : header]
	sealed := data[header:]

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iters, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plaintext, nil
}
