package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidCiphertext is returned when a stored ciphertext cannot be opened.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Encryptor encrypts short identity strings with AES-256-GCM. The key is
// derived from the configured secret, so key rotation is a config change plus
// a re-encryption pass.
type Encryptor struct {
	key [32]byte
}

// NewEncryptor derives an encryptor from a configured secret.
func NewEncryptor(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is empty")
	}
	return &Encryptor{key: sha256.Sum256([]byte(secret))}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (e *Encryptor) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to build GCM: %w", err)
	}

	if len(sealed) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	return string(plaintext), nil
}

var residentIDPattern = regexp.MustCompile(`^\d{6}-?\d{7}$`)

// MaskResidentID reduces a 13-digit resident registration number to its
// public form: birth date plus masked tail. Only this form is ever stored on
// the profile row.
func MaskResidentID(residentID string) (string, error) {
	trimmed := strings.TrimSpace(residentID)
	if !residentIDPattern.MatchString(trimmed) {
		return "", errors.New("resident ID must be 13 digits")
	}

	digits := strings.ReplaceAll(trimmed, "-", "")
	return digits[:6] + "-*******", nil
}
