package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnvSecretKey names the variable holding the key for sealed config values.
const EnvSecretKey = "AGENTBRIDGE_SECRET_KEY"

const sealedPrefix = "aes-gcm:"

// SealSecret encrypts value with AES-256-GCM for storage in the config file.
// The result is "aes-gcm:" + base64(nonce + ciphertext + tag).
func SealSecret(value, key string) (string, error) {
	if value == "" {
		return "", nil
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(value), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenSecret reverses SealSecret. Values without the prefix are plain text
// and returned unchanged.
func OpenSecret(value, key string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if key == "" {
		return "", fmt.Errorf("sealed value found but %s is not set", EnvSecretKey)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(data) < gcm.NonceSize() {
		return "", errors.New("sealed value is malformed")
	}
	n := gcm.NonceSize()
	plain, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", errors.New("unseal failed: invalid key or corrupted data")
	}
	return string(plain), nil
}

// IsSealed reports whether value was produced by SealSecret.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

func newGCM(key string) (cipher.AEAD, error) {
	kb, err := parseSecretKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(kb)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// parseSecretKey accepts a 32-byte key as 64 hex chars, 44 base64 chars or
// 32 raw bytes.
func parseSecretKey(input string) ([]byte, error) {
	if len(input) == 64 {
		if b, err := hex.DecodeString(input); err == nil {
			return b, nil
		}
	}
	if len(input) == 44 && strings.HasSuffix(input, "=") {
		if b, err := base64.StdEncoding.DecodeString(input); err == nil && len(b) == 32 {
			return b, nil
		}
	}
	if len(input) == 32 {
		return []byte(input), nil
	}
	return nil, errors.New("secret key must be 32 bytes (hex-encoded 64 chars, base64 44 chars, or raw 32 bytes)")
}

// openSecrets unseals every secret field in place.
func (c *Config) openSecrets() error {
	key := os.Getenv(EnvSecretKey)
	fields := []*string{
		&c.AWS.SecretAccessKey,
		&c.AWS.SessionToken,
		&c.ActionGroups.SerpAPIKey,
		&c.Server.Token,
	}
	for _, f := range fields {
		v, err := OpenSecret(*f, key)
		if err != nil {
			return err
		}
		*f = v
	}
	for k, v := range c.Telemetry.Headers {
		plain, err := OpenSecret(v, key)
		if err != nil {
			return fmt.Errorf("telemetry header %s: %w", k, err)
		}
		c.Telemetry.Headers[k] = plain
	}
	return nil
}
