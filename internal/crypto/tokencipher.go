// Package crypto provides at-rest encryption for stored OAuth refresh
// tokens using PBKDF2 key derivation and AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// saltLen is the random salt length in bytes.
	saltLen = 16
	// aesKeyLen is the derived AES-256 key length.
	aesKeyLen = 32
	// blobPrefix marks an encrypted value; values without it are treated as
	// plaintext (tokens stored before encryption was enabled).
	blobPrefix = "enc1:"
)

// encryptedBlobJSON is the serialized form of an encrypted token.
type encryptedBlobJSON struct {
	Salt       string `json:"salt"`       // base64 standard encoding
	Nonce      string `json:"nonce"`      // base64 standard encoding
	Ciphertext string `json:"ciphertext"` // base64 standard encoding
}

// TokenCipher encrypts and decrypts token strings with a key derived from a
// master secret. A fresh random salt is used per encryption, so the derived
// key differs per value.
type TokenCipher struct {
	secret []byte
}

// NewTokenCipher creates a TokenCipher from the master secret.
func NewTokenCipher(secret string) (*TokenCipher, error) {
	if secret == "" {
		return nil, errors.New("crypto: token secret must not be empty")
	}
	return &TokenCipher{secret: []byte(secret)}, nil
}

// Encrypt seals plaintext and returns a prefixed, base64-encoded blob
// suitable for a text column.
func (tc *TokenCipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: generating salt: %w", err)
	}

	gcm, err := tc.gcm(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	blob, err := json.Marshal(encryptedBlobJSON{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("crypto: marshal blob: %w", err)
	}

	return blobPrefix + base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt opens a blob produced by Encrypt. Values without the encryption
// prefix are returned unchanged.
func (tc *TokenCipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, blobPrefix) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, blobPrefix))
	if err != nil {
		return "", fmt.Errorf("crypto: decode blob: %w", err)
	}

	var blob encryptedBlobJSON
	if err := json.Unmarshal(raw, &blob); err != nil {
		return "", fmt.Errorf("crypto: unmarshal blob: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(blob.Salt)
	if err != nil {
		return "", fmt.Errorf("crypto: decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(blob.Nonce)
	if err != nil {
		return "", fmt.Errorf("crypto: decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(blob.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("crypto: decode ciphertext: %w", err)
	}

	gcm, err := tc.gcm(salt)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errors.New("crypto: invalid nonce length")
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: decrypt: %w", err)
	}
	return string(plaintext), nil
}

// gcm derives the AES key for the given salt and builds the AEAD.
func (tc *TokenCipher) gcm(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(tc.secret, salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: creating GCM: %w", err)
	}
	return gcm, nil
}
