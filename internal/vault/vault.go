package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidKey         = errors.New("invalid_encryption_key")
	ErrCorruptCiphertext  = errors.New("corrupt_ciphertext")
	ErrEmptyPlaintext     = errors.New("empty_plaintext")
	ErrDecryptionFailed   = errors.New("decryption_failed")
	ErrInvalidCredentials = errors.New("invalid_credentials_payload")
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// Vault encrypts and decrypts stored provider credentials with
// AES-256-GCM. Ciphertexts are serialized as three colon-joined hex
// segments: nonce, auth tag, payload.
type Vault struct {
	aead cipher.AEAD
}

// New validates the base64-encoded 256-bit key and constructs the vault.
// Key problems surface here, at startup, rather than on first use.
func New(encodedKey string) (*Vault, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidKey)
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64", ErrInvalidKey)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	payload := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(payload),
	}, ":"), nil
}

// Decrypt opens a serialized ciphertext. Any structural problem or
// authentication failure yields ErrCorruptCiphertext / ErrDecryptionFailed
// without revealing which segment was wrong.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 {
		return "", ErrCorruptCiphertext
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", ErrCorruptCiphertext
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", ErrCorruptCiphertext
	}
	payload, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrCorruptCiphertext
	}

	sealed := append(payload, tag...)
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// EncryptCredentials serializes a credential map to JSON and seals it.
func (v *Vault) EncryptCredentials(creds map[string]string) (string, error) {
	if len(creds) == 0 {
		return "", ErrInvalidCredentials
	}

	b, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return v.Encrypt(string(b))
}

// DecryptCredentials opens a sealed credential map.
func (v *Vault) DecryptCredentials(ciphertext string) (map[string]string, error) {
	plaintext, err := v.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}

	var creds map[string]string
	if err := json.Unmarshal([]byte(plaintext), &creds); err != nil {
		return nil, ErrInvalidCredentials
	}
	return creds, nil
}
