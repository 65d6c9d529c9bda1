package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24

	// EnvKey — переменная окружения с ключом шифрования (base64, 32 байта).
	EnvKey = "ENCRYPTION_KEY"
)

// Ошибки шифрования.
var (
	ErrMissingKey = errors.New("encryption key is not set")
	ErrInvalidKey = errors.New("encryption key must be 32 bytes encoded in base64")
	ErrDecrypt    = errors.New("cannot decrypt value")
)

// Cipher шифрует значения секретных переменных.
//
// Формат хранения: base64(nonce || secretbox.Seal(value)).
// Пустая строка не шифруется.
type Cipher struct {
	key [keySize]byte
}

// NewCipher создаёт Cipher из ключа в base64.
func NewCipher(encodedKey string) (*Cipher, error) {
	if encodedKey == "" {
		return nil, ErrMissingKey
	}

	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil || len(raw) != keySize {
		return nil, ErrInvalidKey
	}

	c := &Cipher{}
	copy(c.key[:], raw)
	return c, nil
}

// NewCipherFromEnv создаёт Cipher из ENCRYPTION_KEY.
func NewCipherFromEnv() (*Cipher, error) {
	return NewCipher(os.Getenv(EnvKey))
}

// GenerateKey создаёт случайный ключ в base64.
func GenerateKey() (string, error) {
	var key [keySize]byte
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key[:]), nil
}

// Encrypt шифрует значение.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt расшифровывает значение, зашифрованное Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}
	return string(plain), nil
}
