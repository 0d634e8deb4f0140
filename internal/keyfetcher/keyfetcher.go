package keyfetcher

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

type PublicKeyFetcher interface {
	FetchPublicKey() (*rsa.PublicKey, error)
}

type PrivateKeyFetcher interface {
	FetchPrivateKey() (*rsa.PrivateKey, error)
}

// From is a type definition for a function that returns PEM encoded key bytes and an error.
type From func() ([]byte, error)

// FetchPublicKey parses the loaded key as an RSA public key.
func (f From) FetchPublicKey() (*rsa.PublicKey, error) {
	keyBytes, err := f()
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPublicKeyFromPEM(keyBytes)
}

// FetchPrivateKey parses the loaded key as an RSA private key.
func (f From) FetchPrivateKey() (*rsa.PrivateKey, error) {
	keyBytes, err := f()
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
}

// FromBase64Env reads the Base64 encoded PEM value of the given environment variable.
func FromBase64Env(key string) From {
	return func() ([]byte, error) {
		keyBase64 := os.Getenv(key)
		if keyBase64 == "" {
			return nil, errors.New("key is not found")
		}

		return base64.StdEncoding.DecodeString(keyBase64)
	}
}

// FromFile reads a PEM encoded key from path.
func FromFile(path string) From {
	return func() ([]byte, error) {
		keyBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}

		return keyBytes, nil
	}
}

// Cached parses keys from f at most once per key type. Failed loads are not cached.
type Cached struct {
	from From

	mu         sync.Mutex
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey
}

// NewCached wraps f so that parsed keys are reused across requests.
func NewCached(f From) *Cached {
	return &Cached{from: f}
}

// FetchPublicKey returns the cached public key, loading it on first use.
func (c *Cached) FetchPublicKey() (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.publicKey == nil {
		key, err := c.from.FetchPublicKey()
		if err != nil {
			return nil, err
		}
		c.publicKey = key
	}

	return c.publicKey, nil
}

// FetchPrivateKey returns the cached private key, loading it on first use.
func (c *Cached) FetchPrivateKey() (*rsa.PrivateKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.privateKey == nil {
		key, err := c.from.FetchPrivateKey()
		if err != nil {
			return nil, err
		}
		c.privateKey = key
	}

	return c.privateKey, nil
}
