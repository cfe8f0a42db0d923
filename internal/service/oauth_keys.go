package service

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wavelink/authcore/pkg/httpclient"
	"github.com/wavelink/authcore/pkg/logger"
)

// jwksKey is a single RSA entry of a provider's published key set.
type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

// JWKSCache fetches and caches a provider's signing keys. Providers rotate
// keys rarely, so entries are reused for the refresh interval and refetched
// once on an unknown kid.
type JWKSCache struct {
	url     string
	refresh time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewJWKSCache(url string) *JWKSCache {
	return &JWKSCache{
		url:     url,
		refresh: time.Hour,
		keys:    make(map[string]*rsa.PublicKey),
	}
}

func (c *JWKSCache) fetch(ctx context.Context) error {
	body, status, err := httpclient.DoWithRetry(ctx, httpclient.RequestConfig{
		Method:     "GET",
		URL:        c.url,
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		return err
	}
	if status != 200 {
		return fmt.Errorf("jwks endpoint returned status %d", status)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decoding jwks document: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			logger.WarnWithContext(ctx, "Skipping malformed jwks entry").
				String("kid", k.Kid).
				Err(err).
				Log()
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks document at %s contained no usable RSA keys", c.url)
	}

	c.keys = keys
	c.fetchedAt = time.Now()
	return nil
}

// Key resolves a kid to its public key, refetching the set when the kid is
// unknown or the cache is stale.
func (c *JWKSCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pub, ok := c.keys[kid]; ok && time.Since(c.fetchedAt) < c.refresh {
		return pub, nil
	}
	if err := c.fetch(ctx); err != nil {
		// Keep serving a known key on refresh failure rather than
		// rejecting every sign-in during a provider outage.
		if pub, ok := c.keys[kid]; ok {
			return pub, nil
		}
		return nil, err
	}
	pub, ok := c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return pub, nil
}

// Keyfunc adapts the cache to jwt's verification callback.
func (c *JWKSCache) Keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header carries no kid")
		}
		return c.Key(ctx, kid)
	}
}

// rsaKeyFromJWK rebuilds the public key from the base64url modulus and
// exponent of a JWK entry.
func rsaKeyFromJWK(k jwksKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, fmt.Errorf("non-positive exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
