package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwksServer(t *testing.T, keys map[string]*rsa.PublicKey, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		doc := jwksDocument{}
		for kid, pub := range keys {
			doc.Keys = append(doc.Keys, jwksKey{
				Kty: "RSA",
				Kid: kid,
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x01}),
			})
		}
		json.NewEncoder(w).Encode(doc)
	}))
}

func TestJWKSCacheResolvesKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}, nil)
	defer server.Close()

	cache := NewJWKSCache(server.URL)
	pub, err := cache.Key(context.Background(), "kid-1")
	require.NoError(t, err)
	assert.Zero(t, pub.N.Cmp(key.PublicKey.N))
	assert.Equal(t, key.PublicKey.E, pub.E)
}

func TestJWKSCacheUnknownKid(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}, nil)
	defer server.Close()

	cache := NewJWKSCache(server.URL)
	_, err = cache.Key(context.Background(), "kid-missing")
	assert.Error(t, err)
}

func TestJWKSCacheReusesFetchedKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits atomic.Int32
	server := jwksServer(t, map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}, &hits)
	defer server.Close()

	cache := NewJWKSCache(server.URL)
	for i := 0; i < 3; i++ {
		_, err := cache.Key(context.Background(), "kid-1")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, hits.Load(), "a warm cache must not refetch per lookup")
}

func TestJWKSCacheServesStaleOnOutage(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}, nil)

	cache := NewJWKSCache(server.URL)
	_, err = cache.Key(context.Background(), "kid-1")
	require.NoError(t, err)

	// Force the next lookup through a refetch against a dead endpoint.
	server.Close()
	cache.refresh = 0

	pub, err := cache.Key(context.Background(), "kid-1")
	require.NoError(t, err)
	assert.NotNil(t, pub)
}

func TestRSAKeyFromJWKRejectsGarbage(t *testing.T) {
	_, err := rsaKeyFromJWK(jwksKey{Kty: "RSA", Kid: "bad", N: "!!!", E: "AQAB"})
	assert.Error(t, err)

	_, err = rsaKeyFromJWK(jwksKey{Kty: "RSA", Kid: "bad", N: "AQAB", E: ""})
	assert.Error(t, err)
}
