// Package receipt issues and verifies verification receipts: portable,
// Ed25519-signed attestations that a document passed verification with a
// given verdict. A receipt binds to one exact result via a canonical digest,
// so the result cannot be swapped or edited under a valid signature.
package receipt

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeySet signs receipts with the active key and verifies receipts signed by
// any retained key, so rotation does not invalidate outstanding receipts.
type KeySet interface {
	Sign(claims jwt.Claims) (string, error)
	KeyFunc() jwt.Keyfunc
}

// retainedKeys bounds how many rotated-out keys stay verifiable.
const retainedKeys = 4

// InMemoryKeySet holds Ed25519 signing keys in memory.
type InMemoryKeySet struct {
	mu      sync.RWMutex
	current string
	order   []string
	keys    map[string]ed25519.PrivateKey
}

// NewInMemoryKeySet creates a key set with one freshly generated key.
func NewInMemoryKeySet() (*InMemoryKeySet, error) {
	ks := &InMemoryKeySet{keys: make(map[string]ed25519.PrivateKey)}
	if err := ks.Rotate(); err != nil {
		return nil, err
	}
	return ks, nil
}

// Rotate generates and activates a new key. Previous keys stay available
// for verification until they age out of retention.
func (ks *InMemoryKeySet) Rotate() error {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	kid := fmt.Sprintf("key-%d", time.Now().UnixNano())
	ks.keys[kid] = priv
	ks.order = append(ks.order, kid)
	ks.current = kid

	for len(ks.order) > retainedKeys {
		delete(ks.keys, ks.order[0])
		ks.order = ks.order[1:]
	}
	return nil
}

// Sign creates a signed token with the active key.
func (ks *InMemoryKeySet) Sign(claims jwt.Claims) (string, error) {
	ks.mu.RLock()
	kid := ks.current
	key := ks.keys[kid]
	ks.mu.RUnlock()

	if key == nil {
		return "", fmt.Errorf("no active signing key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	return token.SignedString(key)
}

// KeyFunc resolves the verification key from the token's kid header.
func (ks *InMemoryKeySet) KeyFunc() jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing kid in token header")
		}

		ks.mu.RLock()
		defer ks.mu.RUnlock()
		key, ok := ks.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown signing key %s", kid)
		}
		return key.Public(), nil
	}
}
