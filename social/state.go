package social

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// StateManager round-trips the OAuth state parameter. Implementations must
// reject anything they did not produce themselves.
type StateManager interface {
	Encode(state *OAuthState) (string, error)
	Decode(token string) (*OAuthState, error)
}

// OAuthState is the payload carried through the provider round-trip. The
// encoded form is opaque to the client: the PKCE verifier travels inside it
// and must never be readable or forgeable.
type OAuthState struct {
	Nonce        string `json:"n"`
	Provider     string `json:"p"`
	CodeVerifier string `json:"cv,omitempty"`
	RedirectURL  string `json:"r,omitempty"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// EncryptedStateManager seals states with AES-GCM and authenticates the
// sealed bytes with an HMAC-SHA256 tag, under two independent keys.
type EncryptedStateManager struct {
	encryptionKey []byte
	hmacKey       []byte
	ttl           time.Duration
}

// NewEncryptedStateManager creates a state manager. A zero ttl defaults to
// ten minutes, the window a user gets to finish the provider consent screen.
func NewEncryptedStateManager(encryptionKey, hmacKey []byte, ttl time.Duration) *EncryptedStateManager {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &EncryptedStateManager{
		encryptionKey: encryptionKey,
		hmacKey:       hmacKey,
		ttl:           ttl,
	}
}

// Encode stamps, seals, and signs the state. Missing lifecycle fields are
// filled in from the manager's ttl.
func (m *EncryptedStateManager) Encode(state *OAuthState) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	now := time.Now()
	if state.IssuedAt == 0 {
		state.IssuedAt = now.Unix()
	}
	if state.ExpiresAt == 0 {
		state.ExpiresAt = now.Add(m.ttl).Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}

	sealed, err := m.seal(payload)
	if err != nil {
		return "", err
	}

	signed := append(m.tag(sealed), sealed...)
	return base64.URLEncoding.EncodeToString(signed), nil
}

// Decode checks the signature, opens the sealed payload, and enforces
// expiry. Every tampered or foreign token maps to ErrInvalidState; only a
// genuine token past its window gets ErrStateExpired.
func (m *EncryptedStateManager) Decode(token string) (*OAuthState, error) {
	signed, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	if len(signed) < sha256.Size {
		return nil, ErrInvalidState
	}

	tag, sealed := signed[:sha256.Size], signed[sha256.Size:]
	if !hmac.Equal(tag, m.tag(sealed)) {
		return nil, ErrInvalidState
	}

	payload, err := m.open(sealed)
	if err != nil {
		return nil, err
	}

	var state OAuthState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	if time.Now().Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	return &state, nil
}

// seal encrypts the payload, prefixing the random GCM nonce.
func (m *EncryptedStateManager) seal(payload []byte) ([]byte, error) {
	gcm, err := m.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, payload, nil), nil
}

// open splits off the nonce prefix and decrypts the remainder.
func (m *EncryptedStateManager) open(sealed []byte) ([]byte, error) {
	gcm, err := m.aead()
	if err != nil {
		return nil, err
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, ErrInvalidState
	}

	nonce, encrypted := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	payload, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, ErrInvalidState
	}
	return payload, nil
}

func (m *EncryptedStateManager) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(m.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func (m *EncryptedStateManager) tag(sealed []byte) []byte {
	mac := hmac.New(sha256.New, m.hmacKey)
	mac.Write(sealed)
	return mac.Sum(nil)
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// generateCodeVerifier returns a fresh PKCE verifier.
func generateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// computeCodeChallenge derives the S256 challenge for a verifier.
func computeCodeChallenge(verifier string) string {
	h := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
