package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/angelmondragon/practicerx-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

const tokenBytes = 32

type tokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type tokenKeyer interface {
	CSRFKey(userID string) string
}

// Validator checks a submitted CSRF token for a user.
type Validator interface {
	Validate(ctx context.Context, userID, token string) (bool, error)
}

// Manager issues per-user CSRF tokens and validates submissions against them.
type Manager struct {
	store tokenStore
	keyer tokenKeyer
	ttl   time.Duration
}

// NewManager constructs a CSRF manager backed by Redis.
func NewManager(client *redisclient.Client, ttl time.Duration) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("csrf ttl must be positive")
	}
	return &Manager{store: client, keyer: client, ttl: ttl}, nil
}

// Issue generates a fresh token for userID, replacing any previous one.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.CSRFKey(userID), token, m.ttl); err != nil {
		return "", fmt.Errorf("store csrf token: %w", err)
	}
	return token, nil
}

// Validate reports whether token matches the one issued to userID.
func (m *Manager) Validate(ctx context.Context, userID, token string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(token) == "" {
		return false, nil
	}
	stored, err := m.store.Get(ctx, m.keyer.CSRFKey(userID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("read csrf token: %w", err)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}

func generateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
