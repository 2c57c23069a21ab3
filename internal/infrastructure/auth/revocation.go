package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore invalidates every token of a user issued before a point in time.
// It is written when an account is deactivated or its role changes, so a token
// carrying the old role stops working before it expires.
type RevocationStore interface {
	// RevokeUser rejects the user's tokens issued up to now. ttl should cover the
	// longest token lifetime.
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsRevoked reports whether a token issued at issuedAt has been revoked
	IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// RedisRevocationStore keeps revocation timestamps in Redis so every instance sees them
type RedisRevocationStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRevocationStore creates a store on an existing Redis client
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{
		client:    client,
		keyPrefix: "gasdist:revoked:user:",
	}
}

// RevokeUser stores the current Unix time for the user
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+userID, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsRevoked compares issuedAt with the stored revocation time
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

// InMemoryRevocationStore is the single-instance fallback when Redis is disabled
type InMemoryRevocationStore struct {
	mu        sync.RWMutex
	revokedAt map[string]time.Time
	now       func() time.Time
}

// NewInMemoryRevocationStore creates an empty store
func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{
		revokedAt: make(map[string]time.Time),
		now:       time.Now,
	}
}

// RevokeUser records the revocation time. Entries are kept for the process lifetime.
func (s *InMemoryRevocationStore) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revokedAt[userID] = s.now()
	return nil
}

// IsRevoked reports whether issuedAt is at or before the user's revocation time
func (s *InMemoryRevocationStore) IsRevoked(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.revokedAt[userID]
	if !ok {
		return false, nil
	}
	return !issuedAt.After(at), nil
}

var _ RevocationStore = (*InMemoryRevocationStore)(nil)
