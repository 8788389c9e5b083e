package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/internal/model"
)

// SessionStore keeps bearer tokens and the identity they resolve to.
type SessionStore struct {
	cache Cache
	ttl   time.Duration
}

// NewSessionStore creates a session store whose entries expire after ttl.
func NewSessionStore(cache Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

// TTL is the lifetime of a newly saved session.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Save stores the identity under token.
func (s *SessionStore) Save(ctx context.Context, token string, identity *model.Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.cache.Set(ctx, s.cache.GenerateKey("session", token), payload, s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the identity behind token, or nil when the token is unknown or expired.
func (s *SessionStore) Load(ctx context.Context, token string) (*model.Identity, error) {
	raw, err := s.cache.Get(ctx, s.cache.GenerateKey("session", token))
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &identity, nil
}

// Delete revokes token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.cache.Delete(ctx, s.cache.GenerateKey("session", token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
