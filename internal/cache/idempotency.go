package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/internal/model"
)

const pendingMarker = "pending"

// IdempotencyStore remembers checkout results by client and Idempotency-Key.
type IdempotencyStore struct {
	cache Cache
	ttl   time.Duration
}

// NewIdempotencyStore creates a store whose entries expire after ttl.
func NewIdempotencyStore(cache Cache, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{cache: cache, ttl: ttl}
}

func (s *IdempotencyStore) key(clientID int64, key string) string {
	return s.cache.GenerateKey("checkout", fmt.Sprintf("%d:%s", clientID, key))
}

// Begin claims key for clientID. When the key was already used it returns the
// stored result, or model.ErrCheckoutInProgress if that checkout has not
// finished. A nil result with a nil error means the caller owns the key.
func (s *IdempotencyStore) Begin(ctx context.Context, clientID int64, key string) (*model.CheckoutResult, error) {
	k := s.key(clientID, key)

	claimed, err := s.cache.SetNX(ctx, k, pendingMarker, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	raw, err := s.cache.Get(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	// An empty value means the key expired between SetNX and Get.
	if raw == pendingMarker || raw == "" {
		return nil, model.ErrCheckoutInProgress
	}

	var result model.CheckoutResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored checkout result: %w", err)
	}
	return &result, nil
}

// Complete stores the result of a finished checkout under key.
func (s *IdempotencyStore) Complete(ctx context.Context, clientID int64, key string, result *model.CheckoutResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode checkout result: %w", err)
	}
	if err := s.cache.Set(ctx, s.key(clientID, key), payload, s.ttl); err != nil {
		return fmt.Errorf("failed to store checkout result: %w", err)
	}
	return nil
}

// Release frees key after a failed checkout so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, clientID int64, key string) error {
	if err := s.cache.Delete(ctx, s.key(clientID, key)); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
