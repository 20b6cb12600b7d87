package cartstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storefront/backend/internal/domain/checkout"
)

// defaultKeyPrefix namespaces cart keys in the shared Redis instance
const defaultKeyPrefix = "cart:"

// cartTTL bounds how long an untouched cart survives
const cartTTL = 7 * 24 * time.Hour

// RedisStore implements the cart collaborator on Redis
// This is suitable for distributed deployments where multiple instances
// serve the same storefront sessions
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStore creates a Redis-backed cart store
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Items loads the cart's line items; a missing cart is an empty cart
func (s *RedisStore) Items(ctx context.Context, cartID uuid.UUID) ([]checkout.LineItem, error) {
	raw, err := s.client.Get(ctx, s.key(cartID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var items []checkout.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

// SetItems replaces the cart's line items
func (s *RedisStore) SetItems(ctx context.Context, cartID uuid.UUID, items []checkout.LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.key(cartID), raw, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to store cart: %w", err)
	}
	return nil
}

// Clear removes the cart entirely
func (s *RedisStore) Clear(ctx context.Context, cartID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(cartID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(cartID uuid.UUID) string {
	return s.keyPrefix + cartID.String()
}

// Ensure RedisStore implements the cart collaborator port
var _ checkout.CartStore = (*RedisStore)(nil)
