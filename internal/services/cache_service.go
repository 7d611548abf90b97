// internal/services/cache_service.go
// Cache service for Redis operations

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CacheService handles all caching operations
type CacheService struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(client *redis.Client, logger *logrus.Logger) *CacheService {
	return &CacheService{
		client: client,
		logger: logger,
	}
}

// Set stores a value in cache with expiration
func (s *CacheService) Set(key string, value interface{}, expiration time.Duration) error {
	ctx := context.Background()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Get retrieves a value from cache
func (s *CacheService) Get(key string, dest interface{}) error {
	ctx := context.Background()

	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return fmt.Errorf("key not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

// Delete removes a key from cache
func (s *CacheService) Delete(key string) error {
	ctx := context.Background()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}

	return nil
}

// Increment increments a counter in cache
func (s *CacheService) Increment(key string, expiration time.Duration) (int, error) {
	ctx := context.Background()

	// Use pipeline for atomic operation
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiration)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to increment: %w", err)
	}

	return int(incr.Val()), nil
}

// InvalidateVersion drops every cached read derived from a schedule version
// plus the tournament-level plan report.
func (s *CacheService) InvalidateVersion(tournamentID, versionID string) {
	keys := []string{
		fmt.Sprintf("plan_report_%s", tournamentID),
		fmt.Sprintf("grid_%s_%s", tournamentID, versionID),
		fmt.Sprintf("conflicts_%s_%s", tournamentID, versionID),
		fmt.Sprintf("tournament_%s", tournamentID),
	}
	for _, key := range keys {
		if err := s.Delete(key); err != nil {
			s.logger.Warnf("Failed to invalidate cache key %s: %v", key, err)
		}
	}
}

// Ping checks if cache is available
func (s *CacheService) Ping() error {
	ctx := context.Background()
	return s.client.Ping(ctx).Err()
}
