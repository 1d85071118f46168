package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps staged bookings and revoked sessions in Redis.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to redisURL and verifies the connection.
// Staged bookings expire after ttl unless they have been charged.
func NewRedisSessionStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisSessionStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

func stagedBookingKey(sessionID string) string {
	return fmt.Sprintf("session:%s:staged_booking", sessionID)
}

func revokedSessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:revoked", sessionID)
}

func (s *RedisSessionStore) StageBooking(ctx context.Context, sessionID string, booking *models.StagedBooking) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if booking.IsCharged() {
		ttl = 0
	}
	return s.client.Set(ctx, stagedBookingKey(sessionID), data, ttl).Err()
}

func (s *RedisSessionStore) StagedBooking(ctx context.Context, sessionID string) (*models.StagedBooking, error) {
	data, err := s.client.Get(ctx, stagedBookingKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var booking models.StagedBooking
	if err := json.Unmarshal(data, &booking); err != nil {
		return nil, fmt.Errorf("corrupt staged booking for session %s: %w", sessionID, err)
	}
	return &booking, nil
}

func (s *RedisSessionStore) ClearStagedBooking(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, stagedBookingKey(sessionID)).Err()
}

func (s *RedisSessionStore) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedSessionKey(sessionID), "1", ttl).Err()
}

func (s *RedisSessionStore) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedSessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
