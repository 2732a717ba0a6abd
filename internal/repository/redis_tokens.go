package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atinyakov/carebook/internal/models"
)

// RedisTokenRepository keeps session tokens in Redis. Expiry is delegated
// to the key TTL, so no cleaner is needed.
type RedisTokenRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenRepository creates a Redis-backed token repository.
func NewRedisTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, prefix: "carebook:token:"}
}

type redisToken struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *RedisTokenRepository) key(value string) string {
	return r.prefix + value
}

func (r *RedisTokenRepository) SaveToken(ctx context.Context, t models.Token) error {
	if t.Value == "" || t.UserID == "" {
		return errors.New("token: missing value or user id")
	}
	ttl := time.Until(t.ExpiresAt)
	if ttl <= 0 {
		return errors.New("token: expires_at must be in the future")
	}
	data, err := json.Marshal(redisToken{UserID: t.UserID, ExpiresAt: t.ExpiresAt})
	if err != nil {
		return fmt.Errorf("token: failed to marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(t.Value), data, ttl).Err()
}

func (r *RedisTokenRepository) LookupToken(ctx context.Context, value string) (*models.Token, error) {
	val, err := r.client.Get(ctx, r.key(value)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rt redisToken
	if err := json.Unmarshal([]byte(val), &rt); err != nil {
		return nil, fmt.Errorf("token: failed to unmarshal: %w", err)
	}
	return &models.Token{Value: value, UserID: rt.UserID, ExpiresAt: rt.ExpiresAt}, nil
}

func (r *RedisTokenRepository) DeleteToken(ctx context.Context, value string) error {
	return r.client.Del(ctx, r.key(value)).Err()
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
