// internal/db/redis.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("[Redis] Connected to Redis")
	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
		log.Println("[Redis] Connection closed")
	}
}

// Session holds per-user sign-in state. Sessions are written at login
// with a TTL matching the maximum session age, so an expired key means
// the user must sign in again.
type Session struct {
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	SignedIn time.Time `json:"signedIn"`
}

func (r *RedisDB) SetSession(ctx context.Context, userID string, session *Session, maxAge time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, "session:"+userID, data, maxAge).Err()
}

func (r *RedisDB) GetSession(ctx context.Context, userID string) (*Session, error) {
	data, err := r.Client.Get(ctx, "session:"+userID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *RedisDB) DeleteSession(ctx context.Context, userID string) error {
	return r.Client.Del(ctx, "session:"+userID).Err()
}

// Password reset tokens
func (r *RedisDB) SetResetToken(ctx context.Context, token, userID string, expiration time.Duration) error {
	return r.Client.Set(ctx, "reset:"+token, userID, expiration).Err()
}

func (r *RedisDB) GetResetToken(ctx context.Context, token string) (string, error) {
	userID, err := r.Client.Get(ctx, "reset:"+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	return userID, err
}

func (r *RedisDB) DeleteResetToken(ctx context.Context, token string) error {
	return r.Client.Del(ctx, "reset:"+token).Err()
}

// Cache methods
func (r *RedisDB) SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, "cache:"+key, data, expiration).Err()
}

func (r *RedisDB) GetCache(ctx context.Context, key string, dest interface{}) error {
	data, err := r.Client.Get(ctx, "cache:"+key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisDB) InvalidateCache(ctx context.Context, pattern string) error {
	keys, err := r.Client.Keys(ctx, "cache:"+pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return r.Client.Del(ctx, keys...).Err()
	}
	return nil
}
