package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tweetapi/auth"
	"tweetapi/domain"
	"tweetapi/errs"
)

const keyPrefix = "session:"

// RedisService keeps sessions in redis, so every server process sees the same
// sessions. Keys are HMAC hashes of the tokens and expire with the session.
type RedisService struct {
	rdb  *redis.Client
	hmac auth.HMAC
	ttl  time.Duration
}

var _ domain.SessionService = &RedisService{}

// NewRedisClient connects to redis and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewRedisService returns a session service storing sessions in rdb.
func NewRedisService(rdb *redis.Client, hmacKey string, ttl time.Duration) *RedisService {
	return &RedisService{
		rdb:  rdb,
		hmac: auth.NewHMAC(hmacKey),
		ttl:  ttl,
	}
}

// Create makes a new session for the user and returns its token.
func (s *RedisService) Create(ctx context.Context, userID int) (string, error) {
	if userID <= 0 {
		return "", errs.UserIdInvalid
	}
	token, err := auth.MakeSessionToken()
	if err != nil {
		return "", fmt.Errorf("make session token: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(token), userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// UserID returns the ID of the user the token belongs to.
func (s *RedisService) UserID(ctx context.Context, token string) (int, error) {
	if n, err := auth.NBytes(token); err != nil || n < auth.SessionTokenBytes {
		return 0, errs.TokenInvalid
	}
	v, err := s.rdb.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, errs.Errorf(errs.ENOTFOUND, "The session does not exist or has expired.")
	}
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse session user id %q: %w", v, err)
	}
	return id, nil
}

// Delete destroys the session of the token.
func (s *RedisService) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisService) key(token string) string {
	return keyPrefix + s.hmac.Hash(token)
}
