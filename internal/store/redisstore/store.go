// Package redisstore holds short-lived OTP state in Redis.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPTTL bounds how long a delivered code stays valid.
const OTPTTL = 2 * time.Minute

type Store struct {
	client *redis.Client
}

func NewStore(addr, password string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func otpKey(phone string) string { return "otp:" + phone }

// SetOTP stores the hashed code for a phone, replacing any previous one.
func (s *Store) SetOTP(ctx context.Context, phone, codeHash string) error {
	return s.client.Set(ctx, otpKey(phone), codeHash, OTPTTL).Err()
}

// GetOTP returns the stored hash or redis.Nil when expired/absent.
func (s *Store) GetOTP(ctx context.Context, phone string) (string, error) {
	return s.client.Get(ctx, otpKey(phone)).Result()
}

// DeleteOTP consumes the code so it cannot be replayed.
func (s *Store) DeleteOTP(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKey(phone)).Err()
}

func (s *Store) Close() error { return s.client.Close() }
