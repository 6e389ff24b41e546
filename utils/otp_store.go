// utils/otp_store.go
package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const otpTTL = 5 * time.Minute

// OTPStore holds verification codes and staged signup forms in redis. Both
// expire after five minutes.
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(redisURL string) (*OTPStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return &OTPStore{client: client}, nil
}

func (s *OTPStore) Close() error {
	return s.client.Close()
}

func (s *OTPStore) SaveCode(ctx context.Context, mobile, code string) error {
	return s.client.Set(ctx, "otp:"+mobile, code, otpTTL).Err()
}

// VerifyCode reports whether code matches the stored OTP for mobile. A match
// consumes the code.
func (s *OTPStore) VerifyCode(ctx context.Context, mobile, code string) (bool, error) {
	stored, err := s.client.Get(ctx, "otp:"+mobile).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	if err := s.client.Del(ctx, "otp:"+mobile).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *OTPStore) SavePendingSignup(ctx context.Context, mobile, blob string) error {
	return s.client.Set(ctx, "signup:"+mobile, blob, otpTTL).Err()
}

func (s *OTPStore) GetPendingSignup(ctx context.Context, mobile string) (string, error) {
	blob, err := s.client.Get(ctx, "signup:"+mobile).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return blob, err
}

func (s *OTPStore) DeletePendingSignup(ctx context.Context, mobile string) error {
	return s.client.Del(ctx, "signup:"+mobile).Err()
}
