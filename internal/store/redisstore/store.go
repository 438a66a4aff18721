package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	captchaTTL = 10 * time.Minute

	// onlineTTL bounds how stale the cross-instance presence mirror can be;
	// connections refresh it on a heartbeat.
	onlineTTL = 90 * time.Second
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.rdb.Close() }

func captchaKey(email string) string { return "captcha:" + email }

func (s *Store) SetCaptcha(ctx context.Context, email, code string) error {
	return s.rdb.Set(ctx, captchaKey(email), code, captchaTTL).Err()
}

func (s *Store) GetCaptcha(ctx context.Context, email string) (string, error) {
	return s.rdb.Get(ctx, captchaKey(email)).Result()
}

func (s *Store) DeleteCaptcha(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, captchaKey(email)).Err()
}

func onlineKey(userID uint64) string { return fmt.Sprintf("online:%d", userID) }

// SetOnline mirrors local presence into Redis so other instances can answer
// isOnline without owning the connection. Advisory only, never used for
// access control.
func (s *Store) SetOnline(ctx context.Context, userID uint64) error {
	return s.rdb.Set(ctx, onlineKey(userID), 1, onlineTTL).Err()
}

func (s *Store) SetOffline(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, onlineKey(userID)).Err()
}

func (s *Store) IsOnline(ctx context.Context, userID uint64) (bool, error) {
	n, err := s.rdb.Exists(ctx, onlineKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
