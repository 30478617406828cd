package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"

	"atlantic-photo/internal/model"
)

const keyPrefix = "atlanticphoto:identity:"

// NewRedisClient connects to addr and verifies the connection with a PING.
func NewRedisClient(ctx context.Context, addr string, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	slog.Info("redis connected", "addr", addr, "db", db)
	return client, nil
}

// Redis stores CBOR-encoded identity snapshots with a per-key expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	enc    cbor.EncMode
}

func NewRedis(client *redis.Client, ttl time.Duration) (*Redis, error) {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor enc mode: %w", err)
	}
	return &Redis{client: client, ttl: ttl, enc: enc}, nil
}

func (r *Redis) Get(ctx context.Context, subject string) (model.User, bool, error) {
	raw, err := r.client.Get(ctx, keyPrefix+normalizeSubject(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("redis get identity: %w", err)
	}

	var user model.User
	if err := cbor.Unmarshal(raw, &user); err != nil {
		return model.User{}, false, fmt.Errorf("decode identity: %w", err)
	}
	return user, true, nil
}

func (r *Redis) Put(ctx context.Context, subject string, user model.User) error {
	raw, err := r.enc.Marshal(snapshot(user))
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	if err := r.client.SetEx(ctx, keyPrefix+normalizeSubject(subject), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set identity: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, subject string) error {
	if err := r.client.Del(ctx, keyPrefix+normalizeSubject(subject)).Err(); err != nil {
		return fmt.Errorf("redis delete identity: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
