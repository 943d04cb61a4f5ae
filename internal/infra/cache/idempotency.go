package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// StoredResponse é a primeira resposta dada a uma chave de idempotência.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type IdempotencyStore interface {
	// Begin reserva a chave. Quando já existe, devolve a resposta gravada ou
	// inFlight=true se a primeira requisição ainda não terminou.
	Begin(ctx context.Context, key string, ttl time.Duration) (cached *StoredResponse, inFlight bool, err error)
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

const pendingMarker = "pending"

type RedisIdempotencyStore struct {
	rdb *redis.Client
}

var _ IdempotencyStore = (*RedisIdempotencyStore)(nil)

func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func NewRedisIdempotencyStore(rdb *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb}
}

func (s *RedisIdempotencyStore) Begin(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (*StoredResponse, bool, error) {

	ok, err := s.rdb.SetNX(ctx, key, pendingMarker, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, false, nil
	}

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expirou entre o SETNX e o GET; trata como em andamento
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if string(raw) == pendingMarker {
		return nil, true, nil
	}

	var resp StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, err
	}
	return &resp, false, nil
}

func (s *RedisIdempotencyStore) Save(
	ctx context.Context,
	key string,
	resp StoredResponse,
	ttl time.Duration,
) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
