package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "nihongo:practice:"
	redisUpdateRetries = 5
)

var ErrSessionExists = errors.New("practice session already exists")

// RedisStore keeps sessions as JSON values with a sliding TTL. Updates use
// optimistic transactions so concurrent posts to one session do not lose writes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient dials addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now()
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode practice session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, redisKey(rec.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store practice session: %w", err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load practice session: %w", err)
	}
	return decodeRecord(raw)
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error) {
	key := redisKey(id)
	var out *Record

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			return err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now()
		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode practice session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err == nil {
			out = rec
		}
		return err
	}

	for range redisUpdateRetries {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update practice session %s: too much contention", id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKey(id)).Err()
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func decodeRecord(raw []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode practice session: %w", err)
	}
	if rec.State.Answers == nil {
		rec.State.Answers = map[int]string{}
	}
	if rec.State.Incorrect == nil {
		rec.State.Incorrect = map[int]bool{}
	}
	return &rec, nil
}
