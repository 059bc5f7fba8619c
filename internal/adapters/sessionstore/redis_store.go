package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session under "<prefix>:token" and "<prefix>:user".
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisStore(rdb redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "ratlogger:" + namespace}
}

func (s *RedisStore) key(k string) string { return s.prefix + ":" + k }

func (s *RedisStore) Load(ctx context.Context) (_ domain.Session, err error) {
	defer obs.Time(ctx, "session.store.redis.Load")(&err)

	vals, err := s.rdb.MGet(ctx, s.key(keyToken), s.key(keyUser)).Result()
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: redis mget: %w", err)
	}

	str := func(v any) string {
		s, _ := v.(string)
		return s
	}
	return decodeSession(ctx, str(vals[0]), str(vals[1])), nil
}

func (s *RedisStore) Save(ctx context.Context, sess domain.Session) (err error) {
	defer obs.Time(ctx, "session.store.redis.Save")(&err)

	if sess.Token == "" {
		return s.Clear(ctx)
	}

	var userJSON string
	if sess.User != nil {
		if userJSON, err = encodeUser(sess.User); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyToken), sess.Token, 0)
		if userJSON != "" {
			pipe.Set(ctx, s.key(keyUser), userJSON, 0)
		} else {
			pipe.Del(ctx, s.key(keyUser))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: redis pipeline: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) (err error) {
	defer obs.Time(ctx, "session.store.redis.Clear")(&err)

	if err := s.rdb.Del(ctx, s.key(keyToken), s.key(keyUser)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("clear session: redis del: %w", err)
	}
	return nil
}
