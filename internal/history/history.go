package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisChatLogKeyPrefix = "chatlog:"

	DefaultMaxLen = 500
	DefaultReplay = 100
)

var ErrInvalidBound = errors.New("history bound must be positive")

// Store is the bounded per-room log. Entries come back oldest first.
type Store interface {
	Append(ctx context.Context, room, entry string) error
	Trim(ctx context.Context, room string, maxLen int) error
	AppendTrimmed(ctx context.Context, room, entry string, maxLen int) error
	Recent(ctx context.Context, room string, n int) ([]string, error)
}

type redisStore struct {
	rdc *redis.Client
}

var _ Store = (*redisStore)(nil)

func NewRedisStore(rdc *redis.Client) Store {
	return &redisStore{rdc: rdc}
}

func key(room string) string { return redisChatLogKeyPrefix + room }

func (s *redisStore) Append(ctx context.Context, room, entry string) error {
	if err := s.rdc.RPush(ctx, key(room), entry).Err(); err != nil {
		return fmt.Errorf("history append %s: %w", room, err)
	}
	return nil
}

// Trim drops entries from the head until at most maxLen remain.
func (s *redisStore) Trim(ctx context.Context, room string, maxLen int) error {
	if maxLen <= 0 {
		return ErrInvalidBound
	}
	if err := s.rdc.LTrim(ctx, key(room), int64(-maxLen), -1).Err(); err != nil {
		return fmt.Errorf("history trim %s: %w", room, err)
	}
	return nil
}

// AppendTrimmed runs RPUSH and LTRIM inside one MULTI/EXEC so a trim can never
// overtake the append it belongs to, whoever else is writing the same key.
func (s *redisStore) AppendTrimmed(ctx context.Context, room, entry string, maxLen int) error {
	if maxLen <= 0 {
		return ErrInvalidBound
	}
	k := key(room)
	_, err := s.rdc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, entry)
		pipe.LTrim(ctx, k, int64(-maxLen), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("history append %s: %w", room, err)
	}
	return nil
}

// Recent returns up to the n newest entries. A missing key yields an empty slice.
func (s *redisStore) Recent(ctx context.Context, room string, n int) ([]string, error) {
	if n <= 0 {
		// LRANGE -0 -1 would return the whole list.
		return []string{}, nil
	}
	entries, err := s.rdc.LRange(ctx, key(room), int64(-n), -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("history recent %s: %w", room, err)
	}
	if entries == nil {
		entries = []string{}
	}
	return entries, nil
}
