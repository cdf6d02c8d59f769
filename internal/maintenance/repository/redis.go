package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"libmanage/backend/internal/maintenance/domain"
)

// DefaultRedisKey is the hash holding the flag.
const DefaultRedisKey = "libmanage:maintenance"

// RedisStore keeps the flag in a Redis hash with fields enabled, since and updated_by.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore returns a store on client. Empty key selects DefaultRedisKey.
func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Get(ctx context.Context) (*domain.Status, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	enabled, err := strconv.ParseBool(fields["enabled"])
	if err != nil {
		return nil, err
	}
	st := &domain.Status{Enabled: enabled, UpdatedBy: fields["updated_by"]}
	if since := fields["since"]; since != "" {
		if st.Since, err = time.Parse(time.RFC3339Nano, since); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *RedisStore) Set(ctx context.Context, st domain.Status) error {
	return s.client.HSet(ctx, s.key,
		"enabled", strconv.FormatBool(st.Enabled),
		"since", st.Since.UTC().Format(time.RFC3339Nano),
		"updated_by", st.UpdatedBy,
	).Err()
}
