package dedup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/perfgate/perfgate/redis"
)

const keyPrefixLastAlert = "perfgate:last_alert"

// maxEntryTTL bounds how long an entry written by MarkAlerted may linger.
// IsRecentlyAlerted and CheckAndMark compare stored timestamps, so a TTL
// longer than the dedup window is safe.
const maxEntryTTL = 30 * 24 * time.Hour

// checkAndMarkScript is an atomic compare-and-set: proceed (and refresh the
// entry) only when no entry exists or the stored timestamp is outside the
// window. KEYS[1] = entry key, ARGV = now unix seconds, window seconds,
// entry TTL seconds.
var checkAndMarkScript = goredis.NewScript(`
local last = redis.call('GET', KEYS[1])
if last and (tonumber(ARGV[1]) - tonumber(last)) < tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'EX', ARGV[3])
return 1
`)

type redisStore struct {
	client redis.Client
}

var _ Store = &redisStore{}

// NewRedisStore creates a Redis-backed deduplication store so multiple
// processes share one alert window. The store takes ownership of the client
// and closes it when the store is closed.
func NewRedisStore(client redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) CheckAndMark(ctx context.Context, key string, window time.Duration) (bool, error) {
	windowSeconds := int64(window / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	result, err := checkAndMarkScript.Run(ctx, s.client, []string{s.entryKey(key)},
		time.Now().Unix(), windowSeconds, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to check and mark alert key: %w", err)
	}
	return result == 1, nil
}

func (s *redisStore) IsRecentlyAlerted(ctx context.Context, key string, window time.Duration) (bool, error) {
	value, err := s.client.Get(ctx, s.entryKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read alert key: %w", err)
	}
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt alert entry for key %q: %w", key, err)
	}
	return time.Since(time.Unix(ts, 0)) < window, nil
}

func (s *redisStore) MarkAlerted(ctx context.Context, key string) error {
	value := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.client.Set(ctx, s.entryKey(key), value, maxEntryTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark alert key: %w", err)
	}
	return nil
}

func (s *redisStore) CleanupExpired(_ context.Context, _ time.Duration) error {
	// Redis TTLs evict expired entries on their own.
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) entryKey(key string) string {
	return fmt.Sprintf("%s:%s", keyPrefixLastAlert, key)
}
