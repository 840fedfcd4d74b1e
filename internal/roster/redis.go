package roster

import (
    "context"
    "fmt"
    "net/url"
    "strconv"
    "strings"

    "github.com/redis/go-redis/v9"
)

// RedisStore keeps the roster document as a JSON string under one key.
// The key has no TTL: the roster outlives every session.
type RedisStore struct {
    rdb *redis.Client
    key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
    if strings.TrimSpace(key) == "" { key = DefaultKey }
    return &RedisStore{rdb: rdb, key: strings.TrimSpace(key)}
}

// OpenRedisStore dials REDIS_URL and pings it before returning the store.
func OpenRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
    if strings.TrimSpace(redisURL) == "" {
        return nil, fmt.Errorf("REDIS_URL required for redis roster store")
    }
    opts, err := parseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return NewRedisStore(rdb, key), nil
}

func (s *RedisStore) Close() error {
    if s == nil || s.rdb == nil { return nil }
    return s.rdb.Close()
}

func (s *RedisStore) Load(ctx context.Context) ([]Player, error) {
    raw, err := s.rdb.Get(ctx, s.key).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, fmt.Errorf("redis get %s: %w", s.key, err) }
    return decodeDocument(raw)
}

func (s *RedisStore) Save(ctx context.Context, players []Player) error {
    raw, err := encodeDocument(players)
    if err != nil { return err }
    if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
        return fmt.Errorf("redis set %s: %w", s.key, err)
    }
    return nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" { if n, err := strconv.Atoi(p); err == nil { db = n } }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
