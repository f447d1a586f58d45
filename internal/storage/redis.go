package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces every key the store writes.
const RedisKeyPrefix = "triage:session:"

// DefaultRedisTTL bounds how long an abandoned session lingers.
const DefaultRedisTTL = 24 * time.Hour

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr      string
	Password  string
	SessionID string
	DB        int
	TTL       time.Duration
}

// RedisStore implements Store on Redis. A session is a hash of identity to
// JSON classification plus a sorted set recording insertion order.
type RedisStore struct {
	client    *redis.Client
	hashKey   string
	orderKey  string
	sessionID string
	ttl       time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if err := validateString(opts.Addr, "redis addr"); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	slog.Debug("Opened Redis store", "address", opts.Addr, "db", opts.DB, "session", opts.SessionID)
	return NewRedisStoreWithClient(client, opts.SessionID, opts.TTL)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, sessionID string, ttl time.Duration) (*RedisStore, error) {
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}

	prefix := RedisKeyPrefix + sessionID
	return &RedisStore{
		client:    client,
		hashKey:   prefix + ":classifications",
		orderKey:  prefix + ":order",
		sessionID: sessionID,
		ttl:       ttl,
	}, nil
}

// Get returns the classification for identity.
func (s *RedisStore) Get(ctx context.Context, identity string) (model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return model.Classification{}, err
	}

	data, err := s.client.HGet(ctx, s.hashKey, identity).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Classification{}, fmt.Errorf("classification %s: %w", identity, common.ErrNotFound)
	}
	if err != nil {
		return model.Classification{}, fmt.Errorf("failed to get classification: %w", err)
	}

	return decodeClassification(data)
}

// saveScript writes a classification unless it would replace a user override
// with an automatic result. It returns 0 when the write was refused.
var saveScript = redis.NewScript(`
local prev = redis.call('HGET', KEYS[1], ARGV[1])
if prev then
	local origin = cjson.decode(prev)['origin']
	if origin == ARGV[3] and ARGV[4] == '1' then
		return 0
	end
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('ZADD', KEYS[2], 'NX', ARGV[5], ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[6])
redis.call('PEXPIRE', KEYS[2], ARGV[6])
return 1
`)

// Save stores c. The origin check and the write run as one script, so they
// are atomic with respect to other clients of the same session.
func (s *RedisStore) Save(ctx context.Context, c model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateClassification(c); err != nil {
		return err
	}

	if c.ClassifiedAt.IsZero() {
		c.ClassifiedAt = time.Now()
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode classification: %w", err)
	}

	automatic := "0"
	if c.Origin.Automatic() {
		automatic = "1"
	}

	written, err := saveScript.Run(ctx, s.client,
		[]string{s.hashKey, s.orderKey},
		c.Identity,
		string(data),
		string(model.OriginUserOverride),
		automatic,
		time.Now().UnixNano(),
		s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	if written == 0 {
		return ErrOverrideProtected
	}
	return nil
}

// List returns the session's classifications in insertion order.
func (s *RedisStore) List(ctx context.Context) ([]model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := s.client.HMGet(ctx, s.hashKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load classifications: %w", err)
	}

	out := make([]model.Classification, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			slog.Warn("Classification missing from session hash", "identity", ids[i])
			continue
		}
		c, decodeErr := decodeClassification([]byte(raw))
		if decodeErr != nil {
			return nil, decodeErr
		}
		out = append(out, c)
	}
	return out, nil
}

// SessionID returns the session this store reads and writes.
func (s *RedisStore) SessionID() string {
	return s.sessionID
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeClassification(data []byte) (model.Classification, error) {
	var c model.Classification
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Classification{}, fmt.Errorf("failed to decode classification: %w", err)
	}
	return c, nil
}
