package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"proyecto_reservas/internal/entities"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "reservas:sessions:v1"

// storedSession is the Redis representation; the stage is kept by name.
type storedSession struct {
	Stage     string            `json:"stage"`
	Fields    map[string]string `json:"fields"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RedisSessionStore keeps sessions as JSON strings with a native TTL, which
// lets several replicas share conversation state.
type RedisSessionStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{redis: client, prefix: redisSessionPrefix, ttl: ttl}
}

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisSessionStore) key(key entities.SessionKey) string {
	// Hash tag keeps one tenant's sessions on one cluster slot.
	return fmt.Sprintf("%s:{%s}:%s", r.prefix, key.TenantID, key.ConversationID)
}

func (r *RedisSessionStore) Get(ctx context.Context, key entities.SessionKey) (*entities.Session, error) {
	result, err := r.redis.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var model storedSession
	if err := json.Unmarshal([]byte(result), &model); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	// An unknown stage name decodes to StageUnknown; the engine resets it.
	stage, _ := entities.ParseStage(model.Stage)
	fields := entities.FieldSet(model.Fields)
	if fields == nil {
		fields = entities.FieldSet{}
	}
	return &entities.Session{Stage: stage, Fields: fields, UpdatedAt: model.UpdatedAt}, nil
}

func (r *RedisSessionStore) Put(ctx context.Context, key entities.SessionKey, session *entities.Session) error {
	data, err := json.Marshal(storedSession{
		Stage:     session.Stage.String(),
		Fields:    session.Fields,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// ttl 0 means no expiry for go-redis.
	if err := r.redis.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, key entities.SessionKey) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
