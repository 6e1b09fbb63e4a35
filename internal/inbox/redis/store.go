package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ailum-crm/ailum/internal/inbox"
)

// RedisStore compartilha os buffers entre réplicas. Cada chave vive sob
// TTL: sem eventos novos dentro da janela, o histórico expira — o
// contrato continua sendo best-effort, não durabilidade.
type RedisStore struct {
	client *redis.Client
	cap    int
	ttl    time.Duration
}

func NewStore(client *redis.Client, capacity int, ttl time.Duration) *RedisStore {
	if capacity <= 0 {
		capacity = inbox.DefaultCap
	}
	return &RedisStore{client: client, cap: capacity, ttl: ttl}
}

func bufferKey(key string) string {
	return "inbox:messages:" + key
}

func tokenKey(key string) string {
	return "inbox:token:" + key
}

func (s *RedisStore) Append(ctx context.Context, key string, rec inbox.MessageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("inbox redis: marshal: %w", err)
	}

	k := bufferKey(key)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, k, data)
	pipe.LTrim(ctx, k, 0, int64(s.cap-1))
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("inbox redis: append: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, key string) ([]inbox.MessageRecord, error) {
	items, err := s.client.LRange(ctx, bufferKey(key), 0, int64(s.cap-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("inbox redis: list: %w", err)
	}

	records := make([]inbox.MessageRecord, 0, len(items))
	for _, item := range items {
		var rec inbox.MessageRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) SetTokenHash(ctx context.Context, key, tokenHash string) error {
	if err := s.client.Set(ctx, tokenKey(key), tokenHash, 0).Err(); err != nil {
		return fmt.Errorf("inbox redis: set token: %w", err)
	}
	return nil
}

func (s *RedisStore) TokenHash(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, tokenKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("inbox redis: get token: %w", err)
	}
	return val, nil
}
