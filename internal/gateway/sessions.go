package gateway

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openclaw/dailyflows-gateway-go/internal/model"
	"github.com/openclaw/dailyflows-gateway-go/internal/redis"
)

// MemorySessions keeps session metadata in-process. Good enough for a single
// gateway; swapped for RedisSessions when REDIS_URL is set.
type MemorySessions struct {
	mu      sync.RWMutex
	updated map[string]time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{updated: make(map[string]time.Time)}
}

func (s *MemorySessions) ReadUpdatedAt(ctx context.Context, sessionKey string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.updated[sessionKey]
	return t, ok
}

func (s *MemorySessions) RecordInbound(ctx context.Context, sessionKey string, inbound model.InboundContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated[sessionKey] = time.Now()
	return nil
}

// RedisSessions stores session metadata in redis so multiple gateway
// processes observe the same timestamps.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func (s *RedisSessions) ReadUpdatedAt(ctx context.Context, sessionKey string) (time.Time, bool) {
	val, err := s.client.HGet(ctx, redis.SessionKey(sessionKey), "updatedAt").Result()
	if err != nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *RedisSessions) RecordInbound(ctx context.Context, sessionKey string, inbound model.InboundContext) error {
	meta, err := json.Marshal(map[string]any{
		"accountId": inbound.AccountID,
		"from":      inbound.From,
		"chatType":  inbound.ChatType,
	})
	if err != nil {
		return err
	}

	key := redis.SessionKey(sessionKey)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"updatedAt": time.Now().UnixMilli(),
		"meta":      string(meta),
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	if err != nil && err != goredis.Nil {
		return err
	}
	return nil
}
