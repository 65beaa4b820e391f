package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/chat"
)

// CachedHistory is a read-through cache in front of the conversation
// table. Reads serve from Redis when the session key is warm; writes
// go to Postgres and invalidate the key so the next read refreshes.
type CachedHistory struct {
	store  *Store
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewCachedHistory(ctx context.Context, store *Store, cfg config.RedisConfig, logger *log.Logger) (*CachedHistory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &CachedHistory{store: store, client: client, ttl: cfg.HistoryTTL, logger: logger}, nil
}

func historyKey(sessionID string, limit int) string {
	return fmt.Sprintf("assistant:history:%s:%d", sessionID, limit)
}

func sessionKeyPattern(sessionID string) string {
	return fmt.Sprintf("assistant:history:%s:*", sessionID)
}

func (c *CachedHistory) RecentTurns(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error) {
	key := historyKey(sessionID, limit)
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var turns []chat.Turn
		if err := json.Unmarshal([]byte(raw), &turns); err == nil {
			return turns, nil
		}
		c.logger.Printf("[WARN] history cache entry for %s is corrupt, refetching", sessionID)
	} else if err != redis.Nil {
		c.logger.Printf("[WARN] history cache read failed: %v", err)
	}

	turns, err := c.store.RecentTurns(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(turns); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Printf("[WARN] history cache write failed: %v", err)
		}
	}
	return turns, nil
}

func (c *CachedHistory) AppendTurn(ctx context.Context, turn chat.Turn) error {
	if err := c.store.AppendTurn(ctx, turn); err != nil {
		return err
	}
	c.invalidate(ctx, turn.SessionID)
	return nil
}

// invalidate drops every cached window of a session. Failures only
// delay freshness until the TTL expires, so they are logged and
// swallowed.
func (c *CachedHistory) invalidate(ctx context.Context, sessionID string) {
	iter := c.client.Scan(ctx, 0, sessionKeyPattern(sessionID), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Printf("[WARN] history cache scan failed: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Printf("[WARN] history cache invalidation failed: %v", err)
	}
}

func (c *CachedHistory) Close() error { return c.client.Close() }
