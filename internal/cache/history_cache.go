// Package cache keeps a short-lived copy of each chat's message history in
// Redis. A dirty marker set on every write keeps readers from repopulating
// the cache with a list that is about to change.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/feichai0017/project-assistant/internal/models"
)

const (
	defaultHistoryTTL = 60 * time.Second
	defaultDirtyTTL   = 5 * time.Second
)

type HistoryCache struct {
	client         *redis.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewHistoryCache(client *redis.Client, historyTTL, dirtyMarkerTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = defaultHistoryTTL
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = defaultDirtyTTL
	}
	return &HistoryCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

// GetHistory returns the cached messages and whether there was a usable entry.
// A dirty chat is reported as a miss.
func (c *HistoryCache) GetHistory(ctx context.Context, chatID string) ([]models.Message, bool, error) {
	dirty, err := c.IsDirty(ctx, chatID)
	if err != nil || dirty {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, historyKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var messages []models.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return messages, true, nil
}

// SetHistory stores messages unless a write is in flight for the chat.
func (c *HistoryCache) SetHistory(ctx context.Context, chatID string, messages []models.Message) error {
	dirty, err := c.IsDirty(ctx, chatID)
	if err != nil || dirty {
		return err
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, historyKey(chatID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

// Invalidate marks the chat dirty and drops its cached history.
func (c *HistoryCache) Invalidate(ctx context.Context, chatID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dirtyKey(chatID), "1", c.dirtyMarkerTTL)
		pipe.Del(ctx, historyKey(chatID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) IsDirty(ctx context.Context, chatID string) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(chatID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func historyKey(chatID string) string {
	return fmt.Sprintf("chat:history:%s", chatID)
}

func dirtyKey(chatID string) string {
	return fmt.Sprintf("chat:history:dirty:%s", chatID)
}
