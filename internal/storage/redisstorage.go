package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStorage хранит историю каждого владельца в отдельном списке Redis: LPUSH новой записи и LTRIM до limit
type RedisStorage struct {
	client *redis.Client
	key    string
	limit  int
}

func NewRedisStorage(ctx context.Context, addr, key string, limit int) (*RedisStorage, error) {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}
	if key == "" {
		key = "qr:history"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	return &RedisStorage{client: client, key: key, limit: limit}, nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

// keyFor ключ списка владельца; общая история лежит под базовым ключом
func (r *RedisStorage) keyFor(owner string) string {
	if owner == models.SharedOwner {
		return r.key
	}
	return r.key + ":" + owner
}

func (r *RedisStorage) AddEntry(ctx context.Context, entry *models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := r.keyFor(entry.Owner)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(r.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetHistory(ctx context.Context, owner string) ([]*models.HistoryEntry, error) {
	items, err := r.client.LRange(ctx, r.keyFor(owner), 0, int64(r.limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]*models.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (r *RedisStorage) GetEntry(ctx context.Context, owner string, id uuid.UUID) (*models.HistoryEntry, error) {
	entries, err := r.GetHistory(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Id == id {
			return e, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (r *RedisStorage) ClearHistory(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, r.keyFor(owner)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
