package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrPunder/qr-generator/internal/config"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/google/uuid"
)

var (
	ErrEntryNotFound = errors.New("history entry not found")
	ErrUnknownType   = errors.New("unknown storage type")
)

// Storage хранит историю сгенерированных кодов отдельно для каждого владельца (entry.Owner).
// Все реализации возвращают записи от новых к старым и хранят не больше limit записей на владельца.
type Storage interface {
	AddEntry(ctx context.Context, entry *models.HistoryEntry) error
	GetHistory(ctx context.Context, owner string) ([]*models.HistoryEntry, error)
	GetEntry(ctx context.Context, owner string, id uuid.UUID) (*models.HistoryEntry, error)
	ClearHistory(ctx context.Context, owner string) error
	Close() error
}

// New создает хранилище по конфигурации
func New(ctx context.Context, conf config.StorageConfig) (Storage, error) {
	limit := conf.HistoryLimit
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}

	switch conf.Type {
	case "", "memory":
		return NewMemstorage(limit), nil
	case "file":
		return NewFilestorage(conf.DataPath, limit)
	case "sqlite":
		return NewSQLiteStorage(conf.DBPath, limit)
	case "postgres":
		return NewPgStorage(ctx, conf.ConnectionString, limit)
	case "redis":
		return NewRedisStorage(ctx, conf.RedisAddress, conf.RedisKey, limit)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, conf.Type)
}

// prepend добавляет запись в начало; у ее владельца остается не больше limit записей
func prepend(entries []*models.HistoryEntry, entry *models.HistoryEntry, limit int) []*models.HistoryEntry {
	return trim(append([]*models.HistoryEntry{entry}, entries...), limit)
}

// trim оставляет первые limit записей каждого владельца, порядок сохраняется
func trim(entries []*models.HistoryEntry, limit int) []*models.HistoryEntry {
	counts := make(map[string]int)
	res := make([]*models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if counts[e.Owner] >= limit {
			continue
		}
		counts[e.Owner]++
		res = append(res, e)
	}
	return res
}

// ownedBy возвращает копии записей владельца
func ownedBy(entries []*models.HistoryEntry, owner string) []*models.HistoryEntry {
	res := []*models.HistoryEntry{}
	for _, e := range entries {
		if e.Owner == owner {
			res = append(res, copyEntry(e))
		}
	}
	return res
}

func findEntry(entries []*models.HistoryEntry, owner string, id uuid.UUID) (*models.HistoryEntry, error) {
	for _, e := range entries {
		if e.Owner == owner && e.Id == id {
			return copyEntry(e), nil
		}
	}
	return nil, ErrEntryNotFound
}

// withoutOwner удаляет записи владельца
func withoutOwner(entries []*models.HistoryEntry, owner string) []*models.HistoryEntry {
	res := make([]*models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Owner != owner {
			res = append(res, e)
		}
	}
	return res
}

func copyEntry(e *models.HistoryEntry) *models.HistoryEntry {
	c := *e
	return &c
}
