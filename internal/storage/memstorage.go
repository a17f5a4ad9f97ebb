package storage

import (
	"context"
	"sync"

	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/google/uuid"
)

// Memstorage хранит историю в памяти
type Memstorage struct {
	mu      sync.RWMutex
	entries []*models.HistoryEntry
	limit   int
}

func NewMemstorage(limit int) *Memstorage {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}
	return &Memstorage{limit: limit}
}

func (m *Memstorage) AddEntry(_ context.Context, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = prepend(m.entries, copyEntry(entry), m.limit)
	return nil
}

func (m *Memstorage) GetHistory(_ context.Context, owner string) ([]*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ownedBy(m.entries, owner), nil
}

func (m *Memstorage) GetEntry(_ context.Context, owner string, id uuid.UUID) (*models.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return findEntry(m.entries, owner, id)
}

func (m *Memstorage) ClearHistory(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = withoutOwner(m.entries, owner)
	return nil
}

func (m *Memstorage) Close() error { return nil }
