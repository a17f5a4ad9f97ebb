package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/google/uuid"
)

// HistoryFileName имя файла истории в каталоге данных
const HistoryFileName = "history.json"

// Filestorage хранит историю в JSON-файле, весь список переписывается при каждом изменении
type Filestorage struct {
	mu       sync.RWMutex
	entries  []*models.HistoryEntry
	limit    int
	filePath string
}

// NewFilestorage создает файловое хранилище и загружает существующую историю
func NewFilestorage(dataDir string, limit int) (*Filestorage, error) {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fs := &Filestorage{
		limit:    limit,
		filePath: filepath.Join(dataDir, HistoryFileName),
	}

	if err := fs.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return fs, nil
}

func (fs *Filestorage) load() error {
	data, err := os.ReadFile(fs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	// Пустой файл считаем пустой историей
	if len(data) == 0 {
		return nil
	}

	var entries []*models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}
	fs.entries = trim(entries, fs.limit)
	return nil
}

// save вызывается под блокировкой
func (fs *Filestorage) save() error {
	entries := fs.entries
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Пишем во временный файл и переименовываем, чтобы не оставить обрезанный JSON
	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

func (fs *Filestorage) AddEntry(_ context.Context, entry *models.HistoryEntry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev := fs.entries
	fs.entries = prepend(fs.entries, copyEntry(entry), fs.limit)
	if err := fs.save(); err != nil {
		fs.entries = prev
		return err
	}
	return nil
}

func (fs *Filestorage) GetHistory(_ context.Context, owner string) ([]*models.HistoryEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return ownedBy(fs.entries, owner), nil
}

func (fs *Filestorage) GetEntry(_ context.Context, owner string, id uuid.UUID) (*models.HistoryEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return findEntry(fs.entries, owner, id)
}

// ClearHistory удаляет записи владельца; если история опустела, файл удаляется, как localStorage.removeItem
func (fs *Filestorage) ClearHistory(_ context.Context, owner string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev := fs.entries
	fs.entries = withoutOwner(fs.entries, owner)
	if len(fs.entries) > 0 {
		if err := fs.save(); err != nil {
			fs.entries = prev
			return err
		}
		return nil
	}

	fs.entries = nil
	if err := os.Remove(fs.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove history file: %w", err)
	}
	return nil
}

func (fs *Filestorage) Close() error { return nil }
