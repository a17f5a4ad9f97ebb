package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage реализует интерфейс Storage с хранением данных в SQLite
type SQLiteStorage struct {
	db    *sql.DB
	limit int
}

// NewSQLiteStorage открывает базу, применяет миграции и создает хранилище
func NewSQLiteStorage(dbPath string, limit int) (*SQLiteStorage, error) {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

	if err := migrateSQLite(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// SQLite плохо переносит конкурентную запись
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, limit: limit}, nil
}

func migrateSQLite(dsn string) error {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("unable to open database for migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	return applyMigrations("sqlite", "sqlite3", driver)
}

// Close закрывает соединение с базой данных
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) AddEntry(ctx context.Context, entry *models.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history (id, owner, text, size, bg_color, fg_color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Id.String(), entry.Owner, entry.Text, entry.Size, entry.BgColor.Hex(), entry.FgColor.Hex(),
		entry.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	// Оставляем только limit последних записей владельца
	_, err = tx.ExecContext(ctx, `
		DELETE FROM history
		WHERE owner = ?
		  AND seq NOT IN (SELECT seq FROM history WHERE owner = ? ORDER BY seq DESC LIMIT ?)
	`, entry.Owner, entry.Owner, s.limit)
	if err != nil {
		return fmt.Errorf("failed to truncate history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (*models.HistoryEntry, error) {
	var (
		entry          models.HistoryEntry
		id, bg, fg, ts string
	)
	if err := row.Scan(&id, &entry.Owner, &entry.Text, &entry.Size, &bg, &fg, &ts); err != nil {
		return nil, err
	}

	var err error
	if entry.Id, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse entry id: %w", err)
	}
	if entry.BgColor, err = models.ParseColor(bg); err != nil {
		return nil, err
	}
	if entry.FgColor, err = models.ParseColor(fg); err != nil {
		return nil, err
	}
	if entry.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return &entry, nil
}

func (s *SQLiteStorage) GetHistory(ctx context.Context, owner string) ([]*models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, text, size, bg_color, fg_color, created_at
		FROM history
		WHERE owner = ?
		ORDER BY seq DESC
		LIMIT ?
	`, owner, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []*models.HistoryEntry{}
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStorage) GetEntry(ctx context.Context, owner string, id uuid.UUID) (*models.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, text, size, bg_color, fg_color, created_at
		FROM history
		WHERE id = ? AND owner = ?
	`, id.String(), owner)

	entry, err := scanSQLiteEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return entry, nil
}

func (s *SQLiteStorage) ClearHistory(ctx context.Context, owner string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
