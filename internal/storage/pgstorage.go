package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrPunder/qr-generator/internal/models"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PgStorage реализует интерфейс Storage с хранением данных в PostgreSQL
type PgStorage struct {
	pool  *pgxpool.Pool
	limit int
}

// NewPgStorage подключается к PostgreSQL и применяет миграции
func NewPgStorage(ctx context.Context, connString string, limit int) (*PgStorage, error) {
	if limit <= 0 {
		limit = models.DefaultHistoryLimit
	}

	if err := migratePostgres(connString); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PgStorage{pool: pool, limit: limit}, nil
}

func migratePostgres(connString string) error {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("unable to open database for migrations: %w", err)
	}
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	return applyMigrations("postgres", "pgx5", driver)
}

func (p *PgStorage) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *PgStorage) AddEntry(ctx context.Context, entry *models.HistoryEntry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO history (id, owner, text, size, bg_color, fg_color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.Id, entry.Owner, entry.Text, entry.Size, entry.BgColor.Hex(), entry.FgColor.Hex(), entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM history
		WHERE owner = $1
		  AND seq NOT IN (SELECT seq FROM history WHERE owner = $1 ORDER BY seq DESC LIMIT $2)
	`, entry.Owner, p.limit)
	if err != nil {
		return fmt.Errorf("failed to truncate history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanPgEntry(row pgx.Row) (*models.HistoryEntry, error) {
	var (
		entry  models.HistoryEntry
		bg, fg string
	)
	if err := row.Scan(&entry.Id, &entry.Owner, &entry.Text, &entry.Size, &bg, &fg, &entry.Timestamp); err != nil {
		return nil, err
	}

	var err error
	if entry.BgColor, err = models.ParseColor(bg); err != nil {
		return nil, err
	}
	if entry.FgColor, err = models.ParseColor(fg); err != nil {
		return nil, err
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return &entry, nil
}

func (p *PgStorage) GetHistory(ctx context.Context, owner string) ([]*models.HistoryEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, owner, text, size, bg_color, fg_color, created_at
		FROM history
		WHERE owner = $1
		ORDER BY seq DESC
		LIMIT $2
	`, owner, p.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []*models.HistoryEntry{}
	for rows.Next() {
		entry, err := scanPgEntry(rows)
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

func (p *PgStorage) GetEntry(ctx context.Context, owner string, id uuid.UUID) (*models.HistoryEntry, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, owner, text, size, bg_color, fg_color, created_at
		FROM history
		WHERE id = $1 AND owner = $2
	`, id, owner)

	entry, err := scanPgEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return entry, nil
}

func (p *PgStorage) ClearHistory(ctx context.Context, owner string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM history WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
