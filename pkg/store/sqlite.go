package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, enables WAL
// mode and foreign keys, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

func (s *SQLiteStore) CreateItem(ctx context.Context, item Item) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (
			id, source_url, display_name,
			last_known_price, threshold_price, owner_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SourceURL, item.DisplayName,
		item.LastKnownPrice, item.ThresholdPrice, item.OwnerID,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("creating item %s: %w", item.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}
	return &item, nil
}

func (s *SQLiteStore) ListItems(ctx context.Context) ([]Item, error) {
	var items []Item
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM items ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) UpdateThreshold(ctx context.Context, id string, threshold int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET threshold_price = ?, updated_at = ? WHERE id = ?",
		threshold, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating threshold for item %s: %w", id, err)
	}
	return checkAffected(res, id)
}

func (s *SQLiteStore) UpdateLastKnownPrice(ctx context.Context, id string, price int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE items SET last_known_price = ?, updated_at = ? WHERE id = ?",
		price, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating price for item %s: %w", id, err)
	}
	return checkAffected(res, id)
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)",
		u.ID, u.Email, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RecipientFor(ctx context.Context, ownerID string) (string, error) {
	var email string
	err := s.db.GetContext(ctx, &email, "SELECT email FROM users WHERE id = ?", ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolving recipient for owner %s: %w", ownerID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolving recipient for owner %s: %w", ownerID, err)
	}
	return email, nil
}

func (s *SQLiteStore) LastCycleAt(ctx context.Context) (time.Time, error) {
	var t sql.NullTime
	err := s.db.GetContext(ctx, &t, "SELECT last_cycle_at FROM meta WHERE id = 1")
	if err != nil {
		return time.Time{}, fmt.Errorf("reading last cycle time: %w", err)
	}
	if !t.Valid {
		return time.Time{}, nil
	}
	return t.Time, nil
}

func (s *SQLiteStore) SetLastCycleAt(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE meta SET last_cycle_at = ? WHERE id = 1",
		at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording last cycle time: %w", err)
	}
	return nil
}

func checkAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of item %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("updating item %s: %w", id, ErrNotFound)
	}
	return nil
}
