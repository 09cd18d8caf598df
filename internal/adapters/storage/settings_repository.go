package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/anchor-cli/internal/domain"
	"github.com/xvierd/anchor-cli/internal/ports"
)

// settingsRepository stores the UserSettings document as one JSON row.
type settingsRepository struct {
	db *sql.DB
}

// newSettingsRepository creates a new settings repository.
func newSettingsRepository(db *sql.DB) ports.SettingsRepository {
	return &settingsRepository{db: db}
}

// Get returns the stored settings.
func (r *settingsRepository) Get(ctx context.Context) (*domain.UserSettings, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var settings domain.UserSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

// Set replaces the stored settings.
func (r *settingsRepository) Set(ctx context.Context, settings *domain.UserSettings) error {
	if settings == nil {
		return fmt.Errorf("failed to save settings: nil settings")
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	query := `
		INSERT INTO settings (id, data, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Delete removes the stored settings.
func (r *settingsRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM settings WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}
