package repository

import (
	"context"
	"encoding/json"
	"time"

	"libmanage/backend/internal/maintenance/domain"
	settingsrepo "libmanage/backend/internal/platformsettings/repository"
)

// SettingKey is the platform_settings key holding the flag.
const SettingKey = "maintenance_mode"

// PostgresStore keeps the flag as a JSON row in platform_settings.
type PostgresStore struct {
	settings settingsrepo.Repository
}

func NewPostgresStore(settings settingsrepo.Repository) *PostgresStore {
	return &PostgresStore{settings: settings}
}

func (s *PostgresStore) Get(ctx context.Context) (*domain.Status, error) {
	row, err := s.settings.Get(ctx, SettingKey)
	if err != nil || row == nil {
		return nil, err
	}
	var st domain.Status
	if err := json.Unmarshal([]byte(row.ValueJSON), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) Set(ctx context.Context, st domain.Status) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.settings.Put(ctx, &settingsrepo.Setting{
		Key:       SettingKey,
		ValueJSON: string(raw),
		UpdatedAt: time.Now().UTC(),
	})
}
