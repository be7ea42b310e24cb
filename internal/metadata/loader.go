package metadata

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"zipier/internal/store"
)

// LoadAll reads all zips and actions from the database and populates the registry.
func LoadAll(ctx context.Context, s *store.Store, reg *Registry, log *zap.Logger) error {
	zips, err := loadZips(ctx, s)
	if err != nil {
		return fmt.Errorf("load zips: %w", err)
	}

	actions, err := loadActions(ctx, s, log)
	if err != nil {
		return fmt.Errorf("load actions: %w", err)
	}

	reg.Load(zips, actions)

	log.Info("registry loaded", zap.Int("zips", len(zips)), zap.Int("actions", len(actions)))
	return nil
}

// Reload is an alias for LoadAll, called after admin mutations.
func Reload(ctx context.Context, s *store.Store, reg *Registry, log *zap.Logger) error {
	return LoadAll(ctx, s, reg, log)
}

func loadZips(ctx context.Context, s *store.Store) ([]*Zip, error) {
	rows, err := store.QueryRows(ctx, s.DB,
		"SELECT id, title, notes, active, created_at, updated_at FROM _zips ORDER BY title")
	if err != nil {
		return nil, err
	}
	if s.Dialect.NeedsBoolFix() {
		store.NormalizeBooleans(rows, []string{"active"})
	}

	zips := make([]*Zip, 0, len(rows))
	for _, row := range rows {
		zips = append(zips, ZipFromRow(row))
	}
	return zips, nil
}

func loadActions(ctx context.Context, s *store.Store, log *zap.Logger) ([]*Action, error) {
	rows, err := store.QueryRows(ctx, s.DB,
		`SELECT id, zip_id, title, hook_type, data, condition, position, created_at, updated_at
		 FROM _actions ORDER BY zip_id, position`)
	if err != nil {
		return nil, err
	}

	actions := make([]*Action, 0, len(rows))
	for _, row := range rows {
		a := ActionFromRow(row)
		if !json.Valid(a.Data) {
			log.Warn("skipping action with invalid data JSON", zap.String("action_id", a.ID))
			continue
		}
		actions = append(actions, a)
	}
	return actions, nil
}
