package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Bootstrap creates the zip, action and run log tables if they do not exist.
func (s *Store) Bootstrap(ctx context.Context, log *zap.Logger) error {
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SystemTablesSQL()); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	for _, table := range []string{"_zips", "_actions", "_action_runs"} {
		ok, err := s.Dialect.TableExists(ctx, s.DB, table)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if !ok {
			return fmt.Errorf("bootstrap system tables: %s missing", table)
		}
	}
	log.Info("system tables ready", zap.String("dialect", s.Dialect.Name()))
	return nil
}
