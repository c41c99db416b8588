package migrations

import (
	"context"
	"fmt"

	"feedmark/internal/core"
)

// Manager handles reader feature migrations
type Manager struct {
	migrationService *core.MigrationService
	logger           *core.Logger
}

// NewManager creates a new reader migration manager
func NewManager(db *core.Database, logger *core.Logger) *Manager {
	return &Manager{
		migrationService: core.NewMigrationService(db, logger),
		logger:           logger,
	}
}

// Migrations returns all reader migrations in order
func (m *Manager) Migrations() []core.Migration {
	return []core.Migration{
		Migration002CreateReaderTables,
		Migration003CreateReaderIndexes,
	}
}

// Migrate applies all pending reader migrations
func (m *Manager) Migrate(ctx context.Context) error {
	migrations := m.Migrations()
	m.logger.Info("Starting reader migrations", "count", len(migrations))

	if err := m.migrationService.ApplyAll(ctx, migrations); err != nil {
		return fmt.Errorf("failed to apply reader migrations: %w", err)
	}

	m.logger.Info("Reader migrations completed successfully")
	return nil
}

// Rollback rolls back the last applied reader migration
func (m *Manager) Rollback(ctx context.Context) error {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	lastApplied, err := m.migrationService.LastApplied(ctx, m.Migrations())
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	if lastApplied == nil {
		return fmt.Errorf("no reader migrations have been applied")
	}

	if err := m.migrationService.RollbackMigration(ctx, *lastApplied); err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", lastApplied.Version, lastApplied.Name, err)
	}

	return nil
}

// GetPendingMigrations returns reader migrations that haven't been applied yet
func (m *Manager) GetPendingMigrations(ctx context.Context) ([]core.Migration, error) {
	return m.migrationService.Pending(ctx, m.Migrations())
}
