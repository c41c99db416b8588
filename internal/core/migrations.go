package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration. Versions are global across features.
type Migration struct {
	Version     int
	Name        string
	Description string
	UpSQL       string
	DownSQL     string
	CreatedAt   time.Time
}

// MigrationService handles database migrations
type MigrationService struct {
	db     *Database
	logger *Logger
}

// NewMigrationService creates a new migration service
func NewMigrationService(db *Database, logger *Logger) *MigrationService {
	return &MigrationService{
		db:     db,
		logger: logger,
	}
}

// InitMigrations initializes the migrations table
func (m *MigrationService) InitMigrations(ctx context.Context) error {
	createMigrationsTable := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	_, err := m.db.ExecWithTimeout(ctx, createMigrationsTable)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	m.logger.Debug("Migrations table initialized")
	return nil
}

// GetAppliedMigrations returns all applied migrations
func (m *MigrationService) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	ctx, cancel := m.db.WithTimeout(ctx)
	defer cancel()

	rows, err := m.db.QueryContext(ctx, `SELECT version, name, description, applied_at FROM migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var migration Migration
		var description sql.NullString
		err := rows.Scan(&migration.Version, &migration.Name, &description, &migration.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migration.Description = description.String
		migrations = append(migrations, migration)
	}

	return migrations, rows.Err()
}

// IsMigrationApplied checks if a migration has been applied
func (m *MigrationService) IsMigrationApplied(ctx context.Context, version int) (bool, error) {
	ctx, cancel := m.db.WithTimeout(ctx)
	defer cancel()

	var count int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM migrations WHERE version = ?`, version).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}

	return count > 0, nil
}

// ApplyMigration applies a single migration
func (m *MigrationService) ApplyMigration(ctx context.Context, migration Migration) error {
	applied, err := m.IsMigrationApplied(ctx, migration.Version)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug("Migration already applied", "version", migration.Version, "name", migration.Name)
		return nil
	}

	err = m.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
			return fmt.Errorf("failed to execute migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		insertQuery := `INSERT INTO migrations (version, name, description) VALUES (?, ?, ?)`
		if _, err := tx.ExecContext(ctx, insertQuery, migration.Version, migration.Name, migration.Description); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Applied migration", "version", migration.Version, "name", migration.Name)
	return nil
}

// RollbackMigration rolls back a single migration
func (m *MigrationService) RollbackMigration(ctx context.Context, migration Migration) error {
	applied, err := m.IsMigrationApplied(ctx, migration.Version)
	if err != nil {
		return err
	}
	if !applied {
		m.logger.Info("Migration not applied, cannot rollback", "version", migration.Version, "name", migration.Name)
		return nil
	}

	err = m.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM migrations WHERE version = ?`, migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Rolled back migration", "version", migration.Version, "name", migration.Name)
	return nil
}

// ApplyAll initializes the migrations table and applies every migration in order
func (m *MigrationService) ApplyAll(ctx context.Context, migrations []Migration) error {
	if err := m.InitMigrations(ctx); err != nil {
		return err
	}

	for _, migration := range migrations {
		if err := m.ApplyMigration(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}

// LastApplied returns the highest applied migration out of the given set, or nil.
func (m *MigrationService) LastApplied(ctx context.Context, migrations []Migration) (*Migration, error) {
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	appliedVersions := make(map[int]bool, len(applied))
	for _, migration := range applied {
		appliedVersions[migration.Version] = true
	}

	var last *Migration
	for i := range migrations {
		if appliedVersions[migrations[i].Version] && (last == nil || migrations[i].Version > last.Version) {
			last = &migrations[i]
		}
	}

	return last, nil
}

// Pending returns the migrations from the given set that have not been applied yet
func (m *MigrationService) Pending(ctx context.Context, migrations []Migration) ([]Migration, error) {
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	appliedVersions := make(map[int]bool, len(applied))
	for _, migration := range applied {
		appliedVersions[migration.Version] = true
	}

	var pending []Migration
	for _, migration := range migrations {
		if !appliedVersions[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}

// GetMigrationStatus returns the status of all migrations
func (m *MigrationService) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{
		AppliedCount: len(applied),
		Applied:      applied,
	}

	if len(applied) > 0 {
		status.LastApplied = &applied[len(applied)-1]
	}

	return status, nil
}

// MigrationStatus represents the current migration status
type MigrationStatus struct {
	AppliedCount int         `json:"applied_count"`
	Applied      []Migration `json:"applied"`
	LastApplied  *Migration  `json:"last_applied,omitempty"`
}
