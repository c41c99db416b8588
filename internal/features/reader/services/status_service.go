package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// StatusService stores per-user read statuses
type StatusService struct {
	db     *core.Database
	logger *core.Logger
}

// NewStatusService creates a new status service
func NewStatusService(db *core.Database, logger *core.Logger) *StatusService {
	return &StatusService{
		db:     db,
		logger: logger,
	}
}

// GetStatus returns the user's status of an entry, or nil when none was ever stored
func (s *StatusService) GetStatus(ctx context.Context, userID, entryID int) (*models.ReadStatus, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	var status models.ReadStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, entry_id, is_read, updated_at FROM reader_entry_statuses WHERE user_id = ? AND entry_id = ?`,
		userID, entryID,
	).Scan(&status.ID, &status.UserID, &status.EntryID, &status.Read, &status.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get status of entry %d: %w", entryID, err)
	}

	return &status, nil
}

// UpsertStatus writes status, replacing the existing row of the same user and entry.
// The conflict clause keeps concurrent writers to one row per pair.
func (s *StatusService) UpsertStatus(ctx context.Context, status *models.ReadStatus) error {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reader_entry_statuses (user_id, entry_id, is_read, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, entry_id) DO UPDATE SET
			is_read = excluded.is_read,
			updated_at = excluded.updated_at
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query, status.UserID, status.EntryID, status.Read, status.UpdatedAt).Scan(&status.ID)
	if err != nil {
		return fmt.Errorf("failed to store status of entry %d: %w", status.EntryID, err)
	}

	return nil
}
