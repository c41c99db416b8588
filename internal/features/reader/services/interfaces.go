package services

import (
	"context"

	"feedmark/internal/features/reader/models"
)

// CategoryStore resolves a user's category tree
type CategoryStore interface {
	// FindAllChildCategories returns categoryID and its descendants, or every
	// category of the user when categoryID is nil.
	FindAllChildCategories(ctx context.Context, userID int, categoryID *int) ([]models.Category, error)
}

// SubscriptionStore reads a user's subscriptions
type SubscriptionStore interface {
	FindByID(ctx context.Context, userID, id int) (*models.Subscription, error)
	FindByFeed(ctx context.Context, userID, feedID int) (*models.Subscription, error)
	FindAll(ctx context.Context, userID int) ([]models.Subscription, error)
}

// EntryStore reads entries, split by the user's read state
type EntryStore interface {
	FetchEntries(ctx context.Context, userID int, src models.EntrySource, read bool, page models.Page) ([]models.Entry, error)
	FindByID(ctx context.Context, id int) (*models.Entry, error)
}

// StatusStore persists read statuses. UpsertStatus must be atomic per (user, entry).
type StatusStore interface {
	GetStatus(ctx context.Context, userID, entryID int) (*models.ReadStatus, error)
	UpsertStatus(ctx context.Context, status *models.ReadStatus) error
}
