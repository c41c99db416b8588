package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

const subscriptionColumns = `id, user_id, feed_id, category_id, title`

// SubscriptionService reads a user's feed subscriptions
type SubscriptionService struct {
	db     *core.Database
	logger *core.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(db *core.Database, logger *core.Logger) *SubscriptionService {
	return &SubscriptionService{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	var categoryID sql.NullInt64

	if err := row.Scan(&sub.ID, &sub.UserID, &sub.FeedID, &categoryID, &sub.Title); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		id := int(categoryID.Int64)
		sub.CategoryID = &id
	}

	return &sub, nil
}

// FindByID retrieves one of the user's subscriptions
func (s *SubscriptionService) FindByID(ctx context.Context, userID, id int) (*models.Subscription, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM reader_subscriptions WHERE user_id = ? AND id = ?`, userID, id)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("subscription %d not found", id), nil)
		}
		return nil, fmt.Errorf("failed to get subscription %d: %w", id, err)
	}

	return sub, nil
}

// FindByFeed retrieves the user's subscription of a feed
func (s *SubscriptionService) FindByFeed(ctx context.Context, userID, feedID int) (*models.Subscription, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM reader_subscriptions WHERE user_id = ? AND feed_id = ?`, userID, feedID)

	sub, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("no subscription for feed %d", feedID), nil)
		}
		return nil, fmt.Errorf("failed to get subscription for feed %d: %w", feedID, err)
	}

	return sub, nil
}

// FindAll retrieves every subscription of the user
func (s *SubscriptionService) FindAll(ctx context.Context, userID int) ([]models.Subscription, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM reader_subscriptions WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}

	return subs, rows.Err()
}

// BuildIndex keys every subscription of the user by feed id. The index belongs to
// the calling request and is not shared.
func BuildIndex(ctx context.Context, store SubscriptionStore, userID int) (models.SubscriptionIndex, error) {
	subs, err := store.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	return lo.KeyBy(subs, func(sub models.Subscription) int {
		return sub.FeedID
	}), nil
}
