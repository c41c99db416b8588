package services

import (
	"context"
	"fmt"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// ReaderService dispatches entry reads and status marks by addressing mode
type ReaderService struct {
	subscriptions SubscriptionStore
	entries       EntryStore
	resolver      *CategoryResolver
	aggregator    *Aggregator
	tracker       *Tracker
	logger        *core.Logger
}

// NewReaderService wires the reader operations over the given stores
func NewReaderService(categories CategoryStore, subscriptions SubscriptionStore, entries EntryStore, statuses StatusStore, parallel bool, logger *core.Logger) *ReaderService {
	return &ReaderService{
		subscriptions: subscriptions,
		entries:       entries,
		resolver:      NewCategoryResolver(categories),
		aggregator:    NewAggregator(entries, parallel, logger),
		tracker:       NewTracker(entries, statuses, logger),
		logger:        logger,
	}
}

// GetEntries returns the page of entries addressed by req for userID
func (s *ReaderService) GetEntries(ctx context.Context, userID int, req models.GetRequest) (*models.Entries, error) {
	if !req.Page.Valid() {
		return nil, core.NewValidationError(
			fmt.Sprintf("invalid page offset=%d limit=%d", req.Page.Offset, req.Page.Limit), nil)
	}

	unreadOnly := req.ReadType.UnreadOnly()

	switch target := req.Target.(type) {
	case models.FeedTarget:
		sub, err := s.subscriptions.FindByID(ctx, userID, target.SubscriptionID)
		if err != nil {
			return nil, err
		}
		return s.aggregator.ForSubscription(ctx, userID, *sub, req.Page, unreadOnly)

	case models.CategoryTarget:
		set, err := s.resolver.Resolve(ctx, userID, target)
		if err != nil {
			return nil, err
		}
		index, err := BuildIndex(ctx, s.subscriptions, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to index subscriptions: %w", err)
		}
		return s.aggregator.ForCategories(ctx, userID, set, index, req.Page, unreadOnly)

	case nil:
		return nil, core.NewValidationError("type is required", nil)

	default:
		return nil, core.NewValidationError(fmt.Sprintf("cannot get entries by %s", target.Kind()), nil)
	}
}

// Mark sets the read flag of the entry or feed addressed by req for userID. Only
// entries of feeds the user subscribes to can be marked.
func (s *ReaderService) Mark(ctx context.Context, userID int, req models.MarkRequest) error {
	logger := s.logger.WithUser(userID)

	switch target := req.Target.(type) {
	case models.EntryTarget:
		entry, err := s.entries.FindByID(ctx, target.EntryID)
		if err != nil {
			return err
		}
		if _, err := s.subscriptions.FindByFeed(ctx, userID, entry.FeedID); err != nil {
			if core.IsNotFound(err) {
				return core.NewNotFoundError(fmt.Sprintf("entry %d not found", target.EntryID), nil)
			}
			return err
		}
		if err := s.tracker.MarkEntry(ctx, userID, entry.ID, req.Read); err != nil {
			return fmt.Errorf("failed to mark entry %d: %w", entry.ID, err)
		}
		logger.Debug("Marked entry", "entry_id", entry.ID, "read", req.Read)
		return nil

	case models.FeedTarget:
		sub, err := s.subscriptions.FindByID(ctx, userID, target.SubscriptionID)
		if err != nil {
			return err
		}
		if _, err := s.tracker.MarkFeed(ctx, userID, *sub, req.Read); err != nil {
			return fmt.Errorf("failed to mark feed %d: %w", sub.ID, err)
		}
		return nil

	case nil:
		return core.NewValidationError("type is required", nil)

	default:
		return core.NewValidationError(fmt.Sprintf("cannot mark by %s", target.Kind()), nil)
	}
}
