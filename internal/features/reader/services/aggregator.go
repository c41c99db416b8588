package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// Aggregator assembles pages of entry views. The unread partition always comes
// first, then the read partition; each is paged with the same window.
type Aggregator struct {
	entries  EntryStore
	parallel bool
	logger   *core.Logger
}

// NewAggregator creates an aggregator. With parallel set both partitions are
// fetched concurrently; the output order is the same either way.
func NewAggregator(entries EntryStore, parallel bool, logger *core.Logger) *Aggregator {
	return &Aggregator{
		entries:  entries,
		parallel: parallel,
		logger:   logger,
	}
}

type partitions struct {
	unread []models.Entry
	read   []models.Entry
}

func (a *Aggregator) fetch(ctx context.Context, userID int, src models.EntrySource, page models.Page, unreadOnly bool) (partitions, error) {
	var p partitions

	if !a.parallel || unreadOnly {
		var err error
		if p.unread, err = a.entries.FetchEntries(ctx, userID, src, false, page); err != nil {
			return p, err
		}
		if unreadOnly {
			return p, nil
		}
		p.read, err = a.entries.FetchEntries(ctx, userID, src, true, page)
		return p, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p.unread, err = a.entries.FetchEntries(gctx, userID, src, false, page)
		return err
	})
	g.Go(func() error {
		var err error
		p.read, err = a.entries.FetchEntries(gctx, userID, src, true, page)
		return err
	})

	return p, g.Wait()
}

// ForSubscription returns the entries of the subscribed feed, named after the
// subscription title
func (a *Aggregator) ForSubscription(ctx context.Context, userID int, sub models.Subscription, page models.Page, unreadOnly bool) (*models.Entries, error) {
	p, err := a.fetch(ctx, userID, models.FeedSource(sub.FeedID), page, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries of subscription %d: %w", sub.ID, err)
	}

	views := make([]models.EntryView, 0, len(p.unread)+len(p.read))
	for _, entry := range p.unread {
		views = append(views, models.NewEntryView(entry, sub, false))
	}
	for _, entry := range p.read {
		views = append(views, models.NewEntryView(entry, sub, true))
	}

	return &models.Entries{Name: sub.Title, Entries: views}, nil
}

// ForCategories returns the entries of every feed in set. Each entry is labelled
// through index; an entry whose feed is missing from index is an inconsistency
// between the entry query and the subscription list and fails the request.
func (a *Aggregator) ForCategories(ctx context.Context, userID int, set models.CategorySet, index models.SubscriptionIndex, page models.Page, unreadOnly bool) (*models.Entries, error) {
	p, err := a.fetch(ctx, userID, models.CategorySource(set), page, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries of category %q: %w", set.Name, err)
	}

	views := make([]models.EntryView, 0, len(p.unread)+len(p.read))
	label := func(entries []models.Entry, read bool) error {
		for _, entry := range entries {
			sub, ok := index.Lookup(entry.FeedID)
			if !ok {
				a.logger.WithUser(userID).Error("Entry has no matching subscription",
					"entry_id", entry.ID, "feed_id", entry.FeedID, "category", set.Name)
				return core.NewInconsistentStateError(
					fmt.Sprintf("no subscription for feed %d of entry %d", entry.FeedID, entry.ID), nil)
			}
			views = append(views, models.NewEntryView(entry, sub, read))
		}
		return nil
	}

	if err := label(p.unread, false); err != nil {
		return nil, err
	}
	if err := label(p.read, true); err != nil {
		return nil, err
	}

	return &models.Entries{Name: set.Name, Entries: views}, nil
}
