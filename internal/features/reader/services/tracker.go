package services

import (
	"context"
	"fmt"
	"time"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// Tracker sets per-user read statuses
type Tracker struct {
	entries  EntryStore
	statuses StatusStore
	logger   *core.Logger
	now      func() time.Time
}

// NewTracker creates a status tracker
func NewTracker(entries EntryStore, statuses StatusStore, logger *core.Logger) *Tracker {
	return &Tracker{
		entries:  entries,
		statuses: statuses,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MarkEntry sets the read flag of one entry for userID. A status row is created on
// the first mark and updated on every later one.
func (t *Tracker) MarkEntry(ctx context.Context, userID, entryID int, read bool) error {
	status, err := t.statuses.GetStatus(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if !status.Exists() {
		status = &models.ReadStatus{UserID: userID, EntryID: entryID}
	}

	status.Read = read
	status.UpdatedAt = t.now()

	if err := t.statuses.UpsertStatus(ctx, status); err != nil {
		return err
	}

	return nil
}

// MarkFeed sets the read flag of the feed entries of sub and returns how many were
// touched. Marking read touches both partitions; marking unread touches only the
// read partition. Writes already applied are kept when a later one fails or ctx is
// cancelled.
func (t *Tracker) MarkFeed(ctx context.Context, userID int, sub models.Subscription, read bool) (int, error) {
	src := models.FeedSource(sub.FeedID)
	all := models.Page{Limit: models.Unbounded}

	var touched []models.Entry
	if read {
		unread, err := t.entries.FetchEntries(ctx, userID, src, false, all)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch unread entries of feed %d: %w", sub.FeedID, err)
		}
		touched = append(touched, unread...)
	}

	alreadyRead, err := t.entries.FetchEntries(ctx, userID, src, true, all)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch read entries of feed %d: %w", sub.FeedID, err)
	}
	touched = append(touched, alreadyRead...)

	marked := 0
	for _, entry := range touched {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		if err := t.MarkEntry(ctx, userID, entry.ID, read); err != nil {
			return marked, fmt.Errorf("failed to mark entry %d after %d of %d: %w", entry.ID, marked, len(touched), err)
		}
		marked++
	}

	t.logger.WithUser(userID).Debug("Marked feed entries",
		"subscription_id", sub.ID, "feed_id", sub.FeedID, "read", read, "count", marked)

	return marked, nil
}
