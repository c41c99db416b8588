package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// EntryService reads feed entries joined with a user's subscriptions and statuses
type EntryService struct {
	db     *core.Database
	logger *core.Logger
}

// NewEntryService creates a new entry service
func NewEntryService(db *core.Database, logger *core.Logger) *EntryService {
	return &EntryService{
		db:     db,
		logger: logger,
	}
}

// buildEntryQuery selects one read partition of the entries reachable from src,
// newest first. Entries of feeds the user does not subscribe to never match.
func buildEntryQuery(userID int, src models.EntrySource, read bool, page models.Page) (string, []interface{}) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("e.id", "e.feed_id", "e.title", "e.content", "e.url", "e.updated")
	sb.From("reader_entries e")
	sb.Join("reader_subscriptions s", "s.feed_id = e.feed_id", sb.Equal("s.user_id", userID))
	sb.JoinWithOption(sqlbuilder.LeftJoin, "reader_entry_statuses st", "st.entry_id = e.id", "st.user_id = s.user_id")

	switch {
	case src.Categories == nil:
		sb.Where(sb.Equal("e.feed_id", src.FeedID))
	case !src.Categories.All:
		sb.Where(sb.In("s.category_id", lo.ToAnySlice(src.Categories.IDs())...))
	}

	if read {
		sb.Where(sb.Equal("st.is_read", true))
	} else {
		sb.Where(sb.Or(sb.IsNull("st.is_read"), sb.Equal("st.is_read", false)))
	}

	// Offsets in stored timestamps make text order differ from time order
	sb.OrderBy("julianday(e.updated) DESC", "e.id DESC")

	query, args := sb.Build()

	// SQLite treats a negative limit as no limit
	query += " LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset)

	return query, args
}

// FetchEntries returns one page of the read or unread partition of src
func (s *EntryService) FetchEntries(ctx context.Context, userID int, src models.EntrySource, read bool, page models.Page) ([]models.Entry, error) {
	if page.Empty() {
		return nil, nil
	}
	if src.Categories != nil && !src.Categories.All && len(src.Categories.Categories) == 0 {
		return nil, nil
	}

	query, args := buildEntryQuery(userID, src, read, page)

	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var entry models.Entry
		if err := rows.Scan(&entry.ID, &entry.FeedID, &entry.Title, &entry.Content, &entry.URL, &entry.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}

// FindByID retrieves an entry by ID
func (s *EntryService) FindByID(ctx context.Context, id int) (*models.Entry, error) {
	ctx, cancel := s.db.WithTimeout(ctx)
	defer cancel()

	var entry models.Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, feed_id, title, content, url, updated FROM reader_entries WHERE id = ?`, id,
	).Scan(&entry.ID, &entry.FeedID, &entry.Title, &entry.Content, &entry.URL, &entry.Updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError(fmt.Sprintf("entry %d not found", id), nil)
		}
		return nil, fmt.Errorf("failed to get entry %d: %w", id, err)
	}

	return &entry, nil
}
