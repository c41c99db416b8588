package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"feedmark/internal/auth"
	"feedmark/internal/core"
	"feedmark/internal/features/reader/migrations"
	"feedmark/internal/features/reader/models"
)

// fixture is a migrated in-memory database with helpers to seed reader data
type fixture struct {
	t      *testing.T
	db     *core.Database
	logger *core.Logger
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:?_time_format=sqlite")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	logger := core.NewLoggerFromConfig(core.LogConfig{Level: "error"}, io.Discard)
	db := core.NewDatabase(sqlDB, logger)

	ctx := context.Background()
	require.NoError(t, core.NewMigrationService(db, logger).ApplyAll(ctx, auth.Migrations))
	require.NoError(t, migrations.NewManager(db, logger).Migrate(ctx))

	return &fixture{
		t:      t,
		db:     db,
		logger: logger,
		clock:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) insert(query string, args ...any) int {
	f.t.Helper()
	res, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
	id, err := res.LastInsertId()
	require.NoError(f.t, err)
	return int(id)
}

func (f *fixture) user(name string) int {
	return f.insert(`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		name, name+"@example.com", []byte("x"))
}

func (f *fixture) feed(title string) int {
	return f.insert(`INSERT INTO reader_feeds (url, title) VALUES (?, ?)`,
		"https://example.com/"+title, title)
}

func (f *fixture) category(userID int, name string, parentID *int) int {
	return f.insert(`INSERT INTO reader_categories (user_id, name, parent_id) VALUES (?, ?, ?)`,
		userID, name, parentID)
}

func (f *fixture) subscribe(userID, feedID int, categoryID *int, title string) int {
	return f.insert(`INSERT INTO reader_subscriptions (user_id, feed_id, category_id, title) VALUES (?, ?, ?, ?)`,
		userID, feedID, categoryID, title)
}

// entries adds n entries to feedID, each newer than every entry added before it
func (f *fixture) entries(feedID, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		f.clock = f.clock.Add(time.Minute)
		ids[i] = f.insert(`INSERT INTO reader_entries (feed_id, guid, title, content, url, updated) VALUES (?, ?, ?, ?, ?, ?)`,
			feedID, fmt.Sprintf("%d-%d", feedID, f.clock.Unix()), fmt.Sprintf("entry %d", i),
			"body", "https://example.com/e", f.clock)
	}
	return ids
}

func (f *fixture) entryAt(feedID int, guid string, updated time.Time) int {
	return f.insert(`INSERT INTO reader_entries (feed_id, guid, title, content, url, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		feedID, guid, guid, "body", "https://example.com/"+guid, updated)
}

func (f *fixture) setStatus(userID, entryID int, read bool) {
	f.insert(`INSERT INTO reader_entry_statuses (user_id, entry_id, is_read, updated_at) VALUES (?, ?, ?, ?)`,
		userID, entryID, read, f.clock)
}

func (f *fixture) statusRows(userID int) map[int]bool {
	f.t.Helper()
	rows, err := f.db.Query(`SELECT entry_id, is_read FROM reader_entry_statuses WHERE user_id = ?`, userID)
	require.NoError(f.t, err)
	defer rows.Close()

	statuses := make(map[int]bool)
	for rows.Next() {
		var entryID int
		var read bool
		require.NoError(f.t, rows.Scan(&entryID, &read))
		_, dup := statuses[entryID]
		require.False(f.t, dup, "duplicate status for entry %d", entryID)
		statuses[entryID] = read
	}
	require.NoError(f.t, rows.Err())
	return statuses
}

func (f *fixture) service(parallel bool) *ReaderService {
	return NewReaderService(
		NewCategoryService(f.db, f.logger),
		NewSubscriptionService(f.db, f.logger),
		NewEntryService(f.db, f.logger),
		NewStatusService(f.db, f.logger),
		parallel,
		f.logger,
	)
}

func intPtr(v int) *int { return &v }

// reversed returns ids newest first, the order entries come back in
func reversed(ids []int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func viewIDs(t *testing.T, views []models.EntryView) []int {
	t.Helper()
	ids := make([]int, len(views))
	for i, v := range views {
		id, err := strconv.Atoi(v.ID)
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}
