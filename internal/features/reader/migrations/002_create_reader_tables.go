package migrations

import (
	"feedmark/internal/core"
)

// Migration002CreateReaderTables creates the feed, category, subscription, entry and
// read-status tables
var Migration002CreateReaderTables = core.Migration{
	Version:     2,
	Name:        "create_reader_tables",
	Description: "Create reader feed, category, subscription, entry and status tables",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS reader_feeds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Per-user category tree
		CREATE TABLE IF NOT EXISTS reader_categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			parent_id INTEGER REFERENCES reader_categories(id) ON DELETE CASCADE
		);

		-- One subscription per (user, feed)
		CREATE TABLE IF NOT EXISTS reader_subscriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			feed_id INTEGER NOT NULL REFERENCES reader_feeds(id) ON DELETE CASCADE,
			category_id INTEGER REFERENCES reader_categories(id) ON DELETE SET NULL,
			title TEXT NOT NULL,
			UNIQUE(user_id, feed_id)
		);

		CREATE TABLE IF NOT EXISTS reader_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			feed_id INTEGER NOT NULL REFERENCES reader_feeds(id) ON DELETE CASCADE,
			guid TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			updated DATETIME NOT NULL,
			UNIQUE(feed_id, guid)
		);

		-- One status per (user, entry); no row means unread
		CREATE TABLE IF NOT EXISTS reader_entry_statuses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			entry_id INTEGER NOT NULL REFERENCES reader_entries(id) ON DELETE CASCADE,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			UNIQUE(user_id, entry_id)
		);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS reader_entry_statuses;
		DROP TABLE IF EXISTS reader_entries;
		DROP TABLE IF EXISTS reader_subscriptions;
		DROP TABLE IF EXISTS reader_categories;
		DROP TABLE IF EXISTS reader_feeds;
	`,
}

// Migration003CreateReaderIndexes adds the lookup indexes used by entry pagination
var Migration003CreateReaderIndexes = core.Migration{
	Version:     3,
	Name:        "create_reader_indexes",
	Description: "Index reader tables for partition queries",
	UpSQL: `
		CREATE INDEX IF NOT EXISTS idx_reader_categories_user ON reader_categories(user_id);
		CREATE INDEX IF NOT EXISTS idx_reader_subscriptions_category ON reader_subscriptions(category_id);
		CREATE INDEX IF NOT EXISTS idx_reader_entries_feed_updated ON reader_entries(feed_id, julianday(updated) DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_reader_entry_statuses_entry ON reader_entry_statuses(entry_id);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_reader_entry_statuses_entry;
		DROP INDEX IF EXISTS idx_reader_entries_feed_updated;
		DROP INDEX IF EXISTS idx_reader_subscriptions_category;
		DROP INDEX IF EXISTS idx_reader_categories_user;
	`,
}
