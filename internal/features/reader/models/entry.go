package models

import (
	"strconv"
	"time"
)

// Entry is one piece of feed content. Entries are written by the feed store only.
type Entry struct {
	ID      int       `json:"id"`
	FeedID  int       `json:"feed_id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	URL     string    `json:"url"`
	Updated time.Time `json:"updated"`
}

// EntryView is an entry enriched with the owning subscription and its read flag
type EntryView struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Date     time.Time `json:"date"`
	URL      string    `json:"url"`
	FeedID   string    `json:"feedId"`
	FeedName string    `json:"feedName"`
	Read     bool      `json:"read"`
}

// NewEntryView builds the view of e as seen through sub. read is the flag of the
// partition that produced e.
func NewEntryView(e Entry, sub Subscription, read bool) EntryView {
	return EntryView{
		ID:       strconv.Itoa(e.ID),
		Title:    e.Title,
		Content:  e.Content,
		Date:     e.Updated,
		URL:      e.URL,
		FeedID:   strconv.Itoa(sub.ID),
		FeedName: sub.Title,
		Read:     read,
	}
}

// Entries is a named, ordered page of entry views
type Entries struct {
	Name    string      `json:"name"`
	Entries []EntryView `json:"entries"`
}

// EntrySource is what an entry fetch is evaluated against: a single feed, or the
// feeds reachable through a category set.
type EntrySource struct {
	FeedID     int
	Categories *CategorySet
}

// FeedSource addresses a single feed
func FeedSource(feedID int) EntrySource {
	return EntrySource{FeedID: feedID}
}

// CategorySource addresses the feeds of a category set
func CategorySource(set CategorySet) EntrySource {
	return EntrySource{Categories: &set}
}

// Unbounded is the limit value that disables the page size
const Unbounded = -1

// Page is an offset/limit window applied to each partition separately
type Page struct {
	Offset int
	Limit  int
}

// Valid reports whether the window is usable
func (p Page) Valid() bool {
	return p.Offset >= 0 && p.Limit >= Unbounded
}

// Empty reports whether the window can never hold an entry
func (p Page) Empty() bool {
	return p.Limit == 0
}
