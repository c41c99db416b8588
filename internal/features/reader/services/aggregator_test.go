package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

// stubEntries serves canned partitions and records every fetch
type stubEntries struct {
	mu     sync.Mutex
	unread []models.Entry
	read   []models.Entry
	delay  time.Duration
	err    error
	calls  []bool
}

func (s *stubEntries) FetchEntries(ctx context.Context, userID int, src models.EntrySource, read bool, page models.Page) ([]models.Entry, error) {
	s.mu.Lock()
	s.calls = append(s.calls, read)
	s.mu.Unlock()

	if !read && s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if read {
		return s.read, nil
	}
	return s.unread, nil
}

func (s *stubEntries) FindByID(ctx context.Context, id int) (*models.Entry, error) {
	for _, e := range append(append([]models.Entry{}, s.unread...), s.read...) {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, core.NewNotFoundError("entry not found", nil)
}

func discardLogger() *core.Logger {
	return core.NewLoggerFromConfig(core.LogConfig{Level: "error"}, io.Discard)
}

func TestAggregatorKeepsPartitionOrder(t *testing.T) {
	sub := models.Subscription{ID: 7, FeedID: 1, Title: "Go"}
	stub := &stubEntries{
		unread: []models.Entry{{ID: 3, FeedID: 1}, {ID: 2, FeedID: 1}},
		read:   []models.Entry{{ID: 1, FeedID: 1}},
		delay:  20 * time.Millisecond,
	}

	result, err := NewAggregator(stub, true, discardLogger()).
		ForSubscription(context.Background(), 1, sub, unbounded, false)
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "Go", result.Name)
	assert.Equal(t, []string{"3", "2", "1"}, []string{result.Entries[0].ID, result.Entries[1].ID, result.Entries[2].ID})
	assert.False(t, result.Entries[0].Read)
	assert.False(t, result.Entries[1].Read)
	assert.True(t, result.Entries[2].Read)
	assert.Equal(t, "7", result.Entries[2].FeedID)
}

func TestAggregatorUnreadOnlySkipsReadFetch(t *testing.T) {
	stub := &stubEntries{
		unread: []models.Entry{{ID: 2, FeedID: 1}},
		read:   []models.Entry{{ID: 1, FeedID: 1}},
	}

	for _, parallel := range []bool{false, true} {
		stub.calls = nil
		result, err := NewAggregator(stub, parallel, discardLogger()).
			ForSubscription(context.Background(), 1, models.Subscription{FeedID: 1}, unbounded, true)
		require.NoError(t, err)

		assert.Equal(t, []bool{false}, stub.calls)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "2", result.Entries[0].ID)
	}
}

func TestAggregatorMissingSubscription(t *testing.T) {
	stub := &stubEntries{
		unread: []models.Entry{{ID: 10, FeedID: 1}},
		read:   []models.Entry{{ID: 11, FeedID: 99}},
	}
	index := models.SubscriptionIndex{1: {ID: 5, FeedID: 1, Title: "Go"}}
	set := models.CategorySet{Name: models.AllCategories, All: true}

	_, err := NewAggregator(stub, false, discardLogger()).
		ForCategories(context.Background(), 1, set, index, unbounded, false)

	require.Error(t, err)
	assert.True(t, core.IsInconsistentState(err), "got %v", err)
	assert.Contains(t, err.Error(), "feed 99")
}

func TestAggregatorPropagatesFetchError(t *testing.T) {
	boom := errors.New("disk on fire")
	stub := &stubEntries{err: boom}

	_, err := NewAggregator(stub, true, discardLogger()).
		ForSubscription(context.Background(), 1, models.Subscription{ID: 3, FeedID: 1}, unbounded, false)

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "subscription 3")
}

func TestCollectDescendants(t *testing.T) {
	categories := []models.Category{
		{ID: 1, Name: "root"},
		{ID: 2, Name: "child", ParentID: intPtr(1)},
		{ID: 3, Name: "grandchild", ParentID: intPtr(2)},
		{ID: 4, Name: "other"},
		// 5 and 6 point at each other
		{ID: 5, Name: "loop-a", ParentID: intPtr(6)},
		{ID: 6, Name: "loop-b", ParentID: intPtr(5)},
	}

	ids := func(cs []models.Category) []int {
		out := make([]int, len(cs))
		for i, c := range cs {
			out[i] = c.ID
		}
		return out
	}

	subtree, ok := collectDescendants(categories, 1)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, ids(subtree))

	subtree, ok = collectDescendants(categories, 3)
	require.True(t, ok)
	assert.Equal(t, []int{3}, ids(subtree))

	subtree, ok = collectDescendants(categories, 5)
	require.True(t, ok)
	assert.Equal(t, []int{5, 6}, ids(subtree))

	_, ok = collectDescendants(categories, 42)
	assert.False(t, ok)
}
