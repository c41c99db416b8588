package services

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/models"
)

var unbounded = models.Page{Limit: models.Unbounded}

// feedWithStatuses seeds a subscribed feed with unread then read entries and returns
// the subscription id and both id lists
func feedWithStatuses(f *fixture, userID int, title string, unread, read int) (int, []int, []int) {
	feedID := f.feed(title)
	subID := f.subscribe(userID, feedID, nil, title+" (mine)")
	unreadIDs := f.entries(feedID, unread)
	readIDs := f.entries(feedID, read)
	for _, id := range readIDs {
		f.setStatus(userID, id, true)
	}
	return subID, unreadIDs, readIDs
}

func TestGetEntriesFeedPagination(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run("parallel="+strconv.FormatBool(parallel), func(t *testing.T) {
			f := newFixture(t)
			userID := f.user("alice")
			subID, unreadIDs, readIDs := feedWithStatuses(f, userID, "golang", 5, 5)

			result, err := f.service(parallel).GetEntries(context.Background(), userID, models.GetRequest{
				Target:   models.FeedTarget{SubscriptionID: subID},
				ReadType: models.ReadTypeAll,
				Page:     models.Page{Offset: 0, Limit: 2},
			})
			require.NoError(t, err)

			assert.Equal(t, "golang (mine)", result.Name)
			require.Len(t, result.Entries, 4)

			ids := viewIDs(t, result.Entries)
			assert.Equal(t, reversed(unreadIDs)[:2], ids[:2])
			assert.Equal(t, reversed(readIDs)[:2], ids[2:])

			for i, view := range result.Entries {
				assert.Equal(t, i >= 2, view.Read, "entry %d", i)
				assert.Equal(t, strconv.Itoa(subID), view.FeedID)
				assert.Equal(t, "golang (mine)", view.FeedName)
			}
		})
	}
}

func TestGetEntriesOffsetAppliesToEachPartition(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	subID, unreadIDs, readIDs := feedWithStatuses(f, userID, "golang", 3, 3)

	result, err := f.service(false).GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.FeedTarget{SubscriptionID: subID},
		ReadType: models.ReadTypeAll,
		Page:     models.Page{Offset: 2, Limit: models.Unbounded},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{reversed(unreadIDs)[2], reversed(readIDs)[2]}, viewIDs(t, result.Entries))
}

func TestGetEntriesOrdersByInstantAcrossOffsets(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	feedID := f.feed("world")
	subID := f.subscribe(userID, feedID, nil, "world")

	paris := time.FixedZone("CET", 60*60)
	newYork := time.FixedZone("EST", -5*60*60)
	oldest := f.entryAt(feedID, "paris", time.Date(2024, 3, 1, 9, 1, 0, 0, paris))
	middle := f.entryAt(feedID, "london", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC))
	newest := f.entryAt(feedID, "new-york", time.Date(2024, 3, 1, 3, 45, 0, 0, newYork))

	service := f.service(false)
	result, err := service.GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.FeedTarget{SubscriptionID: subID},
		ReadType: models.ReadTypeAll,
		Page:     unbounded,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{newest, middle, oldest}, viewIDs(t, result.Entries))

	result, err = service.GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.FeedTarget{SubscriptionID: subID},
		ReadType: models.ReadTypeUnread,
		Page:     models.Page{Offset: 1, Limit: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{middle}, viewIDs(t, result.Entries))
}

func TestGetEntriesZeroLimit(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	subID, _, _ := feedWithStatuses(f, userID, "golang", 2, 2)

	result, err := f.service(false).GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.FeedTarget{SubscriptionID: subID},
		ReadType: models.ReadTypeAll,
		Page:     models.Page{Limit: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, "golang (mine)", result.Name)
	assert.Empty(t, result.Entries)
}

func TestGetEntriesUnreadOnly(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	subID, unreadIDs, _ := feedWithStatuses(f, userID, "golang", 3, 2)

	result, err := f.service(true).GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.FeedTarget{SubscriptionID: subID},
		ReadType: models.ReadTypeUnread,
		Page:     unbounded,
	})
	require.NoError(t, err)

	assert.Equal(t, reversed(unreadIDs), viewIDs(t, result.Entries))
	for _, view := range result.Entries {
		assert.False(t, view.Read)
	}
}

func TestGetEntriesExplicitUnreadStatus(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	feedID := f.feed("golang")
	subID := f.subscribe(userID, feedID, nil, "golang")
	ids := f.entries(feedID, 2)
	f.setStatus(userID, ids[0], false)

	result, err := f.service(false).GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.FeedTarget{SubscriptionID: subID},
		ReadType: models.ReadTypeUnread,
		Page:     unbounded,
	})
	require.NoError(t, err)
	assert.Equal(t, reversed(ids), viewIDs(t, result.Entries))
}

func TestGetEntriesStatusesArePerUser(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")

	feedID := f.feed("golang")
	aliceSub := f.subscribe(alice, feedID, nil, "go")
	bobSub := f.subscribe(bob, feedID, nil, "golang news")
	ids := f.entries(feedID, 2)
	f.setStatus(alice, ids[0], true)

	svc := f.service(false)

	result, err := svc.GetEntries(context.Background(), bob, models.GetRequest{
		Target: models.FeedTarget{SubscriptionID: bobSub}, ReadType: models.ReadTypeUnread, Page: unbounded,
	})
	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, "golang news", result.Entries[0].FeedName)

	result, err = svc.GetEntries(context.Background(), alice, models.GetRequest{
		Target: models.FeedTarget{SubscriptionID: aliceSub}, ReadType: models.ReadTypeUnread, Page: unbounded,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{ids[1]}, viewIDs(t, result.Entries))
}

func TestGetEntriesForeignSubscription(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	subID, _, _ := feedWithStatuses(f, alice, "golang", 1, 0)

	_, err := f.service(false).GetEntries(context.Background(), bob, models.GetRequest{
		Target: models.FeedTarget{SubscriptionID: subID}, ReadType: models.ReadTypeAll, Page: unbounded,
	})
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func TestGetEntriesCategoryTree(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")

	tech := f.category(userID, "tech", nil)
	golang := f.category(userID, "golang", intPtr(tech))
	news := f.category(userID, "news", nil)

	goFeed := f.feed("go-blog")
	techFeed := f.feed("hn")
	newsFeed := f.feed("bbc")
	goSub := f.subscribe(userID, goFeed, intPtr(golang), "Go Blog")
	techSub := f.subscribe(userID, techFeed, intPtr(tech), "Hacker News")
	f.subscribe(userID, newsFeed, intPtr(news), "BBC")

	goEntries := f.entries(goFeed, 2)
	techEntries := f.entries(techFeed, 1)
	f.entries(newsFeed, 2)
	f.setStatus(userID, goEntries[0], true)

	result, err := f.service(true).GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.CategoryTarget{CategoryID: tech},
		ReadType: models.ReadTypeAll,
		Page:     unbounded,
	})
	require.NoError(t, err)

	assert.Equal(t, "tech", result.Name)
	assert.Equal(t, []int{techEntries[0], goEntries[1], goEntries[0]}, viewIDs(t, result.Entries))
	assert.Equal(t, []bool{false, false, true}, []bool{
		result.Entries[0].Read, result.Entries[1].Read, result.Entries[2].Read,
	})
	assert.Equal(t, strconv.Itoa(techSub), result.Entries[0].FeedID)
	assert.Equal(t, "Hacker News", result.Entries[0].FeedName)
	assert.Equal(t, strconv.Itoa(goSub), result.Entries[1].FeedID)
	assert.Equal(t, "Go Blog", result.Entries[2].FeedName)

	// A leaf category only sees its own feeds
	result, err = f.service(false).GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.CategoryTarget{CategoryID: golang},
		ReadType: models.ReadTypeUnread,
		Page:     unbounded,
	})
	require.NoError(t, err)
	assert.Equal(t, "golang", result.Name)
	assert.Equal(t, []int{goEntries[1]}, viewIDs(t, result.Entries))
}

func TestGetEntriesCategoryAll(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	other := f.user("bob")

	tech := f.category(userID, "tech", nil)
	techFeed := f.feed("hn")
	looseFeed := f.feed("loose")
	foreignFeed := f.feed("foreign")
	f.subscribe(userID, techFeed, intPtr(tech), "HN")
	f.subscribe(userID, looseFeed, nil, "Loose")
	f.subscribe(other, foreignFeed, nil, "Foreign")

	techEntries := f.entries(techFeed, 1)
	looseEntries := f.entries(looseFeed, 1)
	f.entries(foreignFeed, 3)

	result, err := f.service(false).GetEntries(context.Background(), userID, models.GetRequest{
		Target:   models.CategoryTarget{All: true},
		ReadType: models.ReadTypeAll,
		Page:     unbounded,
	})
	require.NoError(t, err)

	assert.Equal(t, models.AllCategories, result.Name)
	assert.ElementsMatch(t, []int{techEntries[0], looseEntries[0]}, viewIDs(t, result.Entries))
}

func TestGetEntriesUnknownCategory(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	foreign := f.category(bob, "mine", nil)

	for _, id := range []int{foreign, 9999} {
		_, err := f.service(false).GetEntries(context.Background(), alice, models.GetRequest{
			Target: models.CategoryTarget{CategoryID: id}, ReadType: models.ReadTypeAll, Page: unbounded,
		})
		assert.True(t, core.IsNotFound(err), "category %d: got %v", id, err)
	}
}

func TestGetEntriesRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	svc := f.service(false)

	tests := []struct {
		name string
		req  models.GetRequest
	}{
		{"entry target", models.GetRequest{Target: models.EntryTarget{EntryID: 1}, ReadType: models.ReadTypeAll, Page: unbounded}},
		{"missing target", models.GetRequest{ReadType: models.ReadTypeAll, Page: unbounded}},
		{"negative offset", models.GetRequest{Target: models.CategoryTarget{All: true}, Page: models.Page{Offset: -1, Limit: 1}}},
		{"limit below unbounded", models.GetRequest{Target: models.CategoryTarget{All: true}, Page: models.Page{Limit: -2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetEntries(context.Background(), userID, tt.req)
			assert.True(t, core.IsValidation(err), "got %v", err)
		})
	}
}

func TestMarkEntryUniqueAndIdempotent(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	feedID := f.feed("golang")
	f.subscribe(userID, feedID, nil, "golang")
	entryID := f.entries(feedID, 1)[0]

	svc := f.service(false)
	mark := func(read bool) {
		require.NoError(t, svc.Mark(context.Background(), userID, models.MarkRequest{
			Target: models.EntryTarget{EntryID: entryID}, Read: read,
		}))
	}

	mark(true)
	mark(true)
	assert.Equal(t, map[int]bool{entryID: true}, f.statusRows(userID))

	mark(false)
	assert.Equal(t, map[int]bool{entryID: false}, f.statusRows(userID))
}

func TestMarkEntryConcurrent(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	feedID := f.feed("golang")
	f.subscribe(userID, feedID, nil, "golang")
	entryID := f.entries(feedID, 1)[0]

	svc := f.service(false)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(read bool) {
			defer wg.Done()
			errs <- svc.Mark(context.Background(), userID, models.MarkRequest{
				Target: models.EntryTarget{EntryID: entryID}, Read: read,
			})
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, f.statusRows(userID), 1)
}

func TestMarkEntryOfUnsubscribedFeed(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	feedID := f.feed("golang")
	f.subscribe(bob, feedID, nil, "golang")
	entryID := f.entries(feedID, 1)[0]

	svc := f.service(false)

	err := svc.Mark(context.Background(), alice, models.MarkRequest{Target: models.EntryTarget{EntryID: entryID}, Read: true})
	assert.True(t, core.IsNotFound(err), "got %v", err)

	err = svc.Mark(context.Background(), alice, models.MarkRequest{Target: models.EntryTarget{EntryID: 4242}, Read: true})
	assert.True(t, core.IsNotFound(err), "got %v", err)

	assert.Empty(t, f.statusRows(alice))
}

func TestMarkFeedRead(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	subID, unreadIDs, readIDs := feedWithStatuses(f, userID, "golang", 3, 2)

	svc := f.service(false)
	require.NoError(t, svc.Mark(context.Background(), userID, models.MarkRequest{
		Target: models.FeedTarget{SubscriptionID: subID}, Read: true,
	}))

	statuses := f.statusRows(userID)
	assert.Len(t, statuses, 5)
	for _, id := range append(unreadIDs, readIDs...) {
		assert.True(t, statuses[id], "entry %d", id)
	}

	result, err := svc.GetEntries(context.Background(), userID, models.GetRequest{
		Target: models.FeedTarget{SubscriptionID: subID}, ReadType: models.ReadTypeAll, Page: unbounded,
	})
	require.NoError(t, err)
	require.Len(t, result.Entries, 5)
	for _, view := range result.Entries {
		assert.True(t, view.Read)
	}
}

func TestMarkFeedUnread(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")
	subID, unreadIDs, readIDs := feedWithStatuses(f, userID, "golang", 3, 2)

	require.NoError(t, f.service(false).Mark(context.Background(), userID, models.MarkRequest{
		Target: models.FeedTarget{SubscriptionID: subID}, Read: false,
	}))

	statuses := f.statusRows(userID)
	assert.Equal(t, map[int]bool{readIDs[0]: false, readIDs[1]: false}, statuses)
	for _, id := range unreadIDs {
		_, ok := statuses[id]
		assert.False(t, ok, "entry %d gained a status row", id)
	}
}

func TestMarkFeedOnlyTouchesRequestingUser(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")

	feedID := f.feed("golang")
	aliceSub := f.subscribe(alice, feedID, nil, "go")
	f.subscribe(bob, feedID, nil, "go")
	f.entries(feedID, 3)

	svc := f.service(false)

	err := svc.Mark(context.Background(), bob, models.MarkRequest{Target: models.FeedTarget{SubscriptionID: aliceSub}, Read: true})
	assert.True(t, core.IsNotFound(err), "got %v", err)

	require.NoError(t, svc.Mark(context.Background(), alice, models.MarkRequest{Target: models.FeedTarget{SubscriptionID: aliceSub}, Read: true}))
	assert.Len(t, f.statusRows(alice), 3)
	assert.Empty(t, f.statusRows(bob))
}

func TestMarkRejectsCategoryTarget(t *testing.T) {
	f := newFixture(t)
	userID := f.user("alice")

	err := f.service(false).Mark(context.Background(), userID, models.MarkRequest{
		Target: models.CategoryTarget{All: true}, Read: true,
	})
	assert.True(t, core.IsValidation(err), "got %v", err)
}
