package models

// Subscription binds a user to a feed, with the title the user picked
type Subscription struct {
	ID         int    `json:"id"`
	UserID     int    `json:"user_id"`
	FeedID     int    `json:"feed_id"`
	CategoryID *int   `json:"category_id,omitempty"`
	Title      string `json:"title"`
}

// SubscriptionIndex maps a feed id to the user's subscription of that feed
type SubscriptionIndex map[int]Subscription

// Lookup returns the subscription of feedID, if any
func (idx SubscriptionIndex) Lookup(feedID int) (Subscription, bool) {
	sub, ok := idx[feedID]
	return sub, ok
}
