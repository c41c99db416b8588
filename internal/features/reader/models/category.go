package models

// Category groups a user's subscriptions into a tree
type Category struct {
	ID       int    `json:"id"`
	UserID   int    `json:"user_id"`
	Name     string `json:"name"`
	ParentID *int   `json:"parent_id,omitempty"`
}

// AllCategories is the category id that addresses every subscription of a user
const AllCategories = "all"

// CategorySet is a resolved category query scope
type CategorySet struct {
	Name       string
	All        bool
	Categories []Category
}

// IDs returns the ids of the categories in the set
func (s CategorySet) IDs() []int {
	ids := make([]int, len(s.Categories))
	for i, category := range s.Categories {
		ids[i] = category.ID
	}
	return ids
}
