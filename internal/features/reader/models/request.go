package models

import (
	"fmt"
	"strconv"
)

// Target is the addressing mode of a request: a feed, a category or an entry.
type Target interface {
	Kind() string
	isTarget()
}

// FeedTarget addresses a feed through the requesting user's subscription id
type FeedTarget struct {
	SubscriptionID int
}

// CategoryTarget addresses a category subtree, or every subscription when All is set
type CategoryTarget struct {
	CategoryID int
	All        bool
}

// EntryTarget addresses a single entry
type EntryTarget struct {
	EntryID int
}

func (FeedTarget) Kind() string     { return "feed" }
func (CategoryTarget) Kind() string { return "category" }
func (EntryTarget) Kind() string    { return "entry" }

func (FeedTarget) isTarget()     {}
func (CategoryTarget) isTarget() {}
func (EntryTarget) isTarget()    {}

// ParseTarget builds a Target from the wire type and id. Only category ids may be
// the literal "all".
func ParseTarget(kind, id string) (Target, error) {
	if kind == "" {
		return nil, fmt.Errorf("type is required")
	}
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	if kind == "category" && id == AllCategories {
		return CategoryTarget{All: true}, nil
	}

	var target Target
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid %s id %q", kind, id)
	}

	switch kind {
	case "feed":
		target = FeedTarget{SubscriptionID: numericID}
	case "category":
		target = CategoryTarget{CategoryID: numericID}
	case "entry":
		target = EntryTarget{EntryID: numericID}
	default:
		return nil, fmt.Errorf("unknown type %q", kind)
	}

	return target, nil
}

// ReadType filters entries by read state
type ReadType string

const (
	ReadTypeAll    ReadType = "all"
	ReadTypeUnread ReadType = "unread"
)

// ParseReadType validates a wire read type
func ParseReadType(value string) (ReadType, error) {
	switch ReadType(value) {
	case ReadTypeAll, ReadTypeUnread:
		return ReadType(value), nil
	case "":
		return "", fmt.Errorf("readType is required")
	default:
		return "", fmt.Errorf("unknown readType %q", value)
	}
}

// UnreadOnly reports whether the read partition is skipped
func (t ReadType) UnreadOnly() bool {
	return t == ReadTypeUnread
}

// GetRequest asks for a page of entries
type GetRequest struct {
	Target   Target
	ReadType ReadType
	Page     Page
}

// MarkRequest sets the read flag of one entry or of every entry of a feed
type MarkRequest struct {
	Target Target
	Read   bool
}
