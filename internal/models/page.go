// ABOUTME: Page identity types shared by every layer: keys, source types and collections
// ABOUTME: Also defines the relay event actions emitted when favorite state changes

package models

import "fmt"

// PageKey identifies a page. It is the decoded wiki path segment, e.g. "Rust_(programming_language)".
type PageKey string

// SourceType names the collection a trashed record came from.
type SourceType string

const (
	SourceFavorites SourceType = "favorites"
	SourceHistory   SourceType = "history"
)

// Valid reports whether s is one of the two trashable collections.
func (s SourceType) Valid() bool {
	return s == SourceFavorites || s == SourceHistory
}

// ParseSourceType converts user input into a SourceType.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid source type %q (want favorites or history)", s)
	}
	return st, nil
}

// Collection names one of the three persisted collections.
type Collection string

const (
	CollectionFavorites Collection = "favorites"
	CollectionHistory   Collection = "history"
	CollectionTrash     Collection = "trash"
)

// Collections lists every collection in storage order.
var Collections = []Collection{CollectionFavorites, CollectionHistory, CollectionTrash}

// ParseCollection converts user input into a Collection.
func ParseCollection(s string) (Collection, error) {
	for _, c := range Collections {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q (want favorites, history or trash)", s)
}

// Page is the output of identifier resolution for a single page view.
type Page struct {
	Key          PageKey
	URL          string
	DisplayTitle string
}

// Action is the relay action emitted after a state change.
type Action string

const (
	ActionFavorited      Action = "favorited"
	ActionUnfavorited    Action = "unfavorited"
	ActionToggleFavorite Action = "toggleFavorite"
)

// Event describes a favorite-state change for observers.
type Event struct {
	Action  Action
	PageKey PageKey
}
