// ABOUTME: Read-only query and sort projections over collection snapshots
// ABOUTME: Alphabetical order is locale-aware via x/text/collate; ties break by key

package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/harper/wikifaves/internal/models"
)

// SortMethod selects a display ordering.
type SortMethod string

const (
	SortAlpha           SortMethod = "alpha"
	SortMostVisited     SortMethod = "mostVisited"
	SortDateAdded       SortMethod = "dateAdded"
	SortFirstVisited    SortMethod = "firstVisited"
	SortRecentlyVisited SortMethod = "recentlyVisited"
)

// SortMethods lists the accepted orderings.
var SortMethods = []SortMethod{SortAlpha, SortMostVisited, SortDateAdded, SortFirstVisited, SortRecentlyVisited}

// ParseSortMethod accepts a method name case-insensitively. Empty input yields
// the empty method, which means the collection default.
func ParseSortMethod(s string) (SortMethod, error) {
	if s == "" {
		return "", nil
	}
	for _, m := range SortMethods {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sort method %q", s)
}

// Entry is one row of a query result, flattened across collections.
type Entry struct {
	Key          models.PageKey    `json:"key"`
	URL          string            `json:"url"`
	DisplayTitle string            `json:"displayTitle"`
	Favorite     bool              `json:"favorite"`
	DateAdded    time.Time         `json:"dateAdded,omitzero"`
	VisitCount   int               `json:"visitCount,omitempty"`
	FirstVisit   time.Time         `json:"firstVisit,omitzero"`
	LastVisit    time.Time         `json:"lastVisit,omitzero"`
	SourceType   models.SourceType `json:"sourceType,omitempty"`
	TrashDate    time.Time         `json:"trashDate,omitzero"`
}

// QueryOptions controls ordering and filtering of a listing.
type QueryOptions struct {
	Sort   SortMethod
	Locale string
	// Since drops entries whose collection timestamp is before it. Zero disables.
	Since time.Time
	// Limit caps the result length. Zero or negative means no cap.
	Limit int
}

// ListFavorites returns favorites joined with their history, default order dateAdded.
func ListFavorites(snap models.Snapshot, opts QueryOptions) []Entry {
	entries := make([]Entry, 0, len(snap.Favorites))
	for key, f := range snap.Favorites {
		if !opts.Since.IsZero() && f.DateAdded.Before(opts.Since) {
			continue
		}
		e := Entry{Key: key, URL: f.URL, DisplayTitle: f.DisplayTitle, Favorite: true, DateAdded: f.DateAdded}
		if h, ok := snap.History[key]; ok {
			e.VisitCount, e.FirstVisit, e.LastVisit = h.VisitCount, h.FirstVisit, h.LastVisit
		}
		entries = append(entries, e)
	}
	method := opts.Sort
	if method == "" {
		method = SortDateAdded
	}
	return finish(entries, method, opts)
}

// ListHistory returns history records, default order recentlyVisited.
func ListHistory(snap models.Snapshot, opts QueryOptions) []Entry {
	entries := make([]Entry, 0, len(snap.History))
	for key, h := range snap.History {
		if !opts.Since.IsZero() && h.LastVisit.Before(opts.Since) {
			continue
		}
		e := Entry{
			Key: key, URL: h.URL, DisplayTitle: h.DisplayTitle,
			VisitCount: h.VisitCount, FirstVisit: h.FirstVisit, LastVisit: h.LastVisit,
		}
		if f, ok := snap.Favorites[key]; ok {
			e.Favorite = true
			e.DateAdded = f.DateAdded
		}
		entries = append(entries, e)
	}
	method := opts.Sort
	if method == "" {
		method = SortRecentlyVisited
	}
	return finish(entries, method, opts)
}

// ListTrash returns trash entries, always newest trashDate first.
func ListTrash(snap models.Snapshot, opts QueryOptions) []Entry {
	entries := make([]Entry, 0, len(snap.Trash))
	for key, t := range snap.Trash {
		if !opts.Since.IsZero() && t.TrashDate.Before(opts.Since) {
			continue
		}
		e := Entry{Key: key, URL: t.URL(), DisplayTitle: t.DisplayTitle(), SourceType: t.SourceType, TrashDate: t.TrashDate}
		if t.Favorite != nil {
			e.DateAdded = t.Favorite.DateAdded
		}
		if t.History != nil {
			e.VisitCount, e.FirstVisit, e.LastVisit = t.History.VisitCount, t.History.FirstVisit, t.History.LastVisit
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := compareDesc(entries[i].TrashDate, entries[j].TrashDate); c != 0 {
			return c < 0
		}
		return entries[i].Key < entries[j].Key
	})
	return limit(entries, opts.Limit)
}

// List dispatches to the listing for collection c.
func List(snap models.Snapshot, c models.Collection, opts QueryOptions) []Entry {
	switch c {
	case models.CollectionHistory:
		return ListHistory(snap, opts)
	case models.CollectionTrash:
		return ListTrash(snap, opts)
	}
	return ListFavorites(snap, opts)
}

func finish(entries []Entry, method SortMethod, opts QueryOptions) []Entry {
	Sort(entries, method, opts.Locale)
	return limit(entries, opts.Limit)
}

func limit(entries []Entry, n int) []Entry {
	if n > 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

// Sort orders entries in place by method, breaking ties by key ascending.
func Sort(entries []Entry, method SortMethod, locale string) {
	var cmp func(a, b *Entry) int
	switch method {
	case SortAlpha:
		col := collate.New(localeTag(locale))
		cmp = func(a, b *Entry) int { return col.CompareString(a.DisplayTitle, b.DisplayTitle) }
	case SortMostVisited:
		cmp = func(a, b *Entry) int { return b.VisitCount - a.VisitCount }
	case SortFirstVisited:
		cmp = func(a, b *Entry) int { return compareAsc(a.FirstVisit, b.FirstVisit) }
	case SortRecentlyVisited:
		cmp = func(a, b *Entry) int { return compareDesc(a.LastVisit, b.LastVisit) }
	default:
		cmp = func(a, b *Entry) int { return compareDesc(a.DateAdded, b.DateAdded) }
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := cmp(&entries[i], &entries[j]); c != 0 {
			return c < 0
		}
		return entries[i].Key < entries[j].Key
	})
}

func localeTag(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}

// compareDesc orders later times first; zero times sort last.
func compareDesc(a, b time.Time) int {
	switch {
	case a.Equal(b):
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	case a.After(b):
		return -1
	}
	return 1
}

// compareAsc orders earlier times first; zero times sort last.
func compareAsc(a, b time.Time) int {
	switch {
	case a.Equal(b):
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	case a.Before(b):
		return -1
	}
	return 1
}

// Stats summarizes a snapshot.
type Stats struct {
	Favorites   int `json:"favorites"`
	History     int `json:"history"`
	Trash       int `json:"trash"`
	TotalVisits int `json:"totalVisits"`
}

// Summarize counts records and visits in snap.
func Summarize(snap models.Snapshot) Stats {
	s := Stats{Favorites: len(snap.Favorites), History: len(snap.History), Trash: len(snap.Trash)}
	for _, h := range snap.History {
		s.TotalVisits += h.VisitCount
	}
	return s
}
