// ABOUTME: Favorite, history and trash record shapes plus the collection map types
// ABOUTME: JSON follows the export file format; Clone methods deep-copy visit slices

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MaxVisits bounds the visit timestamp window kept per history record.
const MaxVisits = 100

// Favorite is one favorited page.
type Favorite struct {
	URL          string    `json:"url"`
	DisplayTitle string    `json:"displayTitle"`
	DateAdded    time.Time `json:"dateAdded"`
}

type favoriteJSON struct {
	URL          string    `json:"url"`
	DisplayTitle string    `json:"displayTitle"`
	DateAdded    Timestamp `json:"dateAdded"`
}

// MarshalJSON writes dateAdded as a millisecond UTC timestamp.
func (f Favorite) MarshalJSON() ([]byte, error) {
	return json.Marshal(favoriteJSON{URL: f.URL, DisplayTitle: f.DisplayTitle, DateAdded: Timestamp{f.DateAdded}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Favorite) UnmarshalJSON(data []byte) error {
	var in favoriteJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*f = Favorite{URL: in.URL, DisplayTitle: in.DisplayTitle, DateAdded: in.DateAdded.Time}
	return nil
}

// Validate checks a favorite read from an untrusted source.
func (f Favorite) Validate() error {
	if f.DateAdded.IsZero() {
		return errors.New("dateAdded is required")
	}
	return nil
}

// HistoryRecord tracks visits to one page. VisitCount is exact; Visits is a
// capped sample of the most recent timestamps in ascending order.
type HistoryRecord struct {
	URL          string      `json:"url"`
	DisplayTitle string      `json:"displayTitle"`
	VisitCount   int         `json:"visitCount"`
	FirstVisit   time.Time   `json:"firstVisit"`
	LastVisit    time.Time   `json:"lastVisit"`
	Visits       []time.Time `json:"visits"`
}

type historyJSON struct {
	URL          string      `json:"url"`
	DisplayTitle string      `json:"displayTitle"`
	VisitCount   int         `json:"visitCount"`
	FirstVisit   Timestamp   `json:"firstVisit"`
	LastVisit    Timestamp   `json:"lastVisit"`
	Visits       []Timestamp `json:"visits"`
}

// MarshalJSON writes millisecond UTC timestamps. A nil visit window is
// written as an empty array.
func (h HistoryRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyJSON{
		URL:          h.URL,
		DisplayTitle: h.DisplayTitle,
		VisitCount:   h.VisitCount,
		FirstVisit:   Timestamp{h.FirstVisit},
		LastVisit:    Timestamp{h.LastVisit},
		Visits:       timestamps(h.Visits),
	})
}

// UnmarshalJSON implements json.Unmarshaler. A missing or null visits field
// decodes to an empty window.
func (h *HistoryRecord) UnmarshalJSON(data []byte) error {
	var in historyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*h = HistoryRecord{
		URL:          in.URL,
		DisplayTitle: in.DisplayTitle,
		VisitCount:   in.VisitCount,
		FirstVisit:   in.FirstVisit.Time,
		LastVisit:    in.LastVisit.Time,
		Visits:       times(in.Visits),
	}
	return nil
}

// Validate checks a history record read from an untrusted source.
func (h HistoryRecord) Validate() error {
	if h.VisitCount < 1 {
		return fmt.Errorf("visitCount must be >= 1, got %d", h.VisitCount)
	}
	if h.FirstVisit.IsZero() || h.LastVisit.IsZero() {
		return errors.New("firstVisit and lastVisit are required")
	}
	if h.FirstVisit.After(h.LastVisit) {
		return errors.New("firstVisit is after lastVisit")
	}
	return nil
}

// Clone returns a copy that shares no visit storage with h.
func (h HistoryRecord) Clone() HistoryRecord {
	if h.Visits != nil {
		h.Visits = append([]time.Time(nil), h.Visits...)
	}
	return h
}

// TrashRecord is a favorite or history record tagged with where it came from
// and when it was deleted. Exactly one of Favorite and History is set.
type TrashRecord struct {
	SourceType SourceType
	TrashDate  time.Time
	Favorite   *Favorite
	History    *HistoryRecord
}

// NewFavoriteTrash wraps a favorite for the trash.
func NewFavoriteTrash(f Favorite, at time.Time) TrashRecord {
	return TrashRecord{SourceType: SourceFavorites, TrashDate: at, Favorite: &f}
}

// NewHistoryTrash wraps a history record for the trash.
func NewHistoryTrash(h HistoryRecord, at time.Time) TrashRecord {
	h = h.Clone()
	return TrashRecord{SourceType: SourceHistory, TrashDate: at, History: &h}
}

// DisplayTitle returns the title of whichever record is wrapped.
func (t TrashRecord) DisplayTitle() string {
	switch {
	case t.Favorite != nil:
		return t.Favorite.DisplayTitle
	case t.History != nil:
		return t.History.DisplayTitle
	}
	return ""
}

// URL returns the canonical URL of whichever record is wrapped.
func (t TrashRecord) URL() string {
	switch {
	case t.Favorite != nil:
		return t.Favorite.URL
	case t.History != nil:
		return t.History.URL
	}
	return ""
}

// Validate checks the tag and the wrapped record.
func (t TrashRecord) Validate() error {
	if t.TrashDate.IsZero() {
		return errors.New("trashDate is required")
	}
	switch t.SourceType {
	case SourceFavorites:
		if t.Favorite == nil {
			return errors.New("favorites trash entry has no favorite fields")
		}
		return t.Favorite.Validate()
	case SourceHistory:
		if t.History == nil {
			return errors.New("history trash entry has no history fields")
		}
		return t.History.Validate()
	}
	return fmt.Errorf("invalid sourceType %q", t.SourceType)
}

// Clone deep-copies the wrapped record.
func (t TrashRecord) Clone() TrashRecord {
	if t.Favorite != nil {
		f := *t.Favorite
		t.Favorite = &f
	}
	if t.History != nil {
		h := t.History.Clone()
		t.History = &h
	}
	return t
}

// trashJSON is the flat on-disk shape: the record fields plus sourceType and trashDate.
type trashJSON struct {
	URL          string      `json:"url"`
	DisplayTitle string      `json:"displayTitle"`
	DateAdded    *Timestamp  `json:"dateAdded,omitempty"`
	VisitCount   *int        `json:"visitCount,omitempty"`
	FirstVisit   *Timestamp  `json:"firstVisit,omitempty"`
	LastVisit    *Timestamp  `json:"lastVisit,omitempty"`
	Visits       []Timestamp `json:"visits,omitempty"`
	SourceType   SourceType  `json:"sourceType"`
	TrashDate    Timestamp   `json:"trashDate"`
}

// MarshalJSON flattens the record into a single object.
func (t TrashRecord) MarshalJSON() ([]byte, error) {
	out := trashJSON{SourceType: t.SourceType, TrashDate: Timestamp{t.TrashDate}}
	switch {
	case t.Favorite != nil:
		out.URL = t.Favorite.URL
		out.DisplayTitle = t.Favorite.DisplayTitle
		out.DateAdded = &Timestamp{t.Favorite.DateAdded}
	case t.History != nil:
		h := t.History
		out.URL = h.URL
		out.DisplayTitle = h.DisplayTitle
		vc := h.VisitCount
		out.VisitCount = &vc
		out.FirstVisit = &Timestamp{h.FirstVisit}
		out.LastVisit = &Timestamp{h.LastVisit}
		out.Visits = timestamps(h.Visits)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the wrapped record according to sourceType.
func (t *TrashRecord) UnmarshalJSON(data []byte) error {
	var in trashJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = TrashRecord{SourceType: in.SourceType, TrashDate: in.TrashDate.Time}
	switch in.SourceType {
	case SourceFavorites:
		f := Favorite{URL: in.URL, DisplayTitle: in.DisplayTitle}
		if in.DateAdded != nil {
			f.DateAdded = in.DateAdded.Time
		}
		t.Favorite = &f
	case SourceHistory:
		h := HistoryRecord{URL: in.URL, DisplayTitle: in.DisplayTitle, Visits: times(in.Visits)}
		if in.VisitCount != nil {
			h.VisitCount = *in.VisitCount
		}
		if in.FirstVisit != nil {
			h.FirstVisit = in.FirstVisit.Time
		}
		if in.LastVisit != nil {
			h.LastVisit = in.LastVisit.Time
		}
		t.History = &h
	}
	return nil
}

// Favorites maps page keys to favorite records.
type Favorites map[PageKey]Favorite

// Clone returns an independent copy. A nil map clones to an empty one.
func (m Favorites) Clone() Favorites {
	out := make(Favorites, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// History maps page keys to history records.
type History map[PageKey]HistoryRecord

// Clone returns an independent copy including visit slices.
func (m History) Clone() History {
	out := make(History, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Trash maps page keys to their single trash entry.
type Trash map[PageKey]TrashRecord

// Clone returns an independent copy of every wrapped record.
func (m Trash) Clone() Trash {
	out := make(Trash, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Snapshot holds the three collections as read at one point in time.
type Snapshot struct {
	Favorites Favorites
	History   History
	Trash     Trash
}

// Clone deep-copies all three collections.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Favorites: s.Favorites.Clone(),
		History:   s.History.Clone(),
		Trash:     s.Trash.Clone(),
	}
}

// Normalize replaces nil collections with empty maps.
func (s Snapshot) Normalize() Snapshot {
	if s.Favorites == nil {
		s.Favorites = Favorites{}
	}
	if s.History == nil {
		s.History = History{}
	}
	if s.Trash == nil {
		s.Trash = Trash{}
	}
	return s
}

// Empty reports whether all three collections are empty.
func (s Snapshot) Empty() bool {
	return len(s.Favorites) == 0 && len(s.History) == 0 && len(s.Trash) == 0
}
