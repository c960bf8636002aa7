// ABOUTME: Sync projection of Favorites into the size-limited synced scope
// ABOUTME: Drops optional fields level by level until the serialized form fits the quota

package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harper/wikifaves/internal/models"
)

// ErrProjectionTooLarge means even the most compact projection exceeds the quota.
var ErrProjectionTooLarge = errors.New("sync projection exceeds quota")

// Compaction records which optional fields a projection dropped.
type Compaction int

const (
	// CompactNone keeps url, displayTitle and dateAdded.
	CompactNone Compaction = iota
	// CompactNoTitle drops displayTitle; it is re-derived from the key on pull.
	CompactNoTitle
	// CompactKeysOnly keeps only dateAdded; url and title are re-derived.
	CompactKeysOnly
)

func (c Compaction) String() string {
	switch c {
	case CompactNone:
		return "full"
	case CompactNoTitle:
		return "no-title"
	case CompactKeysOnly:
		return "keys-only"
	}
	return fmt.Sprintf("compaction(%d)", int(c))
}

type projected struct {
	URL          string           `json:"url,omitempty"`
	DisplayTitle string           `json:"displayTitle,omitempty"`
	DateAdded    models.Timestamp `json:"dateAdded"`
}

// Project serializes favs for the synced scope. quota <= 0 disables the size cap.
func Project(favs models.Favorites, quota int) ([]byte, Compaction, error) {
	for level := CompactNone; level <= CompactKeysOnly; level++ {
		out := make(map[models.PageKey]projected, len(favs))
		for key, f := range favs {
			p := projected{DateAdded: models.Timestamp{Time: f.DateAdded}}
			if level < CompactKeysOnly {
				p.URL = f.URL
			}
			if level < CompactNoTitle {
				p.DisplayTitle = f.DisplayTitle
			}
			out[key] = p
		}
		data, err := json.Marshal(out)
		if err != nil {
			return nil, level, fmt.Errorf("encode projection: %w", err)
		}
		if quota <= 0 || len(data) <= quota {
			return data, level, nil
		}
	}
	return nil, CompactKeysOnly, fmt.Errorf("%w: %d favorites over %d bytes", ErrProjectionTooLarge, len(favs), quota)
}

// ParseProjection decodes a synced projection. fill supplies url and title for
// entries that were compacted; it may be nil.
func ParseProjection(data []byte, fill func(models.PageKey) models.Page) (models.Favorites, error) {
	if len(data) == 0 {
		return models.Favorites{}, nil
	}
	var in map[models.PageKey]projected
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode projection: %w", err)
	}
	out := make(models.Favorites, len(in))
	for key, p := range in {
		if key == "" || p.DateAdded.IsZero() {
			continue
		}
		f := models.Favorite{URL: p.URL, DisplayTitle: p.DisplayTitle, DateAdded: p.DateAdded.Time}
		if fill != nil && (f.URL == "" || f.DisplayTitle == "") {
			page := fill(key)
			if f.URL == "" {
				f.URL = page.URL
			}
			if f.DisplayTitle == "" {
				f.DisplayTitle = page.DisplayTitle
			}
		}
		out[key] = f
	}
	return out, nil
}
