// ABOUTME: Tests for record validation, deep cloning and the flat trash JSON shape
// ABOUTME: Ensures trashed records keep their source fields through encode and decode

package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestHistoryRecord_Validate(t *testing.T) {
	ok := HistoryRecord{VisitCount: 1, FirstVisit: t0, LastVisit: t0}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	zero := ok
	zero.VisitCount = 0
	if err := zero.Validate(); err == nil {
		t.Error("expected error for visitCount 0")
	}

	backwards := ok
	backwards.FirstVisit = t0.Add(time.Hour)
	if err := backwards.Validate(); err == nil {
		t.Error("expected error when firstVisit is after lastVisit")
	}
}

func TestHistoryClone_Independent(t *testing.T) {
	h := History{"A": {VisitCount: 1, FirstVisit: t0, LastVisit: t0, Visits: []time.Time{t0}}}
	c := h.Clone()

	rec := c["A"]
	rec.Visits[0] = t0.Add(time.Hour)
	c["A"] = rec

	if !h["A"].Visits[0].Equal(t0) {
		t.Error("clone shares visit storage with original")
	}
}

func TestTrashRecord_FavoriteJSON(t *testing.T) {
	rec := NewFavoriteTrash(Favorite{URL: "https://en.wikipedia.org/wiki/X", DisplayTitle: "X", DateAdded: t0}, t0.Add(time.Minute))

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"sourceType":"favorites"`) || !strings.Contains(s, `"dateAdded"`) {
		t.Errorf("unexpected JSON: %s", s)
	}
	if strings.Contains(s, "visitCount") {
		t.Errorf("favorite trash entry should not carry history fields: %s", s)
	}

	var back TrashRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Favorite == nil || back.History != nil {
		t.Fatalf("expected favorite payload, got %+v", back)
	}
	if !back.Favorite.DateAdded.Equal(t0) || back.Favorite.URL != rec.Favorite.URL {
		t.Errorf("favorite fields lost: %+v", back.Favorite)
	}
	if err := back.Validate(); err != nil {
		t.Errorf("decoded record invalid: %v", err)
	}
}

func TestTrashRecord_HistoryJSON(t *testing.T) {
	h := HistoryRecord{URL: "u", DisplayTitle: "Y", VisitCount: 2, FirstVisit: t0, LastVisit: t0.Add(time.Hour), Visits: []time.Time{t0, t0.Add(time.Hour)}}
	rec := NewHistoryTrash(h, t0.Add(2*time.Hour))

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back TrashRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.History == nil {
		t.Fatal("expected history payload")
	}
	if back.History.VisitCount != 2 || len(back.History.Visits) != 2 {
		t.Errorf("history fields lost: %+v", back.History)
	}
	if back.DisplayTitle() != "Y" || back.URL() != "u" {
		t.Errorf("accessors returned %q %q", back.DisplayTitle(), back.URL())
	}
}

func TestTrashRecord_ValidateRejectsUnknownSource(t *testing.T) {
	var rec TrashRecord
	if err := json.Unmarshal([]byte(`{"url":"u","sourceType":"bookmarks","trashDate":"2024-03-01T12:00:00Z"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := rec.Validate(); err == nil {
		t.Error("expected validation error for unknown source type")
	}
}

func TestParseSourceType(t *testing.T) {
	if st, err := ParseSourceType("history"); err != nil || st != SourceHistory {
		t.Errorf("ParseSourceType(history) = %q, %v", st, err)
	}
	if _, err := ParseSourceType("trash"); err == nil {
		t.Error("trash is not a valid source type")
	}
}

func TestSnapshotNormalize(t *testing.T) {
	s := Snapshot{}.Normalize()
	if s.Favorites == nil || s.History == nil || s.Trash == nil {
		t.Error("Normalize left a nil collection")
	}
	if !s.Empty() {
		t.Error("expected empty snapshot")
	}
}
