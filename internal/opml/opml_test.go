// ABOUTME: Test suite for OPML link list parsing and writing
// ABOUTME: Covers folders, created dates, alternate URL attributes and round trips

package opml

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseOPML(t *testing.T) {
	opmlData := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head>
    <title>Reading list</title>
    <dateCreated>Sat, 02 Mar 2024 10:00:00 +0000</dateCreated>
  </head>
  <body>
    <outline text="Favorites">
      <outline type="link" text="Go" url="https://en.wikipedia.org/wiki/Go" created="Fri, 01 Mar 2024 12:00:00 +0000" />
      <outline text="Gopher" htmlUrl="https://en.wikipedia.org/wiki/Gopher" />
    </outline>
    <outline type="rss" text="A feed" xmlUrl="https://example.com/feed" />
  </body>
</opml>`

	doc, err := Parse(bytes.NewBufferString(opmlData))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Title != "Reading list" {
		t.Errorf("Title = %q, want %q", doc.Title, "Reading list")
	}
	if doc.Created.IsZero() {
		t.Error("expected dateCreated to be parsed")
	}

	links := doc.AllLinks()
	if len(links) != 3 {
		t.Fatalf("AllLinks() returned %d links, want 3", len(links))
	}
	if links[0].Folder != "Favorites" || links[0].Title != "Go" {
		t.Errorf("first link = %+v", links[0])
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if !links[0].Created.Equal(want) {
		t.Errorf("Created = %v, want %v", links[0].Created, want)
	}
	if links[1].URL != "https://en.wikipedia.org/wiki/Gopher" {
		t.Errorf("htmlUrl not used: %+v", links[1])
	}
	if links[2].Folder != "" {
		t.Errorf("root link folder = %q", links[2].Folder)
	}

	folders := doc.Folders()
	if len(folders) != 1 || folders[0] != "Favorites" {
		t.Errorf("Folders() = %v", folders)
	}
}

func TestOPML_AddLinkRejectsDuplicate(t *testing.T) {
	doc := NewDocument("Test")
	if err := doc.AddLink("https://en.wikipedia.org/wiki/Go", "Go", "Favorites", time.Time{}); err != nil {
		t.Fatalf("AddLink() error = %v", err)
	}
	if err := doc.AddLink("https://en.wikipedia.org/wiki/Go", "Go again", "", time.Time{}); err == nil {
		t.Error("expected duplicate URL error")
	}
	if len(doc.Outlines) != 1 || len(doc.Outlines[0].Children) != 1 {
		t.Errorf("unexpected outline tree: %+v", doc.Outlines)
	}
}

func TestOPML_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := NewDocument("WikiFaves")
	doc.Created = created
	_ = doc.AddLink("https://en.wikipedia.org/wiki/Go", "Go", "Favorites", created)
	_ = doc.AddLink("https://en.wikipedia.org/wiki/Rust", "Rust & friends", "Favorites", time.Time{})

	path := filepath.Join(t.TempDir(), "out", "favorites.opml")
	if err := doc.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	back, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	links := back.AllLinks()
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if !links[0].Created.Equal(created) {
		t.Errorf("created lost: %v", links[0].Created)
	}
	if links[1].Title != "Rust & friends" {
		t.Errorf("title not escaped/unescaped: %q", links[1].Title)
	}
	if !links[1].Created.IsZero() {
		t.Errorf("expected zero created, got %v", links[1].Created)
	}
}

func TestOPML_Write(t *testing.T) {
	doc := NewDocument("WikiFaves")
	_ = doc.AddLink("https://en.wikipedia.org/wiki/Go", "Go", "", time.Time{})

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`<?xml version="1.0"`, `<opml version="2.0">`, `type="link"`, `url="https://en.wikipedia.org/wiki/Go"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseOPML_Invalid(t *testing.T) {
	if _, err := Parse(strings.NewReader("not xml")); err == nil {
		t.Error("expected error for invalid XML")
	}
}
