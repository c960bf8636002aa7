// ABOUTME: OPML 2.0 link lists for exchanging favorites with other tools
// ABOUTME: Supports folders, per-link created dates, and round-trip XML serialization

package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Version is the OPML version written.
const Version = "2.0"

// Document represents an OPML document with a title and hierarchical outlines
type Document struct {
	Title    string
	Created  time.Time
	Outlines []Outline
	urls     map[string]bool // URL index for O(1) lookups
}

// Outline is a folder (with Children) or a link (with URL).
type Outline struct {
	Text     string
	Title    string
	Type     string
	URL      string
	Created  time.Time
	Children []Outline
}

// Link is a flattened link with its folder.
type Link struct {
	URL     string
	Title   string
	Folder  string
	Created time.Time
}

type opmlXML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    headXML  `xml:"head"`
	Body    bodyXML  `xml:"body"`
}

type headXML struct {
	Title       string `xml:"title"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

type bodyXML struct {
	Outlines []outlineXML `xml:"outline"`
}

type outlineXML struct {
	Text     string       `xml:"text,attr"`
	Title    string       `xml:"title,attr,omitempty"`
	Type     string       `xml:"type,attr,omitempty"`
	URL      string       `xml:"url,attr,omitempty"`
	HTMLURL  string       `xml:"htmlUrl,attr,omitempty"`
	XMLURL   string       `xml:"xmlUrl,attr,omitempty"`
	Created  string       `xml:"created,attr,omitempty"`
	Children []outlineXML `xml:"outline,omitempty"`
}

// NewDocument creates a new empty OPML document with the given title
func NewDocument(title string) *Document {
	return &Document{
		Title:    title,
		Outlines: []Outline{},
		urls:     make(map[string]bool),
	}
}

// Parse reads OPML data from an io.Reader and returns a Document. Outlines
// carrying htmlUrl or xmlUrl instead of url are accepted as links.
func Parse(r io.Reader) (*Document, error) {
	var doc opmlXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode OPML: %w", err)
	}

	d := &Document{
		Title:    doc.Head.Title,
		Created:  parseDate(doc.Head.DateCreated),
		Outlines: make([]Outline, len(doc.Body.Outlines)),
	}
	for i, o := range doc.Body.Outlines {
		d.Outlines[i] = fromXML(o)
	}
	d.rebuildURLIndex()
	return d, nil
}

// ParseFile reads OPML data from a file and returns a Document
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

func (d *Document) rebuildURLIndex() {
	d.urls = make(map[string]bool)
	for _, l := range d.AllLinks() {
		d.urls[l.URL] = true
	}
}

// AllLinks returns every link in document order with its folder.
func (d *Document) AllLinks() []Link {
	links := make([]Link, 0, len(d.Outlines))
	for _, o := range d.Outlines {
		links = append(links, collectLinks(o, "")...)
	}
	return links
}

// Folders returns the names of top-level folders in document order.
func (d *Document) Folders() []string {
	var folders []string
	for _, o := range d.Outlines {
		if o.URL == "" {
			folders = append(folders, o.Text)
		}
	}
	return folders
}

// AddFolder adds a folder to the document (idempotent)
func (d *Document) AddFolder(name string) {
	for _, o := range d.Outlines {
		if o.Text == name && o.URL == "" {
			return
		}
	}
	d.Outlines = append(d.Outlines, Outline{Text: name, Children: []Outline{}})
}

// AddLink adds a link, optionally inside folder, creating the folder if
// needed. A URL may appear only once per document.
func (d *Document) AddLink(url, title, folder string, created time.Time) error {
	if d.urls == nil {
		d.rebuildURLIndex()
	}
	if d.urls[url] {
		return fmt.Errorf("link with URL %s already exists", url)
	}

	link := Outline{Text: title, Title: title, Type: "link", URL: url, Created: created}
	if folder == "" {
		d.Outlines = append(d.Outlines, link)
	} else {
		d.AddFolder(folder)
		for i := range d.Outlines {
			if d.Outlines[i].Text == folder && d.Outlines[i].URL == "" {
				d.Outlines[i].Children = append(d.Outlines[i].Children, link)
				break
			}
		}
	}
	d.urls[url] = true
	return nil
}

// Write writes the OPML document to an io.Writer
func (d *Document) Write(w io.Writer) error {
	doc := opmlXML{
		Version: Version,
		Head:    headXML{Title: d.Title, DateCreated: formatDate(d.Created)},
		Body:    bodyXML{Outlines: make([]outlineXML, len(d.Outlines))},
	}
	for i, o := range d.Outlines {
		doc.Body.Outlines[i] = toXML(o)
	}

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}
	_, err := w.Write([]byte("\n"))
	return err
}

// WriteFile writes the OPML document to a file
func (d *Document) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return d.Write(file)
}

func fromXML(x outlineXML) Outline {
	url := x.URL
	if url == "" {
		url = x.HTMLURL
	}
	if url == "" {
		url = x.XMLURL
	}
	o := Outline{
		Text:     x.Text,
		Title:    x.Title,
		Type:     x.Type,
		URL:      url,
		Created:  parseDate(x.Created),
		Children: make([]Outline, len(x.Children)),
	}
	for i, c := range x.Children {
		o.Children[i] = fromXML(c)
	}
	return o
}

func toXML(o Outline) outlineXML {
	x := outlineXML{
		Text:     o.Text,
		Title:    o.Title,
		Type:     o.Type,
		URL:      o.URL,
		Created:  formatDate(o.Created),
		Children: make([]outlineXML, len(o.Children)),
	}
	for i, c := range o.Children {
		x.Children[i] = toXML(c)
	}
	return x
}

func collectLinks(o Outline, folder string) []Link {
	var links []Link
	if o.URL != "" {
		title := o.Title
		if title == "" {
			title = o.Text
		}
		links = append(links, Link{URL: o.URL, Title: title, Folder: folder, Created: o.Created})
	}

	childFolder := folder
	if o.URL == "" && len(o.Children) > 0 {
		childFolder = o.Text
	}
	for _, c := range o.Children {
		links = append(links, collectLinks(c, childFolder)...)
	}
	return links
}

// OPML dates are RFC 822; RFC 3339 is accepted on read.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC1123Z)
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
