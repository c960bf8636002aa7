// ABOUTME: Display title extraction from article HTML using golang.org/x/net/html
// ABOUTME: Reads the #firstHeading element, falling back to the document <title>

package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/harper/wikifaves/internal/fetch"
	"github.com/harper/wikifaves/internal/models"
)

// ErrNoTitle means the document had neither a #firstHeading nor a <title>.
var ErrNoTitle = errors.New("no title found in page")

// ExtractTitle returns the article heading of an HTML document with any
// "[edit]" markers removed.
func ExtractTitle(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	var heading, docTitle string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if heading != "" {
			return
		}
		if n.Type == html.ElementNode {
			if hasID(n, "firstHeading") {
				heading = textContent(n)
				return
			}
			if n.Data == "title" && docTitle == "" {
				docTitle = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if t := cleanTitle(heading); t != "" {
		return t, nil
	}
	if t := cleanTitle(strings.TrimSuffix(strings.TrimSpace(docTitle), " - Wikipedia")); t != "" {
		return t, nil
	}
	return "", ErrNoTitle
}

func hasID(n *html.Node, id string) bool {
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val == id {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func cleanTitle(s string) string {
	s = strings.ReplaceAll(s, "[edit]", "")
	return strings.Join(strings.Fields(s), " ")
}

// FetchTitle downloads pageURL and extracts its display title.
func FetchTitle(ctx context.Context, pageURL string) (string, error) {
	res, err := fetch.Fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return ExtractTitle(strings.NewReader(string(res.Body)))
}

// Enrich replaces page's default display title with the fetched heading.
// Fetch failures leave the page unchanged and are returned for logging.
func Enrich(ctx context.Context, page models.Page) (models.Page, error) {
	title, err := FetchTitle(ctx, page.URL)
	if err != nil {
		return page, err
	}
	page.DisplayTitle = title
	return page, nil
}
