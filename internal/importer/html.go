// Package importer reads Netscape bookmark files as exported by browsers.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nikbrunner/bmsync/internal/model"
)

// ParseHTMLBookmarks parses Netscape bookmark HTML into a store holding the
// folders, bookmarks and tags it describes. IDs are freshly generated; the
// result is meant to be fed through migration.Transfer.
func ParseHTMLBookmarks(r io.Reader) (*model.Store, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &parser{store: model.NewStore(), now: time.Now(), last: -1}
	p.walk(doc)
	return p.store, nil
}

type parser struct {
	store *model.Store
	now   time.Time

	folderStack []*string // stack of folder IDs, nil = root
	pending     *string   // folder waiting to be pushed on next DL
	last        int       // index of the bookmark a <DD> describes, -1 = none
}

func (p *parser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "h3":
			p.folder(n)
			return

		case "a":
			p.bookmark(n)
			return

		case "dd":
			p.description(n)
			// A <DD> may wrap the rest of the list in sloppy files.
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode {
					p.walk(c)
				}
			}
			return

		case "dl":
			pushed := false
			if p.pending != nil {
				p.folderStack = append(p.folderStack, p.pending)
				p.pending = nil
				pushed = true
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				p.walk(c)
			}
			if pushed {
				p.folderStack = p.folderStack[:len(p.folderStack)-1]
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *parser) parent() *string {
	if len(p.folderStack) == 0 {
		return nil
	}
	return p.folderStack[len(p.folderStack)-1]
}

func (p *parser) folder(n *html.Node) {
	p.last = -1
	name := getTextContent(n)
	if name == "" {
		return
	}

	id := model.GenerateUUID()
	created := p.timestamp(n, "add_date")
	p.store.Folders = append(p.store.Folders, model.Folder{
		ID:        id,
		Name:      name,
		ParentID:  p.parent(),
		SortOrder: len(p.store.Folders),
		CreatedAt: created,
		UpdatedAt: created,
	})
	p.pending = &id
}

func (p *parser) bookmark(n *html.Node) {
	p.last = -1
	href := strings.TrimSpace(getAttr(n, "href"))
	if href == "" {
		return
	}

	title := getTextContent(n)
	if title == "" {
		title = href
	}

	created := p.timestamp(n, "add_date")
	b := model.Bookmark{
		ID:        model.GenerateUUID(),
		Title:     title,
		URL:       href,
		FolderID:  p.parent(),
		SortOrder: len(p.store.Bookmarks),
		TagIDs:    p.tags(getAttr(n, "tags")),
		CreatedAt: created,
		UpdatedAt: created,
	}
	if icon := getAttr(n, "icon_uri"); icon != "" {
		b.Favicon = &icon
	}
	p.store.Bookmarks = append(p.store.Bookmarks, b)
	p.last = len(p.store.Bookmarks) - 1
}

// description attaches the text directly inside a <DD> to the bookmark
// right before it.
func (p *parser) description(n *html.Node) {
	if p.last < 0 {
		return
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
	}
	if desc := strings.TrimSpace(text.String()); desc != "" {
		p.store.Bookmarks[p.last].Description = &desc
	}
	p.last = -1
}

// tags resolves a comma separated TAGS attribute, creating tags on first use.
func (p *parser) tags(attr string) []string {
	ids := []string{}
	for _, name := range strings.Split(attr, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag := p.store.TagByName(name)
		if tag == nil {
			p.store.Tags = append(p.store.Tags, model.Tag{ID: model.GenerateUUID(), Name: name, CreatedAt: p.now})
			tag = &p.store.Tags[len(p.store.Tags)-1]
		}
		if !containsID(ids, tag.ID) {
			ids = append(ids, tag.ID)
		}
	}
	return ids
}

func (p *parser) timestamp(n *html.Node, attr string) time.Time {
	if v := getAttr(n, attr); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(ts, 0)
		}
	}
	return p.now
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
