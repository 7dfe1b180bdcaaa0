package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nikbrunner/bmsync/internal/importer"
)

func TestParseHTML_SingleBookmark(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Example Site</A>
</DL><p>`

	store, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.Folders) != 0 {
		t.Errorf("expected 0 folders, got %d", len(store.Folders))
	}
	if len(store.Bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(store.Bookmarks))
	}

	b := store.Bookmarks[0]
	if b.Title != "Example Site" {
		t.Errorf("expected title 'Example Site', got %q", b.Title)
	}
	if b.URL != "https://example.com" {
		t.Errorf("expected URL 'https://example.com', got %q", b.URL)
	}
	if b.FolderID != nil {
		t.Errorf("expected FolderID nil (root), got %v", *b.FolderID)
	}
	if b.ID == "" {
		t.Error("expected non-empty ID")
	}
	if b.Description != nil {
		t.Errorf("expected no description, got %q", *b.Description)
	}
}

func TestParseHTML_NestedFolders(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 ADD_DATE="1234567890">Development</H3>
    <DL><p>
        <DT><H3 ADD_DATE="1234567890">React</H3>
        <DL><p>
            <DT><A HREF="https://react.dev" ADD_DATE="1234567890">React Docs</A>
        </DL><p>
        <DT><A HREF="https://github.com" ADD_DATE="1234567890">GitHub</A>
    </DL><p>
    <DT><A HREF="https://google.com" ADD_DATE="1234567890">Google</A>
</DL><p>`

	store, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.Folders) != 2 {
		t.Fatalf("expected 2 folders, got %d", len(store.Folders))
	}

	dev := store.FolderByName("Development")
	react := store.FolderByName("React")
	if dev == nil || react == nil {
		t.Fatal("expected Development and React folders")
	}
	if dev.ParentID != nil {
		t.Error("Development should be at root (ParentID nil)")
	}
	if react.ParentID == nil || *react.ParentID != dev.ID {
		t.Error("React should be child of Development")
	}

	if len(store.Bookmarks) != 3 {
		t.Fatalf("expected 3 bookmarks, got %d", len(store.Bookmarks))
	}

	tests := []struct {
		url    string
		folder *string
	}{
		{"https://react.dev", &react.ID},
		{"https://github.com", &dev.ID},
		{"https://google.com", nil},
	}
	for _, tt := range tests {
		b := store.BookmarkByURL(tt.url)
		if b == nil {
			t.Fatalf("bookmark %s not found", tt.url)
		}
		if !b.InFolder(tt.folder) {
			t.Errorf("%s: wrong folder %v", tt.url, b.FolderID)
		}
	}
}

func TestParseHTML_SortOrderFollowsDocument(t *testing.T) {
	html := `<DL><p>
    <DT><A HREF="https://one.dev">One</A>
    <DT><A HREF="https://two.dev">Two</A>
    <DT><A HREF="https://three.dev">Three</A>
</DL><p>`

	store, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, b := range store.Bookmarks {
		if b.SortOrder != i {
			t.Errorf("%s: expected sort order %d, got %d", b.Title, i, b.SortOrder)
		}
	}
}

func TestParseHTML_TagsAndDescriptions(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A HREF="https://go.dev" TAGS="go,lang, Go">Go</A>
    <DD>The Go programming language
    <DT><A HREF="https://htmx.org" TAGS="web">htmx</A>
    <DT><A HREF="https://lobste.rs">Lobsters</A>
    <DD>Link aggregator
</DL><p>`

	store, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.Tags) != 3 {
		t.Fatalf("expected 3 tags (go, lang, web), got %d: %+v", len(store.Tags), store.Tags)
	}

	goDev := store.BookmarkByURL("https://go.dev")
	if got := store.TagNames(goDev.TagIDs); strings.Join(got, ",") != "go,lang" {
		t.Errorf("expected tags go,lang, got %v", got)
	}
	if goDev.Description == nil || *goDev.Description != "The Go programming language" {
		t.Errorf("unexpected description %v", goDev.Description)
	}

	htmx := store.BookmarkByURL("https://htmx.org")
	if htmx.Description != nil {
		t.Errorf("htmx should have no description, got %q", *htmx.Description)
	}

	lobsters := store.BookmarkByURL("https://lobste.rs")
	if lobsters.Description == nil || *lobsters.Description != "Link aggregator" {
		t.Errorf("unexpected description %v", lobsters.Description)
	}
	if len(lobsters.TagIDs) != 0 {
		t.Errorf("expected no tags, got %v", lobsters.TagIDs)
	}
}

func TestParseHTML_EmptyFile(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
</DL><p>`

	store, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.IsEmpty() {
		t.Errorf("expected empty store, got %d folders and %d bookmarks", len(store.Folders), len(store.Bookmarks))
	}
}

func TestParseHTML_Timestamps(t *testing.T) {
	// 1234567890 = Fri Feb 13 2009 23:31:30 UTC
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Test</A>
</DL><p>`

	store, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.Bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(store.Bookmarks))
	}

	expected := time.Unix(1234567890, 0)
	if !store.Bookmarks[0].CreatedAt.Equal(expected) {
		t.Errorf("expected CreatedAt %v, got %v", expected, store.Bookmarks[0].CreatedAt)
	}
}

func TestParseHTML_MissingHref(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A ADD_DATE="1234567890">No URL</A>
    <DD>orphan description
    <DT><A HREF="https://valid.com" ADD_DATE="1234567890">Valid</A>
</DL><p>`

	store, err := importer.ParseHTMLBookmarks(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.Bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(store.Bookmarks))
	}
	if store.Bookmarks[0].Description != nil {
		t.Error("description of a skipped link must not leak onto the next bookmark")
	}
}
