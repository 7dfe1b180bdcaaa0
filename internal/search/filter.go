// Package search narrows the working set for a view and ranks free-text
// queries.
package search

import (
	"github.com/nikbrunner/bmsync/internal/model"
)

// Mode selects how the working set is narrowed.
type Mode string

const (
	ModeAll       Mode = "all"
	ModeFavorites Mode = "favorites"
	ModeFolder    Mode = "folder"
	ModeTag       Mode = "tag"
	ModeSearch    Mode = "search"
)

// View is the current filter selection.
type View struct {
	Mode     Mode
	FolderID *string // ModeFolder; nil = uncategorized
	TagID    *string // ModeTag
	Query    string  // ModeSearch
}

// Filter returns the bookmarks visible in v. The input is never modified.
// idx is used for ModeSearch; when nil one is built from bookmarks without
// tag names.
func Filter(bookmarks []model.Bookmark, v View, idx *Index) []model.Bookmark {
	switch v.Mode {
	case ModeFavorites:
		return sorted(bookmarks, func(b model.Bookmark) bool { return b.IsFavorite })

	case ModeFolder:
		return sorted(bookmarks, func(b model.Bookmark) bool { return b.InFolder(v.FolderID) })

	case ModeTag:
		if v.TagID == nil {
			// No tag selected: hand back the input untouched and unsorted.
			return model.CloneBookmarks(bookmarks)
		}
		return sorted(bookmarks, func(b model.Bookmark) bool { return b.HasTag(*v.TagID) })

	case ModeSearch:
		if idx == nil {
			idx = NewIndex(bookmarks, nil)
		}
		results := idx.Search(v.Query)
		out := make([]model.Bookmark, len(results))
		for i, r := range results {
			out[i] = r.Bookmark
		}
		return out

	default:
		return sorted(bookmarks, func(model.Bookmark) bool { return true })
	}
}

func sorted(bookmarks []model.Bookmark, keep func(model.Bookmark) bool) []model.Bookmark {
	out := make([]model.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	model.SortBookmarks(out)
	return out
}
