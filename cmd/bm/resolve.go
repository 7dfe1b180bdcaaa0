package main

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/bmsync/internal/model"
)

// rootRef names the root level (folders) or uncategorized (bookmarks).
const rootRef = "/"

// shortIDLen is how much of an ID the tables print.
const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// findBookmark resolves ref by ID, unique ID prefix, exact URL or
// case-insensitive title, in that order.
func findBookmark(bookmarks []model.Bookmark, ref string) (model.Bookmark, error) {
	for _, b := range bookmarks {
		if b.ID == ref || b.URL == ref {
			return b, nil
		}
	}
	return unique("bookmark", ref, bookmarks, func(b model.Bookmark) bool {
		return matchesPrefix(b.ID, ref) || strings.EqualFold(b.Title, ref)
	})
}

// findFolder resolves ref by ID, unique ID prefix or case-insensitive name.
func findFolder(folders []model.Folder, ref string) (model.Folder, error) {
	for _, f := range folders {
		if f.ID == ref {
			return f, nil
		}
	}
	return unique("folder", ref, folders, func(f model.Folder) bool {
		return matchesPrefix(f.ID, ref) || strings.EqualFold(f.Name, ref)
	})
}

// findTag resolves ref by ID or case-insensitive name. Names are unique.
func findTag(tags []model.Tag, ref string) (model.Tag, error) {
	ref = strings.TrimPrefix(ref, "#")
	for _, t := range tags {
		if t.ID == ref || strings.EqualFold(t.Name, ref) {
			return t, nil
		}
	}
	return model.Tag{}, fmt.Errorf("%w: tag %q", model.ErrNotFound, ref)
}

// folderRef resolves a folder flag value. rootRef and "" mean no folder.
func folderRef(folders []model.Folder, ref string) (*string, error) {
	if ref == "" || ref == rootRef {
		return nil, nil
	}
	f, err := findFolder(folders, ref)
	if err != nil {
		return nil, err
	}
	return model.Ptr(f.ID), nil
}

func matchesPrefix(id, ref string) bool {
	return len(ref) >= 4 && strings.HasPrefix(id, ref)
}

func unique[T any](kind, ref string, items []T, match func(T) bool) (T, error) {
	var (
		found T
		n     int
	)
	for _, it := range items {
		if match(it) {
			found = it
			n++
		}
	}
	switch n {
	case 0:
		var zero T
		return zero, fmt.Errorf("%w: %s %q", model.ErrNotFound, kind, ref)
	case 1:
		return found, nil
	default:
		var zero T
		return zero, fmt.Errorf("%w: %q matches %d %ss", model.ErrValidation, ref, n, kind)
	}
}

// folderPaths maps folder IDs to slash-joined paths such as "Dev/Go".
func folderPaths(folders []model.Folder) map[string]string {
	byID := make(map[string]model.Folder, len(folders))
	for _, f := range folders {
		byID[f.ID] = f
	}
	paths := make(map[string]string, len(folders))
	for _, f := range folders {
		var parts []string
		seen := map[string]bool{}
		for cur, ok := f, true; ok && !seen[cur.ID]; {
			seen[cur.ID] = true
			parts = append([]string{cur.Name}, parts...)
			if cur.ParentID == nil {
				break
			}
			cur, ok = byID[*cur.ParentID]
		}
		paths[f.ID] = strings.Join(parts, "/")
	}
	return paths
}
