package model

import "sort"

// OrderItem assigns a sort order to one entity.
type OrderItem struct {
	ID        string `json:"id"`
	SortOrder int    `json:"sortOrder"`
}

// Sequence assigns dense sort orders 0..n-1 following the given ID order.
func Sequence(ids ...string) []OrderItem {
	items := make([]OrderItem, len(ids))
	for i, id := range ids {
		items[i] = OrderItem{ID: id, SortOrder: i}
	}
	return items
}

// MoveTo returns the dense sequence produced by moving id to position within
// the ordered ids. Positions are clamped to the valid range.
func MoveTo(ids []string, id string, position int) []OrderItem {
	rest := make([]string, 0, len(ids))
	for _, other := range ids {
		if other != id {
			rest = append(rest, other)
		}
	}
	position = max(0, min(position, len(rest)))

	moved := make([]string, 0, len(rest)+1)
	moved = append(moved, rest[:position]...)
	moved = append(moved, id)
	moved = append(moved, rest[position:]...)
	return Sequence(moved...)
}

// SortBookmarks sorts bookmarks ascending by SortOrder, keeping ties stable.
func SortBookmarks(bookmarks []Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		return bookmarks[i].SortOrder < bookmarks[j].SortOrder
	})
}

// SortFolders sorts folders ascending by SortOrder, keeping ties stable.
func SortFolders(folders []Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].SortOrder < folders[j].SortOrder
	})
}
