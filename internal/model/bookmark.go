package model

import "time"

// Bookmark represents a saved URL with metadata.
type Bookmark struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Favicon     *string   `json:"favicon"`
	IsFavorite  bool      `json:"isFavorite"`
	ClickCount  int       `json:"clickCount"`
	SortOrder   int       `json:"sortOrder"`
	FolderID    *string   `json:"folderId"` // nil = uncategorized
	TagIDs      []string  `json:"tagIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasTag reports whether the bookmark carries the tag with the given ID.
func (b Bookmark) HasTag(tagID string) bool {
	for _, id := range b.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// InFolder reports whether the bookmark belongs to the given folder.
// Pass nil to test for uncategorized bookmarks.
func (b Bookmark) InFolder(folderID *string) bool {
	return ptrEqual(b.FolderID, folderID)
}

// Clone returns a deep copy of the bookmark.
func (b Bookmark) Clone() Bookmark {
	b.Description = clonePtr(b.Description)
	b.Favicon = clonePtr(b.Favicon)
	b.FolderID = clonePtr(b.FolderID)
	b.TagIDs = append([]string{}, b.TagIDs...)
	return b
}

// BookmarkInput holds parameters for creating a new Bookmark.
// Tags are names; unknown names are created on the fly.
type BookmarkInput struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Favicon     *string  `json:"favicon,omitempty"`
	IsFavorite  bool     `json:"isFavorite,omitempty"`
	FolderID    *string  `json:"folderId,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// BookmarkPatch describes a partial bookmark update. Only set fields change.
type BookmarkPatch struct {
	URL         Opt[string]   `json:"url,omitzero"`
	Title       Opt[string]   `json:"title,omitzero"`
	Description Opt[*string]  `json:"description,omitzero"`
	Favicon     Opt[*string]  `json:"favicon,omitzero"`
	IsFavorite  Opt[bool]     `json:"isFavorite,omitzero"`
	SortOrder   Opt[int]      `json:"sortOrder,omitzero"`
	FolderID    Opt[*string]  `json:"folderId,omitzero"`
	Tags        Opt[[]string] `json:"tags,omitzero"`   // tag names
	TagIDs      Opt[[]string] `json:"tagIds,omitzero"` // tag IDs, merged with Tags
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}
