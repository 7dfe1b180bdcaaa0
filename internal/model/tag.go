package model

import "time"

// Tag is a case-insensitively unique label attached to bookmarks.
type Tag struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Color         *string   `json:"color"`
	BookmarkCount int       `json:"bookmarkCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TagInput holds parameters for creating a new Tag.
type TagInput struct {
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}

// TagPatch describes a partial tag update.
type TagPatch struct {
	Name  Opt[string]  `json:"name,omitzero"`
	Color Opt[*string] `json:"color,omitzero"`
}
