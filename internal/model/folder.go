package model

import "time"

// Folder represents a container for bookmarks and other folders.
type Folder struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Color         *string   `json:"color"`
	Icon          *string   `json:"icon"`
	SortOrder     int       `json:"sortOrder"`
	ParentID      *string   `json:"parentId"` // nil = root level
	BookmarkCount int       `json:"bookmarkCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FolderInput holds parameters for creating a new Folder.
type FolderInput struct {
	Name     string  `json:"name"`
	Color    *string `json:"color,omitempty"`
	Icon     *string `json:"icon,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
}

// FolderPatch describes a partial folder update.
type FolderPatch struct {
	Name     Opt[string]  `json:"name,omitzero"`
	Color    Opt[*string] `json:"color,omitzero"`
	Icon     Opt[*string] `json:"icon,omitzero"`
	ParentID Opt[*string] `json:"parentId,omitzero"`
}
