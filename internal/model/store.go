package model

import "strings"

// Store holds all bookmarks, folders and tags.
type Store struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Folders   []Folder   `json:"folders"`
	Tags      []Tag      `json:"tags"`
}

// NewStore creates an empty Store with initialized slices.
func NewStore() *Store {
	return &Store{
		Bookmarks: []Bookmark{},
		Folders:   []Folder{},
		Tags:      []Tag{},
	}
}

// Normalize replaces nil slices with empty ones.
func (s *Store) Normalize() {
	if s.Bookmarks == nil {
		s.Bookmarks = []Bookmark{}
	}
	if s.Folders == nil {
		s.Folders = []Folder{}
	}
	if s.Tags == nil {
		s.Tags = []Tag{}
	}
	for i := range s.Bookmarks {
		if s.Bookmarks[i].TagIDs == nil {
			s.Bookmarks[i].TagIDs = []string{}
		}
	}
}

// IsEmpty reports whether the store has neither bookmarks nor folders.
// Tags alone do not count as user data worth migrating.
func (s *Store) IsEmpty() bool {
	return len(s.Bookmarks) == 0 && len(s.Folders) == 0
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{
		Bookmarks: CloneBookmarks(s.Bookmarks),
		Folders:   make([]Folder, len(s.Folders)),
		Tags:      make([]Tag, len(s.Tags)),
	}
	for i, f := range s.Folders {
		f.Color = clonePtr(f.Color)
		f.Icon = clonePtr(f.Icon)
		f.ParentID = clonePtr(f.ParentID)
		c.Folders[i] = f
	}
	for i, t := range s.Tags {
		t.Color = clonePtr(t.Color)
		c.Tags[i] = t
	}
	return c
}

// CloneBookmarks deep-copies a bookmark slice.
func CloneBookmarks(bookmarks []Bookmark) []Bookmark {
	out := make([]Bookmark, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = b.Clone()
	}
	return out
}

// Recount refreshes the derived BookmarkCount of every folder and tag.
func (s *Store) Recount() {
	RecountFolders(s.Folders, s.Bookmarks)
	RecountTags(s.Tags, s.Bookmarks)
}

// RecountFolders sets BookmarkCount on each folder from the bookmarks.
func RecountFolders(folders []Folder, bookmarks []Bookmark) {
	counts := make(map[string]int)
	for _, b := range bookmarks {
		if b.FolderID != nil {
			counts[*b.FolderID]++
		}
	}
	for i := range folders {
		folders[i].BookmarkCount = counts[folders[i].ID]
	}
}

// RecountTags sets BookmarkCount on each tag from the bookmarks.
func RecountTags(tags []Tag, bookmarks []Bookmark) {
	counts := make(map[string]int)
	for _, b := range bookmarks {
		for _, id := range b.TagIDs {
			counts[id]++
		}
	}
	for i := range tags {
		tags[i].BookmarkCount = counts[tags[i].ID]
	}
}

// GetFoldersInFolder returns folders with the given parent ID.
// Pass nil for root level folders.
func (s *Store) GetFoldersInFolder(parentID *string) []Folder {
	var result []Folder
	for _, f := range s.Folders {
		if ptrEqual(f.ParentID, parentID) {
			result = append(result, f)
		}
	}
	SortFolders(result)
	return result
}

// GetBookmarksInFolder returns bookmarks in the given folder ordered by SortOrder.
// Pass nil for uncategorized bookmarks.
func (s *Store) GetBookmarksInFolder(folderID *string) []Bookmark {
	var result []Bookmark
	for _, b := range s.Bookmarks {
		if b.InFolder(folderID) {
			result = append(result, b)
		}
	}
	SortBookmarks(result)
	return result
}

// BookmarkByID finds a bookmark by ID, returns nil if not found.
func (s *Store) BookmarkByID(id string) *Bookmark {
	for i := range s.Bookmarks {
		if s.Bookmarks[i].ID == id {
			return &s.Bookmarks[i]
		}
	}
	return nil
}

// FolderByID finds a folder by ID, returns nil if not found.
func (s *Store) FolderByID(id string) *Folder {
	for i := range s.Folders {
		if s.Folders[i].ID == id {
			return &s.Folders[i]
		}
	}
	return nil
}

// FolderByName finds the first folder whose name matches case-insensitively.
func (s *Store) FolderByName(name string) *Folder {
	for i := range s.Folders {
		if strings.EqualFold(s.Folders[i].Name, name) {
			return &s.Folders[i]
		}
	}
	return nil
}

// TagByID finds a tag by ID, returns nil if not found.
func (s *Store) TagByID(id string) *Tag {
	for i := range s.Tags {
		if s.Tags[i].ID == id {
			return &s.Tags[i]
		}
	}
	return nil
}

// TagByName finds a tag by case-insensitive name, returns nil if not found.
func (s *Store) TagByName(name string) *Tag {
	for i := range s.Tags {
		if strings.EqualFold(s.Tags[i].Name, name) {
			return &s.Tags[i]
		}
	}
	return nil
}

// TagNames resolves tag IDs to names, skipping unknown IDs.
func (s *Store) TagNames(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if t := s.TagByID(id); t != nil {
			names = append(names, t.Name)
		}
	}
	return names
}

// HasBookmarkURL reports whether a bookmark with the exact URL exists.
func (s *Store) HasBookmarkURL(url string) bool {
	return s.BookmarkByURL(url) != nil
}

// BookmarkByURL finds a bookmark by exact URL, returns nil if not found.
func (s *Store) BookmarkByURL(url string) *Bookmark {
	for i := range s.Bookmarks {
		if s.Bookmarks[i].URL == url {
			return &s.Bookmarks[i]
		}
	}
	return nil
}

// ptrEqual compares two string pointers for equality.
func ptrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
