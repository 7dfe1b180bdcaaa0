package model

// Apply copies the set scalar fields onto b. Tags are resolved by the caller,
// since names may need to be looked up or created.
func (p BookmarkPatch) Apply(b *Bookmark) {
	p.URL.apply(&b.URL)
	p.Title.apply(&b.Title)
	p.Description.apply(&b.Description)
	p.Favicon.apply(&b.Favicon)
	p.IsFavorite.apply(&b.IsFavorite)
	p.SortOrder.apply(&b.SortOrder)
	p.FolderID.apply(&b.FolderID)
}

// Apply copies the set fields onto f.
func (p FolderPatch) Apply(f *Folder) {
	p.Name.apply(&f.Name)
	p.Color.apply(&f.Color)
	p.Icon.apply(&f.Icon)
	p.ParentID.apply(&f.ParentID)
}

// Apply copies the set fields onto t.
func (p TagPatch) Apply(t *Tag) {
	p.Name.apply(&t.Name)
	p.Color.apply(&t.Color)
}

// Ptr returns a pointer to s. Handy for optional string fields.
func Ptr(s string) *string {
	return &s
}
