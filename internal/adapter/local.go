package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/storage"
)

// Local is the adapter used while signed out. It keeps a snapshot of the
// blob in memory and writes the whole blob back after every mutation.
type Local struct {
	mu      sync.Mutex
	storage storage.Storage
	store   *model.Store // loaded lazily

	now   func() time.Time
	newID func() string
}

// LocalOption customizes a Local adapter.
type LocalOption func(*Local)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) { l.now = now }
}

// WithIDs overrides UUID generation.
func WithIDs(newID func() string) LocalOption {
	return func(l *Local) { l.newID = newID }
}

// NewLocal creates a Local adapter persisting through s.
func NewLocal(s storage.Storage, opts ...LocalOption) *Local {
	l := &Local{
		storage: s,
		now:     time.Now,
		newID:   model.GenerateUUID,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Local) loadLocked(ctx context.Context) (*model.Store, error) {
	if l.store == nil {
		store, err := l.storage.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load local store: %w", err)
		}
		store.Normalize()
		l.store = store
	}
	return l.store, nil
}

// view runs fn against the current snapshot. fn must not retain it.
func (l *Local) view(ctx context.Context, fn func(s *model.Store)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	store, err := l.loadLocked(ctx)
	if err != nil {
		return err
	}
	fn(store)
	return nil
}

// mutate applies fn to a working copy and persists it. The snapshot only
// advances when the save succeeds.
func (l *Local) mutate(ctx context.Context, fn func(s *model.Store) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.loadLocked(ctx)
	if err != nil {
		return err
	}

	work := current.Clone()
	if err := fn(work); err != nil {
		return err
	}
	if err := l.storage.Save(ctx, work); err != nil {
		return fmt.Errorf("persist local store: %w", err)
	}
	l.store = work
	return nil
}

// Snapshot returns a deep copy of everything stored locally.
func (l *Local) Snapshot(ctx context.Context) (*model.Store, error) {
	var out *model.Store
	err := l.view(ctx, func(s *model.Store) {
		out = s.Clone()
		out.Recount()
	})
	return out, err
}

// Clear wipes the local store.
func (l *Local) Clear(ctx context.Context) error {
	return l.mutate(ctx, func(s *model.Store) error {
		*s = *model.NewStore()
		return nil
	})
}

// === Bookmarks ===

func (l *Local) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	var out []model.Bookmark
	err := l.view(ctx, func(s *model.Store) {
		out = model.CloneBookmarks(s.Bookmarks)
	})
	model.SortBookmarks(out)
	return out, err
}

func (l *Local) CreateBookmark(ctx context.Context, in model.BookmarkInput) (model.Bookmark, error) {
	var created model.Bookmark
	err := l.mutate(ctx, func(s *model.Store) error {
		b, err := l.newBookmark(s, in)
		if err != nil {
			return err
		}
		s.Bookmarks = append(s.Bookmarks, b)
		created = b.Clone()
		return nil
	})
	return created, err
}

func (l *Local) newBookmark(s *model.Store, in model.BookmarkInput) (model.Bookmark, error) {
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return model.Bookmark{}, fmt.Errorf("%w: bookmark url is required", model.ErrValidation)
	}
	if err := requireFolder(s, in.FolderID); err != nil {
		return model.Bookmark{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = url
	}

	now := l.now()
	return model.Bookmark{
		ID:          l.newID(),
		URL:         url,
		Title:       title,
		Description: in.Description,
		Favicon:     in.Favicon,
		IsFavorite:  in.IsFavorite,
		SortOrder:   nextBookmarkOrder(s),
		FolderID:    in.FolderID,
		TagIDs:      l.resolveTagNames(s, nil, in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (l *Local) UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) (model.Bookmark, error) {
	var updated model.Bookmark
	err := l.mutate(ctx, func(s *model.Store) error {
		b := s.BookmarkByID(id)
		if b == nil {
			return fmt.Errorf("%w: bookmark %s", model.ErrNotFound, id)
		}

		if url, ok := patch.URL.Get(); ok && strings.TrimSpace(url) == "" {
			return fmt.Errorf("%w: bookmark url is required", model.ErrValidation)
		}
		if folderID, ok := patch.FolderID.Get(); ok {
			if err := requireFolder(s, folderID); err != nil {
				return err
			}
		}

		tagsSet := patch.Tags.IsSet() || patch.TagIDs.IsSet()
		var tagIDs []string
		if ids, ok := patch.TagIDs.Get(); ok {
			for _, tagID := range ids {
				if s.TagByID(tagID) == nil {
					return fmt.Errorf("%w: unknown tag %s", model.ErrValidation, tagID)
				}
				tagIDs = appendUnique(tagIDs, tagID)
			}
		}

		patch.Apply(b)
		if names, ok := patch.Tags.Get(); ok {
			tagIDs = l.resolveTagNames(s, tagIDs, names)
		}
		if tagsSet {
			if tagIDs == nil {
				tagIDs = []string{}
			}
			b.TagIDs = tagIDs
		}
		b.UpdatedAt = l.now()

		updated = b.Clone()
		return nil
	})
	return updated, err
}

func (l *Local) DeleteBookmark(ctx context.Context, id string) error {
	return l.mutate(ctx, func(s *model.Store) error {
		for i := range s.Bookmarks {
			if s.Bookmarks[i].ID == id {
				s.Bookmarks = append(s.Bookmarks[:i], s.Bookmarks[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: bookmark %s", model.ErrNotFound, id)
	})
}

func (l *Local) ReorderBookmarks(ctx context.Context, items []model.OrderItem) error {
	return l.mutate(ctx, func(s *model.Store) error {
		for _, item := range items {
			if s.BookmarkByID(item.ID) == nil {
				return fmt.Errorf("%w: bookmark %s", model.ErrNotFound, item.ID)
			}
		}
		for _, item := range items {
			s.BookmarkByID(item.ID).SortOrder = item.SortOrder
		}
		return nil
	})
}

func (l *Local) TrackClick(ctx context.Context, id string) error {
	return l.mutate(ctx, func(s *model.Store) error {
		b := s.BookmarkByID(id)
		if b == nil {
			return fmt.Errorf("%w: bookmark %s", model.ErrNotFound, id)
		}
		b.ClickCount++
		return nil
	})
}

func (l *Local) FindDuplicate(ctx context.Context, url string) (*model.Bookmark, error) {
	var found *model.Bookmark
	err := l.view(ctx, func(s *model.Store) {
		if b := s.BookmarkByURL(strings.TrimSpace(url)); b != nil {
			c := b.Clone()
			found = &c
		}
	})
	return found, err
}

// ImportBookmarks adds every input whose URL isn't stored yet. Duplicates
// inside the batch are skipped as well.
func (l *Local) ImportBookmarks(ctx context.Context, inputs []model.BookmarkInput) (model.ImportResult, error) {
	var result model.ImportResult
	err := l.mutate(ctx, func(s *model.Store) error {
		result = model.ImportResult{}
		for _, in := range inputs {
			if s.HasBookmarkURL(strings.TrimSpace(in.URL)) {
				result.Skipped++
				continue
			}
			b, err := l.newBookmark(s, in)
			if err != nil {
				return fmt.Errorf("import %q: %w", in.URL, err)
			}
			s.Bookmarks = append(s.Bookmarks, b)
			result.Added++
		}
		return nil
	})
	return result, err
}

// === Folders ===

func (l *Local) ListFolders(ctx context.Context) ([]model.Folder, error) {
	var out []model.Folder
	err := l.view(ctx, func(s *model.Store) {
		c := s.Clone()
		model.RecountFolders(c.Folders, c.Bookmarks)
		out = c.Folders
	})
	model.SortFolders(out)
	return out, err
}

func (l *Local) CreateFolder(ctx context.Context, in model.FolderInput) (model.Folder, error) {
	var created model.Folder
	err := l.mutate(ctx, func(s *model.Store) error {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return fmt.Errorf("%w: folder name is required", model.ErrValidation)
		}
		if err := requireFolder(s, in.ParentID); err != nil {
			return err
		}

		now := l.now()
		f := model.Folder{
			ID:        l.newID(),
			Name:      name,
			Color:     in.Color,
			Icon:      in.Icon,
			SortOrder: nextFolderOrder(s),
			ParentID:  in.ParentID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.Folders = append(s.Folders, f)
		created = f
		return nil
	})
	return created, err
}

func (l *Local) UpdateFolder(ctx context.Context, id string, patch model.FolderPatch) (model.Folder, error) {
	var updated model.Folder
	err := l.mutate(ctx, func(s *model.Store) error {
		f := s.FolderByID(id)
		if f == nil {
			return fmt.Errorf("%w: folder %s", model.ErrNotFound, id)
		}
		if name, ok := patch.Name.Get(); ok && strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: folder name is required", model.ErrValidation)
		}
		if parentID, ok := patch.ParentID.Get(); ok {
			if err := requireFolder(s, parentID); err != nil {
				return err
			}
			if createsCycle(s, id, parentID) {
				return fmt.Errorf("%w: folder %s cannot be its own ancestor", model.ErrValidation, id)
			}
		}

		patch.Apply(f)
		f.UpdatedAt = l.now()
		updated = *f
		return nil
	})
	if err == nil {
		updated.BookmarkCount = l.countBookmarks(ctx, id)
	}
	return updated, err
}

// DeleteFolder removes the folder. Bookmarks still pointing at it become
// uncategorized and child folders move to the root.
func (l *Local) DeleteFolder(ctx context.Context, id string) error {
	return l.mutate(ctx, func(s *model.Store) error {
		idx := -1
		for i := range s.Folders {
			if s.Folders[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: folder %s", model.ErrNotFound, id)
		}
		s.Folders = append(s.Folders[:idx], s.Folders[idx+1:]...)

		for i := range s.Folders {
			if s.Folders[i].ParentID != nil && *s.Folders[i].ParentID == id {
				s.Folders[i].ParentID = nil
			}
		}
		for i := range s.Bookmarks {
			if s.Bookmarks[i].FolderID != nil && *s.Bookmarks[i].FolderID == id {
				s.Bookmarks[i].FolderID = nil
			}
		}
		return nil
	})
}

func (l *Local) ReorderFolders(ctx context.Context, items []model.OrderItem) error {
	return l.mutate(ctx, func(s *model.Store) error {
		for _, item := range items {
			if s.FolderByID(item.ID) == nil {
				return fmt.Errorf("%w: folder %s", model.ErrNotFound, item.ID)
			}
		}
		for _, item := range items {
			s.FolderByID(item.ID).SortOrder = item.SortOrder
		}
		return nil
	})
}

// === Tags ===

func (l *Local) ListTags(ctx context.Context) ([]model.Tag, error) {
	var out []model.Tag
	err := l.view(ctx, func(s *model.Store) {
		c := s.Clone()
		model.RecountTags(c.Tags, c.Bookmarks)
		out = c.Tags
	})
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, err
}

func (l *Local) CreateTag(ctx context.Context, in model.TagInput) (model.Tag, error) {
	var created model.Tag
	err := l.mutate(ctx, func(s *model.Store) error {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return fmt.Errorf("%w: tag name is required", model.ErrValidation)
		}
		if s.TagByName(name) != nil {
			return fmt.Errorf("%w: tag %q already exists", model.ErrConflict, name)
		}
		created = model.Tag{ID: l.newID(), Name: name, Color: in.Color, CreatedAt: l.now()}
		s.Tags = append(s.Tags, created)
		return nil
	})
	return created, err
}

func (l *Local) UpdateTag(ctx context.Context, id string, patch model.TagPatch) (model.Tag, error) {
	var updated model.Tag
	err := l.mutate(ctx, func(s *model.Store) error {
		t := s.TagByID(id)
		if t == nil {
			return fmt.Errorf("%w: tag %s", model.ErrNotFound, id)
		}
		if name, ok := patch.Name.Get(); ok {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("%w: tag name is required", model.ErrValidation)
			}
			if other := s.TagByName(name); other != nil && other.ID != id {
				return fmt.Errorf("%w: tag %q already exists", model.ErrConflict, name)
			}
			patch.Name = model.Set(name)
		}

		patch.Apply(t)
		updated = *t
		return nil
	})
	return updated, err
}

// DeleteTag removes the tag and strips it from every bookmark.
func (l *Local) DeleteTag(ctx context.Context, id string) error {
	return l.mutate(ctx, func(s *model.Store) error {
		idx := -1
		for i := range s.Tags {
			if s.Tags[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: tag %s", model.ErrNotFound, id)
		}
		s.Tags = append(s.Tags[:idx], s.Tags[idx+1:]...)

		for i := range s.Bookmarks {
			s.Bookmarks[i].TagIDs = removeID(s.Bookmarks[i].TagIDs, id)
		}
		return nil
	})
}

// === helpers ===

// resolveTagNames appends the IDs for names to ids, creating tags whose
// name has no case-insensitive match.
func (l *Local) resolveTagNames(s *model.Store, ids []string, names []string) []string {
	if ids == nil {
		ids = []string{}
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag := s.TagByName(name)
		if tag == nil {
			s.Tags = append(s.Tags, model.Tag{ID: l.newID(), Name: name, CreatedAt: l.now()})
			tag = &s.Tags[len(s.Tags)-1]
		}
		ids = appendUnique(ids, tag.ID)
	}
	return ids
}

func (l *Local) countBookmarks(ctx context.Context, folderID string) int {
	n := 0
	_ = l.view(ctx, func(s *model.Store) {
		n = len(s.GetBookmarksInFolder(&folderID))
	})
	return n
}

func requireFolder(s *model.Store, folderID *string) error {
	if folderID != nil && s.FolderByID(*folderID) == nil {
		return fmt.Errorf("%w: unknown folder %s", model.ErrValidation, *folderID)
	}
	return nil
}

// createsCycle reports whether making parentID the parent of id would put
// id in its own ancestor chain.
func createsCycle(s *model.Store, id string, parentID *string) bool {
	seen := make(map[string]bool)
	for cur := parentID; cur != nil; {
		if *cur == id || seen[*cur] {
			return true
		}
		seen[*cur] = true
		f := s.FolderByID(*cur)
		if f == nil {
			return false
		}
		cur = f.ParentID
	}
	return false
}

func nextBookmarkOrder(s *model.Store) int {
	next := 0
	for _, b := range s.Bookmarks {
		next = max(next, b.SortOrder+1)
	}
	return next
}

func nextFolderOrder(s *model.Store) int {
	next := 0
	for _, f := range s.Folders {
		next = max(next, f.SortOrder+1)
	}
	return next
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
