// Package coordinator owns the in-memory working set of bookmarks, folders
// and tags and routes every change through the active adapter.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikbrunner/bmsync/internal/adapter"
	"github.com/nikbrunner/bmsync/internal/cascade"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/search"
)

// Resolver hands out the adapter for the current auth state.
type Resolver interface {
	Active() adapter.Adapter
}

// Coordinator is the single owner of the working set. All accessors return
// copies.
type Coordinator struct {
	resolver Resolver
	log      logger.Logger

	mu        sync.Mutex
	bookmarks []model.Bookmark
	folders   []model.Folder
	tags      []model.Tag
	loading   bool
	lastErr   error
	view      search.View

	version      uint64
	index        *search.Index
	indexVersion uint64

	wg sync.WaitGroup // background click tracking and reorder persistence
}

// New creates a Coordinator. Call Load to populate it.
func New(resolver Resolver, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		resolver:  resolver,
		log:       log,
		bookmarks: []model.Bookmark{},
		folders:   []model.Folder{},
		tags:      []model.Tag{},
		view:      search.View{Mode: search.ModeAll},
	}
}

func (c *Coordinator) active() adapter.Adapter {
	return c.resolver.Active()
}

// Load replaces the working set with the active adapter's data.
func (c *Coordinator) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	bookmarks, folders, tags, err := c.fetchAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.lastErr = err
	if err != nil {
		c.log.Error("load failed", logger.Error(err))
		return err
	}

	model.SortBookmarks(bookmarks)
	model.SortFolders(folders)
	c.bookmarks, c.folders, c.tags = bookmarks, folders, tags
	c.changedLocked()
	c.log.Debug("loaded working set",
		logger.Int("bookmarks", len(bookmarks)),
		logger.Int("folders", len(folders)),
		logger.Int("tags", len(tags)))
	return nil
}

func (c *Coordinator) fetchAll(ctx context.Context) ([]model.Bookmark, []model.Folder, []model.Tag, error) {
	a := c.active()

	bookmarks, err := a.ListBookmarks(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list bookmarks: %w", err)
	}
	folders, err := a.ListFolders(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list folders: %w", err)
	}
	tags, err := a.ListTags(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list tags: %w", err)
	}
	return nonNil(bookmarks), nonNil(folders), nonNil(tags), nil
}

// Wait blocks until background work (click tracking, reorder persistence)
// has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// === Accessors ===

// Bookmarks returns a copy of the working set in display order.
func (c *Coordinator) Bookmarks() []model.Bookmark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CloneBookmarks(c.bookmarks)
}

// Folders returns a copy of the loaded folders.
func (c *Coordinator) Folders() []model.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneFolders(c.folders)
}

// Tags returns a copy of the loaded tags.
func (c *Coordinator) Tags() []model.Tag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneTags(c.tags)
}

// Bookmark returns the in-memory bookmark with id.
func (c *Coordinator) Bookmark(id string) (model.Bookmark, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.bookmarks, id); i >= 0 {
		return c.bookmarks[i].Clone(), true
	}
	return model.Bookmark{}, false
}

// Loading reports whether a Load is in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError is the error of the most recent Load, or nil.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// View is the current filter.
func (c *Coordinator) View() search.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView changes the filter used by FilteredBookmarks.
func (c *Coordinator) SetView(v search.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
}

// FilteredBookmarks applies the current view to the working set.
func (c *Coordinator) FilteredBookmarks() []model.Bookmark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return search.Filter(c.bookmarks, c.view, c.indexLocked())
}

// Search ranks the working set against query without touching the view.
func (c *Coordinator) Search(query string) []search.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexLocked().Search(query)
}

func (c *Coordinator) indexLocked() *search.Index {
	if c.index == nil || c.indexVersion != c.version {
		c.index = search.NewIndex(c.bookmarks, c.tags)
		c.indexVersion = c.version
	}
	return c.index
}

// changedLocked recomputes derived counts and invalidates the index.
func (c *Coordinator) changedLocked() {
	model.RecountFolders(c.folders, c.bookmarks)
	model.RecountTags(c.tags, c.bookmarks)
	c.version++
}

// === Bookmarks ===

// CreateBookmark saves through the active adapter and appends the result.
// Tags are reloaded when the input names any, since new ones may exist.
func (c *Coordinator) CreateBookmark(ctx context.Context, in model.BookmarkInput) (model.Bookmark, error) {
	b, err := c.active().CreateBookmark(ctx, in)
	if err != nil {
		return model.Bookmark{}, err
	}

	c.mu.Lock()
	c.bookmarks = append(c.bookmarks, b.Clone())
	c.changedLocked()
	c.mu.Unlock()

	if len(in.Tags) > 0 {
		c.refreshTags(ctx)
	}
	return b, nil
}

// UpdateBookmark applies patch through the active adapter and replaces the
// in-memory copy with what the adapter returned.
func (c *Coordinator) UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) (model.Bookmark, error) {
	b, err := c.active().UpdateBookmark(ctx, id, patch)
	if err != nil {
		return model.Bookmark{}, err
	}

	c.mu.Lock()
	if i := indexOf(c.bookmarks, id); i >= 0 {
		c.bookmarks[i] = b.Clone()
	} else {
		c.bookmarks = append(c.bookmarks, b.Clone())
	}
	model.SortBookmarks(c.bookmarks)
	c.changedLocked()
	c.mu.Unlock()

	if patch.Tags.IsSet() {
		c.refreshTags(ctx)
	}
	return b, nil
}

// DeleteBookmark removes the bookmark once the adapter has.
func (c *Coordinator) DeleteBookmark(ctx context.Context, id string) error {
	if err := c.active().DeleteBookmark(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.bookmarks, id); i >= 0 {
		c.bookmarks = append(c.bookmarks[:i], c.bookmarks[i+1:]...)
	}
	c.changedLocked()
	return nil
}

// ToggleFavorite flips IsFavorite based on the in-memory state.
func (c *Coordinator) ToggleFavorite(ctx context.Context, id string) (model.Bookmark, error) {
	current, ok := c.Bookmark(id)
	if !ok {
		return model.Bookmark{}, fmt.Errorf("%w: bookmark %s", model.ErrNotFound, id)
	}
	return c.UpdateBookmark(ctx, id, model.BookmarkPatch{IsFavorite: model.Set(!current.IsFavorite)})
}

// TrackClick bumps the click count in memory and records it in the
// background. Failures are logged and otherwise ignored.
func (c *Coordinator) TrackClick(ctx context.Context, id string) error {
	c.mu.Lock()
	i := indexOf(c.bookmarks, id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: bookmark %s", model.ErrNotFound, id)
	}
	c.bookmarks[i].ClickCount++
	c.version++
	c.mu.Unlock()

	a := c.active()
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := a.TrackClick(ctx, id); err != nil {
			c.log.Warn("track click failed", logger.String("id", id), logger.Error(err))
		}
	}()
	return nil
}

// FindDuplicate returns the bookmark already saved under url, or nil.
func (c *Coordinator) FindDuplicate(ctx context.Context, url string) (*model.Bookmark, error) {
	return c.active().FindDuplicate(ctx, url)
}

// ReorderBookmarks applies items immediately and persists them in the
// background. On failure the previous order is restored.
func (c *Coordinator) ReorderBookmarks(ctx context.Context, items []model.OrderItem) *Pending {
	a := c.active()
	return optimistic(ctx, &c.mu, &c.wg,
		func() []model.Bookmark { return model.CloneBookmarks(c.bookmarks) },
		func() {
			applyOrder(c.bookmarks, items, func(b *model.Bookmark) (string, *int) { return b.ID, &b.SortOrder })
			model.SortBookmarks(c.bookmarks)
			c.version++
		},
		func(ctx context.Context) error { return a.ReorderBookmarks(ctx, items) },
		func(saved []model.Bookmark) {
			c.log.Warn("reorder bookmarks failed, restoring previous order")
			c.bookmarks = saved
			c.changedLocked()
		},
	)
}

// === Folders ===

// CreateFolder saves a folder and adds it to the working set.
func (c *Coordinator) CreateFolder(ctx context.Context, in model.FolderInput) (model.Folder, error) {
	f, err := c.active().CreateFolder(ctx, in)
	if err != nil {
		return model.Folder{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.folders = append(c.folders, f)
	c.changedLocked()
	return f, nil
}

// UpdateFolder applies patch through the active adapter.
func (c *Coordinator) UpdateFolder(ctx context.Context, id string, patch model.FolderPatch) (model.Folder, error) {
	f, err := c.active().UpdateFolder(ctx, id, patch)
	if err != nil {
		return model.Folder{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.folders {
		if c.folders[i].ID == id {
			c.folders[i] = f
		}
	}
	c.changedLocked()
	return f, nil
}

// DeleteFolder removes the folder without touching its bookmarks first.
// Use RemoveFolder to reassign them.
func (c *Coordinator) DeleteFolder(ctx context.Context, id string) error {
	if err := c.active().DeleteFolder(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	folders := c.folders[:0]
	for _, f := range c.folders {
		if f.ID == id {
			continue
		}
		if f.ParentID != nil && *f.ParentID == id {
			f.ParentID = nil
		}
		folders = append(folders, f)
	}
	c.folders = folders
	for i := range c.bookmarks {
		if c.bookmarks[i].FolderID != nil && *c.bookmarks[i].FolderID == id {
			c.bookmarks[i].FolderID = nil
		}
	}
	if c.view.Mode == search.ModeFolder && c.view.FolderID != nil && *c.view.FolderID == id {
		c.view = search.View{Mode: search.ModeAll}
	}
	c.changedLocked()
	return nil
}

// ReorderFolders applies the new order at once and persists it in the
// background. The previous order comes back if persisting fails.
func (c *Coordinator) ReorderFolders(ctx context.Context, items []model.OrderItem) *Pending {
	a := c.active()
	return optimistic(ctx, &c.mu, &c.wg,
		func() []model.Folder { return cloneFolders(c.folders) },
		func() {
			applyOrder(c.folders, items, func(f *model.Folder) (string, *int) { return f.ID, &f.SortOrder })
			model.SortFolders(c.folders)
		},
		func(ctx context.Context) error { return a.ReorderFolders(ctx, items) },
		func(saved []model.Folder) {
			c.log.Warn("reorder folders failed, restoring previous order")
			c.folders = saved
			c.changedLocked()
		},
	)
}

// RemoveFolder reassigns the folder's bookmarks as requested, then deletes it.
func (c *Coordinator) RemoveFolder(ctx context.Context, id string, opts cascade.FolderOptions) (cascade.Report, error) {
	return cascade.DeleteFolder(ctx, c, id, opts)
}

// === Tags ===

// CreateTag saves a tag and adds it to the working set.
func (c *Coordinator) CreateTag(ctx context.Context, in model.TagInput) (model.Tag, error) {
	t, err := c.active().CreateTag(ctx, in)
	if err != nil {
		return model.Tag{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append(c.tags, t)
	c.changedLocked()
	return t, nil
}

// UpdateTag renames or recolors a tag through the active adapter.
func (c *Coordinator) UpdateTag(ctx context.Context, id string, patch model.TagPatch) (model.Tag, error) {
	t, err := c.active().UpdateTag(ctx, id, patch)
	if err != nil {
		return model.Tag{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.tags {
		if c.tags[i].ID == id {
			c.tags[i] = t
		}
	}
	c.changedLocked()
	return t, nil
}

// DeleteTag removes the tag and strips it from in-memory bookmarks.
func (c *Coordinator) DeleteTag(ctx context.Context, id string) error {
	if err := c.active().DeleteTag(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	tags := c.tags[:0]
	for _, t := range c.tags {
		if t.ID != id {
			tags = append(tags, t)
		}
	}
	c.tags = tags
	for i := range c.bookmarks {
		kept := c.bookmarks[i].TagIDs[:0]
		for _, tagID := range c.bookmarks[i].TagIDs {
			if tagID != id {
				kept = append(kept, tagID)
			}
		}
		c.bookmarks[i].TagIDs = kept
	}
	if c.view.Mode == search.ModeTag && c.view.TagID != nil && *c.view.TagID == id {
		c.view = search.View{Mode: search.ModeAll}
	}
	c.changedLocked()
	return nil
}

// RemoveTag moves the tag's bookmarks to the replacement, if any, then
// deletes it.
func (c *Coordinator) RemoveTag(ctx context.Context, id string, opts cascade.TagOptions) (cascade.Report, error) {
	return cascade.DeleteTag(ctx, c, id, opts)
}

// refreshTags reloads the tag list after the backend may have created tags.
func (c *Coordinator) refreshTags(ctx context.Context) {
	tags, err := c.active().ListTags(ctx)
	if err != nil {
		c.log.Warn("refresh tags failed", logger.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = nonNil(tags)
	c.changedLocked()
}

// === helpers ===

func applyOrder[T any](items []T, order []model.OrderItem, key func(*T) (string, *int)) {
	positions := make(map[string]int, len(order))
	for _, o := range order {
		positions[o.ID] = o.SortOrder
	}
	for i := range items {
		id, sortOrder := key(&items[i])
		if pos, ok := positions[id]; ok {
			*sortOrder = pos
		}
	}
}

func indexOf(bookmarks []model.Bookmark, id string) int {
	for i := range bookmarks {
		if bookmarks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneFolders(folders []model.Folder) []model.Folder {
	return append([]model.Folder{}, folders...)
}

func cloneTags(tags []model.Tag) []model.Tag {
	return append([]model.Tag{}, tags...)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
