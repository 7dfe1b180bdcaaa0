// Package adapter defines the entity store capability shared by the local
// (on-device blob) and remote (account service) backends.
package adapter

import (
	"context"

	"github.com/nikbrunner/bmsync/internal/model"
)

// BookmarkStore is the bookmark half of the capability set.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context) ([]model.Bookmark, error)
	CreateBookmark(ctx context.Context, in model.BookmarkInput) (model.Bookmark, error)
	UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) (model.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
	ReorderBookmarks(ctx context.Context, items []model.OrderItem) error
	TrackClick(ctx context.Context, id string) error
	// FindDuplicate returns the bookmark already saved under url, or nil.
	FindDuplicate(ctx context.Context, url string) (*model.Bookmark, error)
}

// FolderStore persists folders. DeleteFolder leaves orphaned children and
// bookmarks at the top level.
type FolderStore interface {
	ListFolders(ctx context.Context) ([]model.Folder, error)
	CreateFolder(ctx context.Context, in model.FolderInput) (model.Folder, error)
	UpdateFolder(ctx context.Context, id string, patch model.FolderPatch) (model.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
	ReorderFolders(ctx context.Context, items []model.OrderItem) error
}

// TagStore persists tags. Names are unique ignoring case.
type TagStore interface {
	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, in model.TagInput) (model.Tag, error)
	UpdateTag(ctx context.Context, id string, patch model.TagPatch) (model.Tag, error)
	DeleteTag(ctx context.Context, id string) error
}

// Importer bulk-creates bookmarks, skipping URLs that already exist.
type Importer interface {
	ImportBookmarks(ctx context.Context, inputs []model.BookmarkInput) (model.ImportResult, error)
}

// Adapter is implemented by both Local and Remote. Callers never need to
// know which one they hold.
type Adapter interface {
	BookmarkStore
	FolderStore
	TagStore
	Importer
}

// Authenticator reports the current sign-in state.
type Authenticator interface {
	Authenticated() bool
}

// Factory picks the adapter for the current authentication state.
type Factory struct {
	local  Adapter
	remote Adapter
	auth   Authenticator
}

// NewFactory returns a Factory. A nil auth always selects local.
func NewFactory(local, remote Adapter, auth Authenticator) *Factory {
	return &Factory{local: local, remote: remote, auth: auth}
}

// Active returns the remote adapter when signed in, the local one otherwise.
// The state is read on every call, so a sign-in switches backends at once
// without carrying local data over.
func (f *Factory) Active() Adapter {
	if f.auth != nil && f.auth.Authenticated() {
		return f.remote
	}
	return f.local
}

// Local returns the signed-out backend regardless of sign-in state.
func (f *Factory) Local() Adapter { return f.local }

// Remote returns the account backend regardless of sign-in state.
func (f *Factory) Remote() Adapter { return f.remote }
